// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denomplan

import (
	"sort"

	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/denom"
)

// maxOutputsPerDenomPass bounds how many outputs of a single denomination
// phase 1 will add in one round-robin pass.
const maxOutputsPerDenomPass = 11

// DenomCounts maps a denomination code to how many outputs of it a plan
// creates.
type DenomCounts map[denom.Code]int

// CreateDenominated builds a transaction populating the wallet with
// standardized denomination outputs, filling each denomination toward
// goal (never exceeding hardCap, except the largest denomination), and
// stopping once total output count reaches outputsThreshold.
func CreateDenominated(groups []CoinGroup, hasCollateralInput bool, goal, hardCap, outputsThreshold int, fee FeeEstimator) (*wire.MsgTx, DenomCounts, error) {
	candidates := rankLargestFirst(groups)
	if len(candidates) == 0 {
		return nil, nil, ErrNoCandidateGroup
	}

	var balance dcrutil.Amount
	for _, g := range candidates {
		balance += g.Amount
	}
	balanceToDenominate := balance
	if !hasCollateralInput {
		balanceToDenominate -= denom.MaxCollateralAmount
	}
	if balanceToDenominate <= 0 {
		return nil, nil, ErrInsufficientFunds
	}

	amounts := denom.Amounts()
	counts := make(DenomCounts, len(amounts))
	largest := amounts[0]
	addedFinal := false
	totalOutputs := 0

	active := true
	for active && totalOutputs < outputsThreshold {
		active = false
		for i, amt := range amounts {
			code := denom.Code(i)
			capLimit := hardCap
			if amt == largest {
				capLimit = 1 << 30 // effectively uncapped, per the exception
			}
			added := 0
			for added < maxOutputsPerDenomPass &&
				counts[code] < goal &&
				counts[code] < capLimit &&
				balanceToDenominate >= amt &&
				totalOutputs < outputsThreshold {

				counts[code]++
				balanceToDenominate -= amt
				totalOutputs++
				added++
				active = true
			}
		}

		if !active && !addedFinal && balanceToDenominate > 0 && balanceToDenominate < largest {
			// Final-output rule, applied once per call: add one extra
			// output of the largest denomination the remainder still
			// covers and whose count is below hardCap. No output larger
			// than the remaining balance is created here.
			for i, amt := range amounts {
				if balanceToDenominate >= amt && counts[denom.Code(i)] < hardCap {
					counts[denom.Code(i)]++
					balanceToDenominate -= amt
					totalOutputs++
					addedFinal = true
					active = true
					break
				}
			}
		}
	}

	// Phase 2: remainder absorption, largest to smallest.
	for i, amt := range amounts {
		if totalOutputs >= outputsThreshold || balanceToDenominate < amt {
			continue
		}
		code := denom.Code(i)
		capLimit := hardCap
		if amt == largest {
			capLimit = 1 << 30
		}
		fits := int(balanceToDenominate / amt)
		toCreate := fits
		if alt := int(balanceToDenominate/amt) + 1; alt < toCreate {
			toCreate = alt
		}
		for toCreate > 0 && counts[code] < capLimit && balanceToDenominate >= amt && totalOutputs < outputsThreshold {
			counts[code]++
			balanceToDenominate -= amt
			totalOutputs++
			toCreate--
		}
	}

	if totalOutputs == 0 {
		return nil, nil, ErrInsufficientFunds
	}

	tx := wire.NewMsgTx()
	var spent dcrutil.Amount
	for _, g := range candidates {
		for _, in := range g.Inputs {
			tx.AddTxIn(wire.NewTxIn(&in.Outpoint, int64(in.Amount), nil))
		}
		spent += g.Amount
		if spent >= balance-balanceToDenominate {
			break
		}
	}

	if !hasCollateralInput {
		tx.AddTxOut(wire.NewTxOut(int64(denom.MaxCollateralAmount), nil))
	}
	for i, amt := range amounts {
		n := counts[denom.Code(i)]
		for j := 0; j < n; j++ {
			tx.AddTxOut(wire.NewTxOut(int64(amt), nil))
		}
	}

	change := balanceToDenominate
	estFee := fee.EstimateFee(changeOutputSize * len(tx.TxOut))
	change -= estFee
	if change > 0 {
		tx.AddTxOut(wire.NewTxOut(int64(change), nil))
	}

	return tx, counts, nil
}

// rankLargestFirst orders groups by descending amount.
func rankLargestFirst(groups []CoinGroup) []CoinGroup {
	out := make([]CoinGroup, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}
