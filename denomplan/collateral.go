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

// smallestUnit is one atom, the smallest-currency-unit adjustment used to
// avoid accidentally creating a denomination-sized output.
const smallestUnit = dcrutil.Amount(1)

// changeOutputSize is a conservative P2PKHv0 output script size estimate,
// used only to size the fee subtracted from a collateral split.
const changeOutputSize = 25

// MakeCollateralAmounts builds a transaction that creates collateral
// outputs from the smallest-balance candidate coin group: one or two
// collateral-sized outputs, or (case A) one max-collateral output plus an
// output holding the rest of the group's spendable amount. It runs two explicit passes: the first considers only
// non-denominated funds, and only if that pass finds no usable group does
// the second fall back to breaking denominated inputs.
func MakeCollateralAmounts(groups []CoinGroup, fee FeeEstimator) (*wire.MsgTx, error) {
	if tx, err := makeCollateralPass(groups, fee, false); err == nil {
		return tx, nil
	}
	if tx, err := makeCollateralPass(groups, fee, true); err == nil {
		return tx, nil
	}
	return nil, ErrNoCandidateGroup
}

// makeCollateralPass runs one of MakeCollateralAmounts's two passes.
// tryDenominated false restricts candidates to non-denominated groups and
// additionally skips single-input groups whose lone input happens to sit
// at a denomination amount; tryDenominated true considers every group and
// drops that extra check, since breaking a denominated input is now
// acceptable.
func makeCollateralPass(groups []CoinGroup, fee FeeEstimator, tryDenominated bool) (*wire.MsgTx, error) {
	var pool []CoinGroup
	for _, g := range groups {
		if !tryDenominated && g.Denominated {
			continue
		}
		pool = append(pool, g)
	}
	candidates := rankSmallestFirst(pool)

	for _, g := range candidates {
		if len(g.Inputs) == 1 {
			amt := g.Inputs[0].Amount
			if denom.IsCollateral(amt) {
				continue
			}
			if !tryDenominated && denom.IsDenomination(amt) {
				continue
			}
		}

		tx, err := buildCollateralTx(g, fee)
		if err == nil {
			return tx, nil
		}
	}
	return nil, ErrNoCandidateGroup
}

// rankSmallestFirst orders groups by ascending amount, non-denominated
// groups before denominated ones of the same size.
func rankSmallestFirst(groups []CoinGroup) []CoinGroup {
	out := make([]CoinGroup, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount < out[j].Amount
		}
		return !out[i].Denominated && out[j].Denominated
	})
	return out
}

// buildCollateralTx constructs the output set for one of the three
// documented shapes, given a single candidate coin group.
func buildCollateralTx(g CoinGroup, fee FeeEstimator) (*wire.MsgTx, error) {
	estFeeForOneOutput := fee.EstimateFee(changeOutputSize)
	spendable := g.Amount - estFeeForOneOutput
	if spendable < denom.CollateralAmount {
		return nil, ErrNoCandidateGroup
	}

	tx := wire.NewMsgTx()
	for _, in := range g.Inputs {
		tx.AddTxIn(wire.NewTxIn(&in.Outpoint, int64(in.Amount), nil))
	}

	switch {
	case spendable >= denom.MaxCollateralAmount+denom.CollateralAmount:
		// Case A: one max-collateral output, remainder to a second
		// output, nudged off an exact denomination amount.
		remainder := spendable - denom.MaxCollateralAmount
		if denom.IsDenomination(remainder) {
			remainder -= smallestUnit
		}
		tx.AddTxOut(wire.NewTxOut(int64(denom.MaxCollateralAmount), nil))
		tx.AddTxOut(wire.NewTxOut(int64(remainder), nil))

	case spendable >= 2*denom.CollateralAmount:
		// Case B: split into two equal collateral-sized outputs.
		half := spendable / 2
		other := spendable - half
		if (spendable % 2) != 0 {
			other-- // odd remainder goes to fees
		}
		tx.AddTxOut(wire.NewTxOut(int64(half), nil))
		tx.AddTxOut(wire.NewTxOut(int64(other), nil))

	default:
		// Case C: the whole remainder becomes one collateral output.
		tx.AddTxOut(wire.NewTxOut(int64(spendable), nil))
	}

	return tx, nil
}
