// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denomplan

import (
	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/denom"
	"github.com/submix/submix/session"
)

// SelectSessionInputs returns every available input of amt, shuffled by
// the CoinSource, for a caller to further cap and round-filter.
func SelectSessionInputs(src CoinSource, amt dcrutil.Amount) []DenomInput {
	return src.DenominatedInputsOf(amt)
}

// denomAmount resolves a wire-level denomination code to its amount.
func denomAmount(code int32) (dcrutil.Amount, bool) {
	return denom.DenomToAmount(denom.Code(code))
}

// skipProbability is the chance, after the first accepted input, that an
// otherwise-eligible input is skipped to randomize entry size.
const skipProbability = 5 // 1-in-5, i.e. 1/5

// CollateralSource supplies the Session's current collateral transaction,
// rebuilding it when missing or no longer present in the mempool.
type CollateralSource interface {
	// Collateral returns a collateral transaction known to still be
	// valid, rebuilding and locking a fresh one via MakeCollateralAmounts
	// if the held one is missing or has fallen out of the mempool.
	Collateral() (*wire.MsgTx, error)
}

// Planner composes a CoinSource, Wallet, and KeyHolder factory into a
// session.EntryBuilder: given a denomination, it selects and reserves the
// inputs for one partial mixing entry. It also implements
// session.Denominator, using the same collaborators to keep the wallet
// stocked with denomination and collateral outputs.
type Planner struct {
	src        CoinSource
	collateral CollateralSource
	wallet     Wallet
	keyHolder  func() KeyHolder
	entryMax   int
	minRounds  int
	maxRounds  int

	goal             int
	hardCap          int
	outputsThreshold int
	fee              FeeEstimator
}

// NewPlanner returns a Planner bound to the given coin source, collateral
// source, wallet, and per-entry key-holder factory. goal/hardCap/
// outputsThreshold/fee parameterize CreateDenominated's per-denom fill
// target, per-denom ceiling, and total output cap, per §4.1.2.
func NewPlanner(src CoinSource, collateral CollateralSource, wallet Wallet, keyHolder func() KeyHolder, entryMax, minRounds, maxRounds int, goal, hardCap, outputsThreshold int, fee FeeEstimator) *Planner {
	return &Planner{
		src:              src,
		collateral:       collateral,
		wallet:           wallet,
		keyHolder:        keyHolder,
		entryMax:         entryMax,
		minRounds:        minRounds,
		maxRounds:        maxRounds,
		goal:             goal,
		hardCap:          hardCap,
		outputsThreshold: outputsThreshold,
		fee:              fee,
	}
}

var _ session.EntryBuilder = (*Planner)(nil)

// PrepareEntry implements session.EntryBuilder.
func (p *Planner) PrepareEntry(code int32, dryRun bool) (*session.Entry, error) {
	amt, ok := denomAmount(code)
	if !ok {
		return nil, ErrNoCandidateGroup
	}

	inputs := p.src.DenominatedInputsOf(amt)
	kh := p.keyHolder()

	entry, err := prepareDenominate(inputs, p.minRounds, p.maxRounds, p.entryMax, amt, kh, dryRun)
	if err != nil {
		kh.ReturnAll()
		return nil, err
	}
	if !dryRun {
		collateral, err := p.collateral.Collateral()
		if err != nil {
			kh.ReturnAll()
			return nil, err
		}
		entry.Collateral = collateral

		for _, op := range entry.LockedOutpoints {
			p.wallet.LockOutpoint(op)
		}
	}
	return entry, nil
}

// prepareDenominate implements §4.1.4: walk inputs in the order given, skip
// out-of-range rounds, accept up to entryMax inputs with a 1-in-5 skip
// chance after the first, and reserve a destination per accepted input.
func prepareDenominate(inputs []DenomInput, minRounds, maxRounds, entryMax int, amt dcrutil.Amount, kh KeyHolder, dryRun bool) (*session.Entry, error) {
	entry := &session.Entry{}
	accepted := 0

	for _, in := range inputs {
		if accepted >= entryMax {
			break
		}
		if in.Rounds < minRounds || in.Rounds > maxRounds {
			continue
		}
		if accepted > 0 && rand.Int32N(skipProbability) == 0 {
			continue
		}

		var script []byte
		if dryRun {
			script = []byte{}
		} else {
			s, err := kh.ReserveDestination()
			if err != nil {
				continue
			}
			script = s
		}

		entry.Inputs = append(entry.Inputs, wire.NewTxIn(&in.Outpoint, int64(in.Amount), in.PkScript))
		entry.Outputs = append(entry.Outputs, wire.NewTxOut(int64(amt), script))
		entry.LockedOutpoints = append(entry.LockedOutpoints, in.Outpoint)
		entry.ReservedScripts = append(entry.ReservedScripts, script)
		accepted++
	}

	if accepted == 0 {
		return nil, ErrCannotPrepare
	}
	return entry, nil
}
