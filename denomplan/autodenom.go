// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denomplan

import (
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/denom"
	"github.com/submix/submix/session"
)

var _ session.Denominator = (*Planner)(nil)

// EnsureDenominated implements session.Denominator. It is the wallet-level
// counterpart to Session's own automatic-denominating step: given the
// wallet's currently configured anonymize target, it tops up standardized
// denomination outputs via CreateDenominated and makes sure a spendable
// collateral transaction exists, reporting whether it committed a
// denominating transaction.
func (p *Planner) EnsureDenominated(target dcrutil.Amount, dryRun bool) (bool, error) {
	needsAnonymized := target - p.src.AlreadyAnonymized()
	if needsAnonymized <= 0 {
		return false, nil
	}

	minRequired := denom.Smallest()
	if !p.src.HasCollateralInput() {
		minRequired += denom.MaxCollateralAmount
	}

	// Tail-overshoot rule: if the wallet already holds more denominated
	// funds than it still needs anonymized, needsAnonymized is raised by
	// the smallest standard denom. The raised amount is not read again:
	// it is neither passed to CreateDenominated nor returned, and the
	// CreateDenominated call below is gated only on minRequired.
	if p.src.AlreadyDenominated() > needsAnonymized {
		needsAnonymized += denom.Smallest()
	}

	acted := false
	if p.src.AnonymizableNonDenominated() >= minRequired {
		groups := p.src.NonDenominatedGroups()
		tx, _, err := CreateDenominated(groups, p.src.HasCollateralInput(), p.goal, p.hardCap, p.outputsThreshold, p.fee)
		switch err {
		case nil:
			if !dryRun {
				if err := p.commitDenominated(tx); err != nil {
					return false, err
				}
			}
			acted = true
		case ErrInsufficientFunds, ErrNoCandidateGroup:
			// Nothing denominatable this pass; still make sure the
			// collateral transaction below is valid.
		default:
			return false, err
		}
	}

	if !dryRun {
		if _, err := p.collateral.Collateral(); err != nil {
			return acted, err
		}
	}
	return acted, nil
}

// commitDenominated reserves a fresh destination for every output
// CreateDenominated left without one, then signs and commits tx.
func (p *Planner) commitDenominated(tx *wire.MsgTx) error {
	kh := p.keyHolder()
	for _, out := range tx.TxOut {
		if len(out.PkScript) != 0 {
			continue
		}
		script, err := kh.ReserveDestination()
		if err != nil {
			kh.ReturnAll()
			return err
		}
		out.PkScript = script
	}
	if err := p.wallet.SignAndCommit(tx); err != nil {
		kh.ReturnAll()
		return err
	}
	kh.KeepAll()
	return nil
}
