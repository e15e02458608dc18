// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package denomplan prepares a wallet for mixing: it splits ordinary
// funds into standardized denomination outputs, maintains a stockpile of
// small collateral outputs used to penalize protocol misbehavior, and
// selects denominated inputs for a chosen mixing round.
package denomplan

import (
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"
)

// CoinGroup is a wallet-grouped tally of spendable coins controlled by a
// single address, the unit MakeCollateralAmounts and CreateDenominated
// operate over.
type CoinGroup struct {
	Address     string
	Inputs      []DenomInput
	Amount      dcrutil.Amount
	Denominated bool
}

// DenomInput is a single selectable coin: either already denominated, a
// collateral output, or a plain non-denominated UTXO, depending on
// context.
type DenomInput struct {
	Outpoint wire.OutPoint
	Amount   dcrutil.Amount
	PkScript []byte
	// Rounds is the coin's mixing depth, used by §4.1.3 input filtering.
	Rounds int
}

// FeeEstimator estimates the fee, in atoms, for a transaction of the
// given serialize size.
type FeeEstimator interface {
	EstimateFee(size int) dcrutil.Amount
}

// CoinSource supplies the coin groups and denominated inputs the planner
// selects from. It is the wallet's coin-storage layer, out of scope for
// this package beyond this interface.
type CoinSource interface {
	// NonDenominatedGroups returns coin groups containing only
	// non-denominated, non-collateral-sized funds, smallest balance
	// first.
	NonDenominatedGroups() []CoinGroup

	// SpendableGroups returns every coin group regardless of
	// denomination status, largest balance first.
	SpendableGroups() []CoinGroup

	// DenominatedInputsOf returns every input at the given denomination
	// amount, already shuffled.
	DenominatedInputsOf(amount dcrutil.Amount) []DenomInput

	// HasCollateralInput reports whether the wallet holds at least one
	// unspent collateral-sized output.
	HasCollateralInput() bool

	// AlreadyAnonymized returns the wallet's current anonymized balance:
	// denomination outputs that have reached the mixing-depth target.
	AlreadyAnonymized() dcrutil.Amount

	// AlreadyDenominated returns the wallet's current total held in
	// standardized denomination outputs, regardless of mixing depth.
	AlreadyDenominated() dcrutil.Amount

	// AnonymizableNonDenominated returns the portion of the wallet's
	// non-denominated balance eligible to be turned into denomination
	// outputs.
	AnonymizableNonDenominated() dcrutil.Amount
}

// KeyHolder reserves fresh change/output destinations and can release or
// keep them in bulk. It satisfies session.KeyHolder's ReturnAll/KeepAll
// requirement structurally.
type KeyHolder interface {
	ReserveDestination() ([]byte, error)
	ReturnAll()
	KeepAll()
}

// Wallet is the subset of signing and coin-locking functionality the
// planner needs to commit a built transaction.
type Wallet interface {
	SignAndCommit(tx *wire.MsgTx) error
	LockOutpoint(op wire.OutPoint)
}
