// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package denom defines the fixed set of standardized mixing denominations
// and collateral amounts used by the coin-mixing engine, along with the
// amount<->code mapping used throughout the protocol.
package denom

import (
	"github.com/decred/dcrd/dcrutil/v4"
)

// Code is a small integer bitmask index identifying one of the fixed
// denomination amounts.
type Code int32

// CodeNone indicates "not a denomination" / "unassigned".
const CodeNone Code = -1

// Coin is the base currency unit (1 coin = 1e8 atoms), mirroring
// dcrutil.AtomsPerCoin.
const Coin = dcrutil.Amount(dcrutil.AtomsPerCoin)

// amounts holds the fixed set of standardized denomination amounts,
// largest first. Index into this slice is the denomination's Code.
var amounts = []dcrutil.Amount{
	10 * Coin,
	1 * Coin,
	Coin / 10,
	Coin / 100,
	Coin / 1000,
}

// CollateralAmount is the smallest valid collateral output value.
const CollateralAmount = dcrutil.Amount(10000)

// MaxCollateralAmount is the largest valid collateral output value
// (quadruple the minimum), the ceiling used by MakeCollateralAmounts'
// case A/B/C output shapes.
const MaxCollateralAmount = 4 * CollateralAmount

// Amounts returns the fixed denomination table, largest first. The slice
// returned must not be mutated by callers.
func Amounts() []dcrutil.Amount {
	return amounts
}

// Count returns the number of standardized denominations.
func Count() int {
	return len(amounts)
}

// Largest returns the largest standardized denomination amount.
func Largest() dcrutil.Amount {
	return amounts[0]
}

// Smallest returns the smallest standardized denomination amount.
func Smallest() dcrutil.Amount {
	return amounts[len(amounts)-1]
}

// IsDenomination reports whether amount is exactly one of the standardized
// denomination amounts.
func IsDenomination(amount dcrutil.Amount) bool {
	_, ok := AmountToDenom(amount)
	return ok
}

// IsCollateral reports whether amount falls within the inclusive
// [CollateralAmount, MaxCollateralAmount] range used for penalty outputs.
func IsCollateral(amount dcrutil.Amount) bool {
	return amount >= CollateralAmount && amount <= MaxCollateralAmount
}

// AmountToDenom maps a denomination amount to its Code. The second return
// value is false if amount is not a standardized denomination.
func AmountToDenom(amount dcrutil.Amount) (Code, bool) {
	// amounts is small and sorted descending; a linear scan is simplest
	// and avoids maintaining a parallel map in sync with amounts.
	for i, a := range amounts {
		if a == amount {
			return Code(i), true
		}
	}
	return CodeNone, false
}

// DenomToAmount maps a Code back to its fixed denomination amount. The
// second return value is false if code is out of range.
func DenomToAmount(code Code) (dcrutil.Amount, bool) {
	if code < 0 || int(code) >= len(amounts) {
		return 0, false
	}
	return amounts[code], true
}

// ClosestAboveOrEqual returns the smallest standardized denomination that
// is greater than or equal to amount, and true if one exists.
func ClosestAboveOrEqual(amount dcrutil.Amount) (dcrutil.Amount, bool) {
	best := dcrutil.Amount(-1)
	for _, a := range amounts {
		if a >= amount && (best == -1 || a < best) {
			best = a
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// Codes returns every denomination Code, largest amount first.
func Codes() []Code {
	codes := make([]Code, len(amounts))
	for i := range amounts {
		codes[i] = Code(i)
	}
	return codes
}
