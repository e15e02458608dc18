// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denom

import (
	"testing"

	"github.com/decred/dcrd/dcrutil/v4"
)

func TestAmountToDenomRoundTrip(t *testing.T) {
	for _, code := range Codes() {
		amount, ok := DenomToAmount(code)
		if !ok {
			t.Fatalf("DenomToAmount(%d): not ok", code)
		}
		gotCode, ok := AmountToDenom(amount)
		if !ok {
			t.Fatalf("AmountToDenom(%d): not ok", amount)
		}
		if gotCode != code {
			t.Fatalf("round trip: got code %d, want %d", gotCode, code)
		}
	}
}

func TestIsDenomination(t *testing.T) {
	if !IsDenomination(Largest()) {
		t.Fatal("largest denomination not recognized")
	}
	if !IsDenomination(Smallest()) {
		t.Fatal("smallest denomination not recognized")
	}
	if IsDenomination(CollateralAmount) {
		t.Fatal("collateral amount must not be a denomination")
	}
	if IsDenomination(Smallest() + 1) {
		t.Fatal("off-by-one amount must not be a denomination")
	}
}

func TestIsCollateral(t *testing.T) {
	cases := []struct {
		amount dcrutil.Amount
		want   bool
	}{
		{CollateralAmount, true},
		{MaxCollateralAmount, true},
		{CollateralAmount - 1, false},
		{MaxCollateralAmount + 1, false},
		{(CollateralAmount + MaxCollateralAmount) / 2, true},
	}
	for _, c := range cases {
		if got := IsCollateral(c.amount); got != c.want {
			t.Errorf("IsCollateral(%d) = %v, want %v", c.amount, got, c.want)
		}
	}
}
