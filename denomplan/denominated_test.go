// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denomplan

import (
	"testing"

	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/denom"
)

func TestCreateDenominatedFillsTowardGoal(t *testing.T) {
	groups := []CoinGroup{{
		Address: "addr1",
		Amount:  10 * denom.Coin,
		Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: 10 * denom.Coin}},
	}}

	tx, counts, err := CreateDenominated(groups, true, 5, 10, 50, zeroFee{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tx.TxOut) == 0 {
		t.Fatal("expected at least one output")
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		t.Fatal("expected at least one denominated output created")
	}
	for code, n := range counts {
		if n > 10 {
			amt, _ := denom.DenomToAmount(code)
			if amt != denom.Largest() {
				t.Fatalf("denom %v count %d exceeds hard cap of 10", code, n)
			}
		}
	}
}

func TestCreateDenominatedNoCandidates(t *testing.T) {
	if _, _, err := CreateDenominated(nil, true, 5, 10, 50, zeroFee{}); err != ErrNoCandidateGroup {
		t.Fatalf("got %v, want ErrNoCandidateGroup", err)
	}
}

func TestCreateDenominatedInsufficientFunds(t *testing.T) {
	groups := []CoinGroup{{
		Address: "addr1",
		Amount:  denom.MaxCollateralAmount,
		Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: denom.MaxCollateralAmount}},
	}}
	if _, _, err := CreateDenominated(groups, false, 5, 10, 50, zeroFee{}); err != ErrInsufficientFunds {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
}
