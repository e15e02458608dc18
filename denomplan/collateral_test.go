// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package denomplan

import (
	"testing"

	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/denom"
)

type zeroFee struct{}

func (zeroFee) EstimateFee(int) dcrutil.Amount { return 0 }

func TestMakeCollateralAmountsCaseA(t *testing.T) {
	groups := []CoinGroup{{
		Address: "addr1",
		Amount:  5_000_000, // 0.05 DCR
		Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: 5_000_000}},
	}}

	tx, err := MakeCollateralAmounts(groups, zeroFee{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("got %d outputs, want 2", len(tx.TxOut))
	}
	if dcrutil.Amount(tx.TxOut[0].Value) != denom.MaxCollateralAmount {
		t.Fatalf("output 0 = %d, want max collateral %d", tx.TxOut[0].Value, denom.MaxCollateralAmount)
	}
	remainder := dcrutil.Amount(tx.TxOut[1].Value)
	if denom.IsDenomination(remainder) {
		t.Fatalf("remainder output %d must not equal a denomination", remainder)
	}
}

func TestMakeCollateralAmountsSkipsCollateralSized(t *testing.T) {
	groups := []CoinGroup{{
		Address: "addr1",
		Amount:  denom.CollateralAmount,
		Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: denom.CollateralAmount}},
	}}

	if _, err := MakeCollateralAmounts(groups, zeroFee{}); err != ErrNoCandidateGroup {
		t.Fatalf("got %v, want ErrNoCandidateGroup", err)
	}
}

func TestMakeCollateralAmountsPrefersNonDenominated(t *testing.T) {
	smallestAmt := denom.Smallest()
	groups := []CoinGroup{
		{
			Address:     "denominated",
			Amount:      smallestAmt,
			Denominated: true,
			Inputs:      []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: smallestAmt}},
		},
		{
			Address: "plain",
			Amount:  5_000_000,
			Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 1}, Amount: 5_000_000}},
		},
	}

	tx, err := MakeCollateralAmounts(groups, zeroFee{})
	if err != nil {
		t.Fatal(err)
	}
	if tx.TxIn[0].PreviousOutPoint.Index != 1 {
		t.Fatalf("expected the non-denominated group to be chosen despite being larger, got input %d", tx.TxIn[0].PreviousOutPoint.Index)
	}
}

func TestMakeCollateralAmountsFallsBackToDenominated(t *testing.T) {
	smallestAmt := denom.Smallest()
	groups := []CoinGroup{{
		Address:     "denominated",
		Amount:      smallestAmt,
		Denominated: true,
		Inputs:      []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: smallestAmt}},
	}}

	tx, err := MakeCollateralAmounts(groups, zeroFee{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tx.TxOut) == 0 {
		t.Fatal("expected the fallback pass to build a collateral tx from the denominated group")
	}
}
