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

type balanceCoinSource struct {
	groups             []CoinGroup
	hasCollateral      bool
	alreadyAnonymized  dcrutil.Amount
	alreadyDenominated dcrutil.Amount
	anonymizableNonDen dcrutil.Amount
}

func (b *balanceCoinSource) NonDenominatedGroups() []CoinGroup { return b.groups }
func (b *balanceCoinSource) SpendableGroups() []CoinGroup      { return b.groups }
func (b *balanceCoinSource) HasCollateralInput() bool          { return b.hasCollateral }
func (b *balanceCoinSource) DenominatedInputsOf(dcrutil.Amount) []DenomInput { return nil }
func (b *balanceCoinSource) AlreadyAnonymized() dcrutil.Amount         { return b.alreadyAnonymized }
func (b *balanceCoinSource) AlreadyDenominated() dcrutil.Amount        { return b.alreadyDenominated }
func (b *balanceCoinSource) AnonymizableNonDenominated() dcrutil.Amount { return b.anonymizableNonDen }

func TestEnsureDenominatedIdlesWhenTargetMet(t *testing.T) {
	src := &balanceCoinSource{alreadyAnonymized: 10 * denom.Coin}
	coll := &fakeCollateralSource{tx: wire.NewMsgTx()}
	p := NewPlanner(src, coll, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 10, 0, 16, 5, 10, 50, zeroFee{})

	acted, err := p.EnsureDenominated(5*denom.Coin, false)
	if err != nil {
		t.Fatal(err)
	}
	if acted {
		t.Fatal("expected no action once the anonymize target is already met")
	}
}

func TestEnsureDenominatedBuildsAndCommits(t *testing.T) {
	groups := []CoinGroup{{
		Address: "addr1",
		Amount:  10 * denom.Coin,
		Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: 10 * denom.Coin}},
	}}
	src := &balanceCoinSource{
		groups:             groups,
		hasCollateral:      true,
		anonymizableNonDen: 10 * denom.Coin,
	}
	coll := &fakeCollateralSource{tx: wire.NewMsgTx()}
	wallet := &fakeWallet{}
	p := NewPlanner(src, coll, wallet, func() KeyHolder { return &fakeKeyHolder{} }, 10, 0, 16, 5, 10, 50, zeroFee{})

	acted, err := p.EnsureDenominated(5*denom.Coin, false)
	if err != nil {
		t.Fatal(err)
	}
	if !acted {
		t.Fatal("expected EnsureDenominated to build and commit a denominating transaction")
	}
}

func TestEnsureDenominatedSkipsCreateWhenBelowMinimum(t *testing.T) {
	src := &balanceCoinSource{
		hasCollateral:      true,
		anonymizableNonDen: denom.Smallest() - 1,
	}
	coll := &fakeCollateralSource{tx: wire.NewMsgTx()}
	p := NewPlanner(src, coll, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 10, 0, 16, 5, 10, 50, zeroFee{})

	acted, err := p.EnsureDenominated(5*denom.Coin, false)
	if err != nil {
		t.Fatal(err)
	}
	if acted {
		t.Fatal("expected no CreateDenominated call below the minimum mixable balance")
	}
}

func TestEnsureDenominatedPropagatesCollateralFailure(t *testing.T) {
	src := &balanceCoinSource{hasCollateral: true}
	wantErr := ErrNoCandidateGroup
	coll := &fakeCollateralSource{err: wantErr}
	p := NewPlanner(src, coll, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 10, 0, 16, 5, 10, 50, zeroFee{})

	if _, err := p.EnsureDenominated(5*denom.Coin, false); err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestEnsureDenominatedDryRunSkipsCommitAndCollateral(t *testing.T) {
	groups := []CoinGroup{{
		Address: "addr1",
		Amount:  10 * denom.Coin,
		Inputs:  []DenomInput{{Outpoint: wire.OutPoint{Index: 0}, Amount: 10 * denom.Coin}},
	}}
	src := &balanceCoinSource{
		groups:             groups,
		hasCollateral:      true,
		anonymizableNonDen: 10 * denom.Coin,
	}
	coll := &fakeCollateralSource{err: ErrNoCandidateGroup}
	wallet := &fakeWallet{}
	p := NewPlanner(src, coll, wallet, func() KeyHolder { return &fakeKeyHolder{} }, 10, 0, 16, 5, 10, 50, zeroFee{})

	acted, err := p.EnsureDenominated(5*denom.Coin, true)
	if err != nil {
		t.Fatal(err)
	}
	if !acted {
		t.Fatal("expected dry run to still report it would have built a denominating transaction")
	}
	if len(wallet.locked) != 0 {
		t.Fatal("dry run must not touch the wallet")
	}
}
