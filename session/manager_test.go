// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"testing"
	"time"

	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/mixmsg"
	"github.com/submix/submix/node"
	"github.com/submix/submix/queue"
)

type fakeChain struct{ synced bool }

func (c fakeChain) Synced() bool { return c.synced }

type fakeWalletState struct{ locked bool }

func (w fakeWalletState) Locked() bool { return w.locked }

type fakeDenominator struct {
	acted bool
	err   error
}

func (d *fakeDenominator) EnsureDenominated(dcrutil.Amount, bool) (bool, error) {
	return d.acted, d.err
}

type fakeSender struct {
	sent []string
}

func (s *fakeSender) SendEntry(addr string, entry *mixmsg.Entry) {
	s.sent = append(s.sent, addr)
}

func TestDoAutomaticDenominatingGrowsAndBinds(t *testing.T) {
	n := testNode(10)
	reg := &fakeRegistry{nodes: []*node.Node{n}}
	pool := queue.New(reg, nullScorer{})
	builder := &fakeBuilder{entry: &Entry{Collateral: wire.NewMsgTx()}}

	m := NewManager(reg, pool, builder, &fakeDenominator{}, &fakeSender{}, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 3, &chaincfg.Params{})
	m.StartMixing()

	acted := m.DoAutomaticDenominating(fakeChain{synced: true}, fakeWalletState{locked: false}, func() (int32, bool) { return 0, true }, 0, false)
	if !acted {
		t.Fatal("expected a session to successfully start a queue")
	}

	statuses := m.GetStatuses()
	if len(statuses) != 1 || statuses[0].State != Queue {
		t.Fatalf("statuses = %+v, want one Queue session", statuses)
	}
}

func TestDoAutomaticDenominatingSkipsWhenNotSynced(t *testing.T) {
	n := testNode(11)
	reg := &fakeRegistry{nodes: []*node.Node{n}}
	pool := queue.New(reg, nullScorer{})
	builder := &fakeBuilder{entry: &Entry{Collateral: wire.NewMsgTx()}}

	m := NewManager(reg, pool, builder, &fakeDenominator{}, &fakeSender{}, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 3, &chaincfg.Params{})
	m.StartMixing()

	acted := m.DoAutomaticDenominating(fakeChain{synced: false}, fakeWalletState{}, func() (int32, bool) { return 0, true }, 0, false)
	if acted {
		t.Fatal("expected no action while unsynced")
	}
	if len(m.GetStatuses()) != 0 {
		t.Fatal("expected no sessions created while unsynced")
	}
}

func TestStartStopMixing(t *testing.T) {
	n := testNode(12)
	reg := &fakeRegistry{nodes: []*node.Node{n}}
	pool := queue.New(reg, nullScorer{})
	builder := &fakeBuilder{entry: &Entry{Collateral: wire.NewMsgTx()}}

	m := NewManager(reg, pool, builder, &fakeDenominator{}, &fakeSender{}, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 3, &chaincfg.Params{})

	if !m.StartMixing() {
		t.Fatal("expected StartMixing to report a transition")
	}
	if m.StartMixing() {
		t.Fatal("expected second StartMixing to report no transition")
	}
	if !m.Mixing() {
		t.Fatal("expected Mixing() true")
	}
	m.StopMixing()
	if m.Mixing() {
		t.Fatal("expected Mixing() false after StopMixing")
	}
}

func TestTrySubmitDenominateRoutesToBoundSession(t *testing.T) {
	n := testNode(13)
	reg := &fakeRegistry{nodes: []*node.Node{n}}
	pool := queue.New(reg, nullScorer{})
	builder := &fakeBuilder{entry: &Entry{Collateral: wire.NewMsgTx()}}
	sender := &fakeSender{}

	m := NewManager(reg, pool, builder, &fakeDenominator{}, sender, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 3, &chaincfg.Params{})
	m.StartMixing()
	m.DoAutomaticDenominating(fakeChain{synced: true}, fakeWalletState{}, func() (int32, bool) { return 0, true }, 0, false)

	if !m.TrySubmitDenominate(n.Addr.String()) {
		t.Fatal("expected the bound session to accept the ready dispatch")
	}

	statuses := m.GetStatuses()
	if len(statuses) != 1 || statuses[0].State != Accepting {
		t.Fatalf("statuses = %+v, want one Accepting session", statuses)
	}
	if len(sender.sent) != 1 || sender.sent[0] != n.Addr.String() {
		t.Fatalf("sender.sent = %v, want one send to %s", sender.sent, n.Addr.String())
	}
}

func TestCheckTimeoutAdvancesSessions(t *testing.T) {
	n := testNode(14)
	reg := &fakeRegistry{nodes: []*node.Node{n}}
	pool := queue.New(reg, nullScorer{})
	builder := &fakeBuilder{entry: &Entry{Collateral: wire.NewMsgTx()}}

	m := NewManager(reg, pool, builder, &fakeDenominator{}, &fakeSender{}, &fakeWallet{}, func() KeyHolder { return &fakeKeyHolder{} }, 3, &chaincfg.Params{})
	m.StartMixing()
	m.DoAutomaticDenominating(fakeChain{synced: true}, fakeWalletState{}, func() (int32, bool) { return 0, true }, 0, false)

	m.CheckTimeout(time.Now().Add(QueueTimeout + LagGrace + time.Second))

	statuses := m.GetStatuses()
	if len(statuses) != 1 || statuses[0].State != Error {
		t.Fatalf("statuses = %+v, want one Error session", statuses)
	}
}
