// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"
)

type memRegistry struct {
	nodes []*Node
}

func (r *memRegistry) Valid() []*Node { return r.nodes }

func (r *memRegistry) ByCollateral(op wire.OutPoint) (*Node, bool) {
	for _, n := range r.nodes {
		if n.Collateral == op {
			return n, true
		}
	}
	return nil, false
}

func (r *memRegistry) ByID(id chainhash.Hash) (*Node, bool) {
	for _, n := range r.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

func (r *memRegistry) WeightedValidCount() uint32 { return uint32(len(r.nodes)) }

var _ Registry = (*memRegistry)(nil)

func TestRegistryLookups(t *testing.T) {
	op := wire.OutPoint{Hash: chainhash.Hash{9}, Index: 1}
	id := chainhash.Hash{7}
	n := &Node{ID: id, Collateral: op}
	reg := &memRegistry{nodes: []*Node{n}}

	if got, ok := reg.ByCollateral(op); !ok || got != n {
		t.Fatalf("ByCollateral: got %v, %v", got, ok)
	}
	if got, ok := reg.ByID(id); !ok || got != n {
		t.Fatalf("ByID: got %v, %v", got, ok)
	}
	if _, ok := reg.ByCollateral(wire.OutPoint{Index: 5}); ok {
		t.Fatal("expected no match for unknown outpoint")
	}
	if got := reg.WeightedValidCount(); got != 1 {
		t.Fatalf("WeightedValidCount() = %d, want 1", got)
	}
}
