// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package selector implements random mixer-node selection and the
// insertion-ordered used-node bookkeeping that keeps a wallet from
// repeatedly mixing through the same handful of nodes.
package selector

import (
	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/node"
)

// UsedNodes is an insertion-ordered set of node collateral outpoints a
// wallet has already mixed through, trimmed periodically so old entries
// eventually become eligible again.
type UsedNodes struct {
	order []wire.OutPoint
	set   map[wire.OutPoint]struct{}
}

// NewUsedNodes returns an empty used-node set.
func NewUsedNodes() *UsedNodes {
	return &UsedNodes{set: make(map[wire.OutPoint]struct{})}
}

// Add records op as used, appending it to the insertion order.
func (u *UsedNodes) Add(op wire.OutPoint) {
	if _, ok := u.set[op]; ok {
		return
	}
	u.order = append(u.order, op)
	u.set[op] = struct{}{}
}

// Contains reports whether op has already been used.
func (u *UsedNodes) Contains(op wire.OutPoint) bool {
	_, ok := u.set[op]
	return ok
}

// Len returns the number of tracked outpoints.
func (u *UsedNodes) Len() int {
	return len(u.order)
}

// Trim enforces the compaction rule: once the set exceeds 0.9*validCount,
// the oldest entries are dropped until it reaches 0.63*validCount
// (0.7 * 0.9 * validCount).
func (u *UsedNodes) Trim(validCount uint32) {
	hi := float64(validCount) * 0.9
	if float64(len(u.order)) <= hi {
		return
	}
	lo := int(float64(validCount) * 0.63)
	if lo < 0 {
		lo = 0
	}
	drop := len(u.order) - lo
	if drop <= 0 {
		return
	}
	for _, op := range u.order[:drop] {
		delete(u.set, op)
	}
	remaining := make([]wire.OutPoint, len(u.order)-drop)
	copy(remaining, u.order[drop:])
	u.order = remaining
}

// GetRandomNotUsedMasternode returns a uniformly random node from registry
// that is not a member of used, or nil if fewer than one unused node
// remains. Shuffling uses the package's cryptographically secure PRNG, not
// a deterministic or chain-seeded one.
func GetRandomNotUsedMasternode(registry node.Registry, used *UsedNodes) *node.Node {
	valid := registry.Valid()
	e := len(valid)
	u := used.Len()
	if e-u < 1 {
		return nil
	}

	shuffled := make([]*node.Node, e)
	copy(shuffled, valid)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, n := range shuffled {
		if !used.Contains(n.Collateral) {
			return n
		}
	}
	return nil
}
