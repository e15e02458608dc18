// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node describes the client's view of a mixer node and the
// registry used to validate and select one.
package node

import (
	"net"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/wire"
)

// Node is an immutable, per-tip view of a registered mixer node.
type Node struct {
	// ID is the node's protocol registration transaction hash.
	ID chainhash.Hash

	// Collateral is the outpoint the node has committed as its own
	// registration collateral.
	Collateral wire.OutPoint

	// Addr is the node's network address.
	Addr net.Addr

	// OperatorKey verifies signatures the node makes over QueueOffer
	// messages.
	OperatorKey *secp256k1.PublicKey

	// LastPaidHeight is the block height at which this node was last
	// selected as a payment winner, used by the winners-skip window.
	LastPaidHeight uint32
}

// Registry is the authoritative "valid node list at tip", an external
// collaborator (out of scope per the engine's purpose) that this package
// only consumes through this interface.
type Registry interface {
	// Valid returns every node considered valid at the current tip.
	Valid() []*Node

	// ByCollateral looks up a node by its registration collateral
	// outpoint.
	ByCollateral(op wire.OutPoint) (*Node, bool)

	// ByID looks up a node by its registration hash.
	ByID(id chainhash.Hash) (*Node, bool)

	// WeightedValidCount returns the weighted count of currently valid
	// nodes used by the winners-skip window calculation.
	WeightedValidCount() uint32
}
