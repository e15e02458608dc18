// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package queue

import "errors"

var (
	// errNoNodeReference is returned when an offer names neither a
	// node collateral nor a node id.
	errNoNodeReference = errors.New("queue: offer names no node")

	// errUnknownNode is returned when an offer's node id cannot be
	// resolved to a collateral outpoint in the valid-node list.
	errUnknownNode = errors.New("queue: unknown node id")

	// errDuplicateOffer is returned when an identical offer already
	// occupies the queue.
	errDuplicateOffer = errors.New("queue: duplicate offer")

	// errRateLimited is returned when a second offer for the same node
	// and readiness already occupies the queue.
	errRateLimited = errors.New("queue: rate limited")

	// errStaleOffer is returned when the offer's timestamp falls
	// outside the queue timeout window.
	errStaleOffer = errors.New("queue: stale timestamp")

	// errBadSignature is returned when the offer's signature fails to
	// verify against the node's operator key.
	errBadSignature = errors.New("queue: signature verification failed")

	// errThrottled is returned when the node has not yet crossed its
	// dsq rate-limit threshold.
	errThrottled = errors.New("queue: node throttled")
)
