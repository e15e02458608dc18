// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import "errors"

var (
	// ErrMissingNodeReference is returned by QueueOffer.Validate if neither
	// NodeCollateral nor NodeID is present.
	ErrMissingNodeReference = errors.New("queue offer references no node")

	// ErrTimestampOutOfBounds is returned by QueueOffer.Validate if the
	// offer's timestamp is not within QUEUE_TIMEOUT of the reference time.
	ErrTimestampOutOfBounds = errors.New("queue offer timestamp out of bounds")

	// ErrInvalidSignature is returned when a QueueOffer's signature does
	// not verify against the claimed operator public key.
	ErrInvalidSignature = errors.New("queue offer signature is invalid")
)
