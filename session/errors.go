// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import "errors"

var (
	// errNotIdle is returned when an operation is attempted in a state
	// that does not allow it: a queue start outside IDLE, a submit outside
	// QUEUE, or a final tx outside ACCEPTING.
	errNotIdle = errors.New("session: not idle")

	// errNoCandidateNode is returned when no eligible node could be
	// found to start or join a queue.
	errNoCandidateNode = errors.New("session: no candidate node")

	// errCannotPrepare mirrors the denomination planner's own error
	// for an entry that ended up empty.
	errCannotPrepare = errors.New("session: could not prepare any entry inputs")

	// errWrongPeer is returned when a message arrives claiming to be
	// from a node other than the one this Session is bound to.
	errWrongPeer = errors.New("session: message from unbound peer")

	// errWrongSession is returned when a message's session id does not
	// match the Session's assigned id.
	errWrongSession = errors.New("session: session id mismatch")

	// errRejected is returned when the bound node reports a rejected
	// status.
	errRejected = errors.New("session: rejected by node")

	// errMissingOwnOutput is returned when a FinalTx omits one of the
	// Session's own contributed outputs.
	errMissingOwnOutput = errors.New("session: final tx missing own output")

	// errMissingOwnInput is returned when a FinalTx omits one of the
	// Session's own contributed inputs.
	errMissingOwnInput = errors.New("session: final tx missing own input")

	// errNonCanonicalOrder is returned when the re-sorted final tx does
	// not hash to the same value as the tx as received, i.e. the node did
	// not send it in canonical order.
	errNonCanonicalOrder = errors.New("session: final tx hash mismatch after canonical sort")

	// errNonStandardOutput is returned when a final tx contains an output
	// script that is not a standard v0 P2PKH or P2SH script.
	errNonStandardOutput = errors.New("session: final tx contains non-standard output script")

	// errMessageIDRange is returned when a Complete message's id is below
	// the Session's minimum message id. That minimum starts at 0 and no
	// code path raises it, so no id is rejected by this check.
	errMessageIDRange = errors.New("session: message id out of range")
)
