// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"fmt"
	"io"
)

// PoolState mirrors the mixer node's view of pool progress, reported to the
// client in every StatusUpdate.
type PoolState uint8

// Valid PoolState values.
const (
	PoolStateIdle PoolState = iota
	PoolStateQueue
	PoolStateAccepting
	PoolStateSigning
	PoolStateError

	numPoolStates
)

// Valid reports whether s is a defined PoolState.
func (s PoolState) Valid() bool { return s < numPoolStates }

// MessageStatus classifies a StatusUpdate.
type MessageStatus uint8

// Valid MessageStatus values.
const (
	StatusUnknown MessageStatus = iota
	StatusAccepted
	StatusRejected
	StatusConnecting
	StatusConnected

	numMessageStatuses
)

// Valid reports whether s is a defined MessageStatus.
func (s MessageStatus) Valid() bool { return s < numMessageStatuses }

// StatusUpdate is the "dssu" message: the mixer node reporting session
// progress, an assigned session id, or rejection.
type StatusUpdate struct {
	SessionID uint64
	State     PoolState
	Status    MessageStatus
	MessageID uint32
}

var _ Message = (*StatusUpdate)(nil)

// Command implements Message.
func (s *StatusUpdate) Command() string { return CmdStatusUpdate }

// Validate checks that State and Status hold defined enum values, per §4.2.2
// "validate enum bounds".
func (s *StatusUpdate) Validate() error {
	if !s.State.Valid() {
		return fmt.Errorf("status update: invalid pool state %d", s.State)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("status update: invalid message status %d", s.Status)
	}
	return nil
}

// Encode implements Message.
func (s *StatusUpdate) Encode(w io.Writer) error {
	if err := writeUint64(w, s.SessionID); err != nil {
		return err
	}
	if err := writeUint8(w, uint8(s.State)); err != nil {
		return err
	}
	if err := writeUint8(w, uint8(s.Status)); err != nil {
		return err
	}
	return writeUint32(w, s.MessageID)
}

// Decode implements Message.
func (s *StatusUpdate) Decode(r io.Reader) error {
	sid, err := readUint64(r)
	if err != nil {
		return err
	}
	state, err := readUint8(r)
	if err != nil {
		return err
	}
	status, err := readUint8(r)
	if err != nil {
		return err
	}
	msgID, err := readUint32(r)
	if err != nil {
		return err
	}
	s.SessionID = sid
	s.State = PoolState(state)
	s.Status = MessageStatus(status)
	s.MessageID = msgID
	return nil
}
