// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"io"

	"github.com/decred/dcrd/wire"
)

// Signatures is the "dss" message: the client's signed inputs for a final
// transaction it has validated and agreed to cosign.
type Signatures struct {
	SessionID    uint64
	SignedInputs []*wire.TxIn
}

var _ Message = (*Signatures)(nil)

// Command implements Message.
func (s *Signatures) Command() string { return CmdSignatures }

// Encode implements Message.
func (s *Signatures) Encode(w io.Writer) error {
	if err := writeUint64(w, s.SessionID); err != nil {
		return err
	}
	return writeTxIns(w, s.SignedInputs)
}

// Decode implements Message.
func (s *Signatures) Decode(r io.Reader) error {
	sid, err := readUint64(r)
	if err != nil {
		return err
	}
	ins, err := readTxIns(r)
	if err != nil {
		return err
	}
	s.SessionID = sid
	s.SignedInputs = ins
	return nil
}
