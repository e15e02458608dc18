// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"io"

	"github.com/decred/dcrd/wire"
)

// FinalTx is the "dsf" message: the mixer node's proposed joint transaction,
// sent to every contributing client for cosigning.
type FinalTx struct {
	SessionID uint64
	Tx        *wire.MsgTx
}

var _ Message = (*FinalTx)(nil)

// Command implements Message.
func (f *FinalTx) Command() string { return CmdFinalTx }

// Encode implements Message.
func (f *FinalTx) Encode(w io.Writer) error {
	if err := writeUint64(w, f.SessionID); err != nil {
		return err
	}
	return writeTx(w, f.Tx)
}

// Decode implements Message.
func (f *FinalTx) Decode(r io.Reader) error {
	sid, err := readUint64(r)
	if err != nil {
		return err
	}
	tx, err := readTx(r)
	if err != nil {
		return err
	}
	f.SessionID = sid
	f.Tx = tx
	return nil
}
