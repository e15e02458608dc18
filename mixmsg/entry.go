// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"io"

	"github.com/decred/dcrd/wire"
)

// Entry is the "dsi" message: a client's partial contribution to a mixing
// round -- the inputs it offers to spend, the denominated outputs it wants
// created, and its collateral transaction.
type Entry struct {
	SessionID    uint64
	Inputs       []*wire.TxIn
	Outputs      []*wire.TxOut
	CollateralTx *wire.MsgTx
}

var _ Message = (*Entry)(nil)

// Command implements Message.
func (e *Entry) Command() string { return CmdEntry }

// Encode implements Message.
func (e *Entry) Encode(w io.Writer) error {
	if err := writeUint64(w, e.SessionID); err != nil {
		return err
	}
	if err := writeTxIns(w, e.Inputs); err != nil {
		return err
	}
	if err := writeTxOuts(w, e.Outputs); err != nil {
		return err
	}
	return writeTx(w, e.CollateralTx)
}

// Decode implements Message.
func (e *Entry) Decode(r io.Reader) error {
	sid, err := readUint64(r)
	if err != nil {
		return err
	}
	ins, err := readTxIns(r)
	if err != nil {
		return err
	}
	outs, err := readTxOuts(r)
	if err != nil {
		return err
	}
	tx, err := readTx(r)
	if err != nil {
		return err
	}
	e.SessionID = sid
	e.Inputs = ins
	e.Outputs = outs
	e.CollateralTx = tx
	return nil
}
