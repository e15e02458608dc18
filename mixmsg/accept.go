// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"io"

	"github.com/decred/dcrd/wire"
)

// Accept is the "dsa" message: a client's request to join a mixer node's
// queue for a given denomination, carrying the draft collateral transaction
// that pays the node's penalty fee on misbehavior.
type Accept struct {
	Denom        int32
	CollateralTx *wire.MsgTx
}

var _ Message = (*Accept)(nil)

// Command implements Message.
func (a *Accept) Command() string { return CmdAccept }

// Encode implements Message.
func (a *Accept) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(a.Denom)); err != nil {
		return err
	}
	return writeTx(w, a.CollateralTx)
}

// Decode implements Message.
func (a *Accept) Decode(r io.Reader) error {
	denom, err := readUint32(r)
	if err != nil {
		return err
	}
	tx, err := readTx(r)
	if err != nil {
		return err
	}
	a.Denom = int32(denom)
	a.CollateralTx = tx
	return nil
}
