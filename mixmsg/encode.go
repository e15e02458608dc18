// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"encoding/binary"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"
)

// pver is the protocol version passed through to wire's varint/varbytes
// helpers. Messages in this package do not use protocol-version gated
// fields, so a fixed value is used throughout.
const pver = 0

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func readUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

func writeBool(w io.Writer, v bool) error {
	if v {
		return writeUint8(w, 1)
	}
	return writeUint8(w, 0)
}

func readBool(r io.Reader) (bool, error) {
	v, err := readUint8(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func writeInt64(w io.Writer, v int64) error {
	return writeUint64(w, uint64(v))
}

func readInt64(r io.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

func writeHash(w io.Writer, h chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

func readHash(r io.Reader) (chainhash.Hash, error) {
	var h chainhash.Hash
	_, err := io.ReadFull(r, h[:])
	return h, err
}

// writeOutPoint writes a wire.OutPoint in a fixed-size encoding. OutPoint is
// a plain value type (hash, index, tree) in the upstream wire package; this
// repo encodes it directly rather than relying on wire's package-private
// transaction-context-aware helpers.
func writeOutPoint(w io.Writer, op wire.OutPoint) error {
	if err := writeHash(w, op.Hash); err != nil {
		return err
	}
	if err := writeUint32(w, op.Index); err != nil {
		return err
	}
	return writeUint8(w, uint8(op.Tree))
}

func readOutPoint(r io.Reader) (wire.OutPoint, error) {
	var op wire.OutPoint
	h, err := readHash(r)
	if err != nil {
		return op, err
	}
	idx, err := readUint32(r)
	if err != nil {
		return op, err
	}
	tree, err := readUint8(r)
	if err != nil {
		return op, err
	}
	op.Hash = h
	op.Index = idx
	op.Tree = int8(tree)
	return op, nil
}

func writeVarBytes(w io.Writer, b []byte) error {
	return wire.WriteVarBytes(w, pver, b)
}

func readVarBytes(r io.Reader, maxLen uint32, fieldName string) ([]byte, error) {
	return wire.ReadVarBytes(r, pver, maxLen, fieldName)
}

func writeTx(w io.Writer, tx *wire.MsgTx) error {
	var present uint8
	if tx != nil {
		present = 1
	}
	if err := writeUint8(w, present); err != nil {
		return err
	}
	if tx == nil {
		return nil
	}
	return tx.Serialize(w)
}

func readTx(r io.Reader) (*wire.MsgTx, error) {
	present, err := readUint8(r)
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	tx := wire.NewMsgTx()
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	return tx, nil
}

func writeTxIns(w io.Writer, ins []*wire.TxIn) error {
	if err := wire.WriteVarInt(w, pver, uint64(len(ins))); err != nil {
		return err
	}
	for _, in := range ins {
		if err := writeOutPoint(w, in.PreviousOutPoint); err != nil {
			return err
		}
		if err := writeUint32(w, in.Sequence); err != nil {
			return err
		}
		if err := writeInt64(w, in.ValueIn); err != nil {
			return err
		}
		if err := writeVarBytes(w, in.SignatureScript); err != nil {
			return err
		}
	}
	return nil
}

const maxSigScriptLen = 16384

func readTxIns(r io.Reader) ([]*wire.TxIn, error) {
	count, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	ins := make([]*wire.TxIn, 0, count)
	for i := uint64(0); i < count; i++ {
		op, err := readOutPoint(r)
		if err != nil {
			return nil, err
		}
		seq, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		valueIn, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		sigScript, err := readVarBytes(r, maxSigScriptLen, "TxIn.SignatureScript")
		if err != nil {
			return nil, err
		}
		in := wire.NewTxIn(&op, valueIn, sigScript)
		in.Sequence = seq
		ins = append(ins, in)
	}
	return ins, nil
}

const maxPkScriptLen = 16384

func writeTxOuts(w io.Writer, outs []*wire.TxOut) error {
	if err := wire.WriteVarInt(w, pver, uint64(len(outs))); err != nil {
		return err
	}
	for _, out := range outs {
		if err := writeInt64(w, out.Value); err != nil {
			return err
		}
		if err := writeVarBytes(w, out.PkScript); err != nil {
			return err
		}
	}
	return nil
}

func readTxOuts(r io.Reader) ([]*wire.TxOut, error) {
	count, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, err
	}
	outs := make([]*wire.TxOut, 0, count)
	for i := uint64(0); i < count; i++ {
		value, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		pkScript, err := readVarBytes(r, maxPkScriptLen, "TxOut.PkScript")
		if err != nil {
			return nil, err
		}
		outs = append(outs, wire.NewTxOut(value, pkScript))
	}
	return outs, nil
}
