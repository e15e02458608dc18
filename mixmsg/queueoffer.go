// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"bytes"
	"io"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/decred/dcrd/wire"
)

// QueueTimeout bounds how far a QueueOffer's timestamp may drift from the
// receiver's clock before it is rejected.
const QueueTimeout = 40 * time.Second

// QueueOffer is the "dsq" message: a mixer node's broadcast announcement of
// a new or ready mixing session.
type QueueOffer struct {
	Denom             int32
	NodeCollateral    wire.OutPoint
	HasNodeCollateral bool
	NodeID            chainhash.Hash
	HasNodeID         bool
	Timestamp         int64
	Ready             bool
	Signature         []byte

	// Tried is local client bookkeeping (set once an offer has been
	// consumed by JoinExistingQueue or found to already be bound to a
	// session) and is never transmitted on the wire.
	Tried bool
}

var _ Message = (*QueueOffer)(nil)

// Command implements Message.
func (o *QueueOffer) Command() string { return CmdQueueOffer }

// SignedData returns the canonical serialization covered by the offer's
// signature: denom(u32) ‖ node_collateral ‖ node_id ‖ timestamp(i64) ‖
// ready(u8).
func (o *QueueOffer) SignedData() []byte {
	w := new(bytes.Buffer)
	writeUint32(w, uint32(o.Denom))
	if o.HasNodeCollateral {
		writeOutPoint(w, o.NodeCollateral)
	} else {
		writeOutPoint(w, wire.OutPoint{})
	}
	if o.HasNodeID {
		writeHash(w, o.NodeID)
	} else {
		writeHash(w, chainhash.Hash{})
	}
	writeInt64(w, o.Timestamp)
	writeBool(w, o.Ready)
	return w.Bytes()
}

// Hash returns the blake256 digest of the signed data, the value that is
// actually signed and verified.
func (o *QueueOffer) Hash() chainhash.Hash {
	return chainhash.Hash(blake256.Sum256(o.SignedData()))
}

// Sign signs the offer's canonical serialization with priv, populating
// Signature.
func (o *QueueOffer) Sign(priv *secp256k1.PrivateKey) {
	h := o.Hash()
	sig := ecdsa.Sign(priv, h[:])
	o.Signature = sig.Serialize()
}

// VerifySignature reports whether Signature is a valid signature over the
// offer's canonical serialization by pub.
func (o *QueueOffer) VerifySignature(pub *secp256k1.PublicKey) bool {
	sig, err := ecdsa.ParseDERSignature(o.Signature)
	if err != nil {
		return false
	}
	h := o.Hash()
	return sig.Verify(h[:], pub)
}

// Validate checks the structural invariants required before an offer may be
// admitted to the queue, given the current time. It does not verify the
// signature; callers must additionally call VerifySignature once the node's
// operator key has been resolved.
func (o *QueueOffer) Validate(now time.Time) error {
	if !o.HasNodeCollateral && !o.HasNodeID {
		return ErrMissingNodeReference
	}
	delta := now.Unix() - o.Timestamp
	if delta < 0 {
		delta = -delta
	}
	if time.Duration(delta)*time.Second >= QueueTimeout {
		return ErrTimestampOutOfBounds
	}
	return nil
}

// SameNodeAndReadiness reports whether o and other reference the same node
// (by whichever of NodeCollateral/NodeID both specify) and share the same
// Ready flag -- the rate-limit dedup key from §4.3 step 3.
func (o *QueueOffer) SameNodeAndReadiness(other *QueueOffer) bool {
	if o.Ready != other.Ready {
		return false
	}
	if o.HasNodeCollateral && other.HasNodeCollateral {
		return o.NodeCollateral == other.NodeCollateral
	}
	if o.HasNodeID && other.HasNodeID {
		return o.NodeID == other.NodeID
	}
	return false
}

// Equal reports whether o and other are identical offers (the plain
// duplicate-drop rule from §4.3 step 3).
func (o *QueueOffer) Equal(other *QueueOffer) bool {
	return o.Denom == other.Denom &&
		o.HasNodeCollateral == other.HasNodeCollateral &&
		o.NodeCollateral == other.NodeCollateral &&
		o.HasNodeID == other.HasNodeID &&
		o.NodeID == other.NodeID &&
		o.Timestamp == other.Timestamp &&
		o.Ready == other.Ready &&
		string(o.Signature) == string(other.Signature)
}

// Encode implements Message.
func (o *QueueOffer) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(o.Denom)); err != nil {
		return err
	}
	if err := writeBool(w, o.HasNodeCollateral); err != nil {
		return err
	}
	if err := writeOutPoint(w, o.NodeCollateral); err != nil {
		return err
	}
	if err := writeBool(w, o.HasNodeID); err != nil {
		return err
	}
	if err := writeHash(w, o.NodeID); err != nil {
		return err
	}
	if err := writeInt64(w, o.Timestamp); err != nil {
		return err
	}
	if err := writeBool(w, o.Ready); err != nil {
		return err
	}
	return writeVarBytes(w, o.Signature)
}

const maxSignatureLen = 80

// Decode implements Message.
func (o *QueueOffer) Decode(r io.Reader) error {
	denom, err := readUint32(r)
	if err != nil {
		return err
	}
	hasCollateral, err := readBool(r)
	if err != nil {
		return err
	}
	collateral, err := readOutPoint(r)
	if err != nil {
		return err
	}
	hasNodeID, err := readBool(r)
	if err != nil {
		return err
	}
	nodeID, err := readHash(r)
	if err != nil {
		return err
	}
	ts, err := readInt64(r)
	if err != nil {
		return err
	}
	ready, err := readBool(r)
	if err != nil {
		return err
	}
	sig, err := readVarBytes(r, maxSignatureLen, "QueueOffer.Signature")
	if err != nil {
		return err
	}

	o.Denom = int32(denom)
	o.HasNodeCollateral = hasCollateral
	o.NodeCollateral = collateral
	o.HasNodeID = hasNodeID
	o.NodeID = nodeID
	o.Timestamp = ts
	o.Ready = ready
	o.Signature = sig
	return nil
}
