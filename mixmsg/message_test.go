// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mixmsg

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/wire"
)

func roundTrip(t *testing.T, m Message, out Message) {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := m.Encode(buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := out.Decode(buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(m, out) {
		t.Fatalf("round trip mismatch:\n got: %#v\nwant: %#v", out, m)
	}
}

func TestQueueOfferRoundTrip(t *testing.T) {
	o := &QueueOffer{
		Denom:             2,
		HasNodeCollateral: true,
		NodeCollateral:    wire.OutPoint{Hash: chainhash.Hash{1, 2, 3}, Index: 1, Tree: 0},
		HasNodeID:         true,
		NodeID:            chainhash.Hash{4, 5, 6},
		Timestamp:         time.Now().Unix(),
		Ready:             true,
		Signature:         []byte{0xde, 0xad, 0xbe, 0xef},
	}
	roundTrip(t, o, new(QueueOffer))
}

func TestQueueOfferSignVerify(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKeyFromRand(rand.Reader())
	if err != nil {
		t.Fatal(err)
	}
	o := &QueueOffer{
		Denom:     0,
		HasNodeID: true,
		NodeID:    chainhash.Hash{9},
		Timestamp: time.Now().Unix(),
		Ready:     false,
	}
	o.Sign(priv)
	if !o.VerifySignature(priv.PubKey()) {
		t.Fatal("signature failed to verify")
	}

	tampered := *o
	tampered.Timestamp++
	if tampered.VerifySignature(priv.PubKey()) {
		t.Fatal("signature verified over tampered data")
	}
}

func TestQueueOfferValidateTimestamp(t *testing.T) {
	now := time.Now()
	o := &QueueOffer{HasNodeID: true, Timestamp: now.Unix()}
	if err := o.Validate(now); err != nil {
		t.Fatalf("fresh offer should validate: %v", err)
	}

	stale := &QueueOffer{HasNodeID: true, Timestamp: now.Add(-QueueTimeout - time.Second).Unix()}
	if err := stale.Validate(now); err != ErrTimestampOutOfBounds {
		t.Fatalf("stale offer: got %v, want ErrTimestampOutOfBounds", err)
	}

	noNode := &QueueOffer{Timestamp: now.Unix()}
	if err := noNode.Validate(now); err != ErrMissingNodeReference {
		t.Fatalf("no node reference: got %v, want ErrMissingNodeReference", err)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	op := wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0, Tree: 0}
	in := wire.NewTxIn(&op, 1000, []byte{0x01, 0x02})
	out := wire.NewTxOut(500, []byte{0x03})
	e := &Entry{
		SessionID: 42,
		Inputs:    []*wire.TxIn{in},
		Outputs:   []*wire.TxOut{out},
	}
	roundTrip(t, e, new(Entry))
}

func TestStatusUpdateRoundTrip(t *testing.T) {
	s := &StatusUpdate{SessionID: 7, State: PoolStateAccepting, Status: StatusAccepted, MessageID: 3}
	roundTrip(t, s, new(StatusUpdate))
}

func TestStatusUpdateValidate(t *testing.T) {
	s := &StatusUpdate{State: PoolState(200), Status: StatusAccepted}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for out-of-range state")
	}
}

func TestCompleteRoundTrip(t *testing.T) {
	c := &Complete{SessionID: 11, Success: true, MessageID: 9}
	roundTrip(t, c, new(Complete))
}

