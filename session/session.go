// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session implements the per-attempt mixing state machine: one
// Session per in-flight protocol run against a single bound mixer node,
// plus the per-wallet Manager that owns a bounded set of Sessions and
// drives their periodic maintenance.
package session

import (
	"sync"
	"time"

	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/dcrutil/v4/txsort"
	"github.com/decred/dcrd/txscript/v4/stdscript"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/mixmsg"
	"github.com/submix/submix/node"
	"github.com/submix/submix/queue"
	"github.com/submix/submix/selector"
)

// State is one of the five protocol states a Session may occupy.
type State int

const (
	// Idle is not mixing.
	Idle State = iota
	// Queue is awaiting server acceptance into its queue.
	Queue
	// Accepting is submitting entries while the server accepts them.
	Accepting
	// Signing has received the final tx and cosigned it.
	Signing
	// Error is a transient failure, auto-reset after ErrorReset.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Queue:
		return "queue"
	case Accepting:
		return "accepting"
	case Signing:
		return "signing"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Timeouts, per the authoritative numeric constants.
const (
	QueueTimeout   = mixmsg.QueueTimeout
	SigningTimeout = 60 * time.Second
	ErrorReset     = 10 * time.Second
	LagGrace       = 10 * time.Second
)

// WinnersSkip returns the number of upcoming payment winners a node must
// clear before it is eligible for selection, as a pure function of the
// active network's parameters.
func WinnersSkip(params *chaincfg.Params) uint32 {
	if params.Net == wire.MainNet {
		return 8
	}
	return 1
}

// Entry is a client's partial contribution to a mixing round.
type Entry struct {
	Inputs          []*wire.TxIn
	Outputs         []*wire.TxOut
	Collateral      *wire.MsgTx
	LockedOutpoints []wire.OutPoint
	ReservedScripts [][]byte
}

// EntryBuilder produces a partial entry for a chosen denomination, the
// denomination planner's role as consumed by a Session.
type EntryBuilder interface {
	// PrepareEntry selects denom inputs and reserves change destinations
	// for them. dryRun skips wallet-visible reservation and locking.
	PrepareEntry(denom int32, dryRun bool) (*Entry, error)
}

// Denominator performs a wallet's pre-session denomination maintenance:
// building standardized denomination outputs toward target, the wallet's
// currently configured anonymize target amount, and ensuring a spendable
// collateral transaction exists. It reports whether it committed a
// denominating transaction.
type Denominator interface {
	EnsureDenominated(target dcrutil.Amount, dryRun bool) (bool, error)
}

// Wallet is the subset of wallet functionality a Session needs: coin
// locking and transaction signing. Everything else (coin storage, key
// derivation, chain state) lives outside this package.
type Wallet interface {
	UnlockOutpoint(op wire.OutPoint)
	// SignOwnInputs signs only the inputs at the given indices of tx
	// with SigHashAll|SigHashAnyOneCanPay and returns the signed
	// TxIns.
	SignOwnInputs(tx *wire.MsgTx, indices []int) ([]*wire.TxIn, error)
}

// KeyHolder returns or reclaims destinations reserved from the wallet's
// key pool for mix outputs.
type KeyHolder interface {
	ReturnAll()
	KeepAll()
}

// pendingOpen is an outstanding request to open a peer connection and
// deliver a DSACCEPT once connected.
type pendingOpen struct {
	addr     string
	accept   *mixmsg.Accept
	deadline time.Time
}

// Session is one in-flight mixing attempt. The zero value is not usable;
// construct with New.
type Session struct {
	mu sync.Mutex

	state       State
	sessionID   uint64
	denom       int32
	mixingNode  *node.Node
	collateral  *wire.MsgTx
	entry       *Entry
	lastStep    time.Time
	signingSent time.Time
	pending     *pendingOpen
	lastMessage string
	minMsgID    uint32

	wallet    Wallet
	keyHolder KeyHolder
}

// New returns an IDLE Session bound to no node.
func New(wallet Wallet, keyHolder KeyHolder) *Session {
	return &Session{
		state:     Idle,
		wallet:    wallet,
		keyHolder: keyHolder,
		lastStep:  time.Now(),
	}
}

// State reports the Session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID reports the id assigned by the bound node, or 0 if unassigned.
func (s *Session) SessionID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Denom reports the denomination this Session is mixing, valid once
// non-IDLE.
func (s *Session) Denom() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.denom
}

// BoundNode reports the node this Session is bound to, or nil when IDLE.
func (s *Session) BoundNode() *node.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mixingNode
}

// release returns every resource the Session is holding: locked outpoints
// and reserved key-pool destinations. Called on every non-IDLE exit path;
// keepReservations (set only by a successful Complete) keeps the reserved
// destinations instead of returning them.
func (s *Session) release(keepReservations bool) {
	if s.entry != nil {
		for _, op := range s.entry.LockedOutpoints {
			s.wallet.UnlockOutpoint(op)
		}
	}
	if s.keyHolder != nil {
		if keepReservations {
			s.keyHolder.KeepAll()
		} else {
			s.keyHolder.ReturnAll()
		}
	}
	s.entry = nil
	s.collateral = nil
}

// reset returns the Session to IDLE, discarding all mixing state.
func (s *Session) reset(keepReservations bool) {
	s.release(keepReservations)
	s.state = Idle
	s.sessionID = 0
	s.denom = 0
	s.mixingNode = nil
	s.pending = nil
	s.lastStep = time.Now()
}

// bind transitions an IDLE Session into QUEUE against n, recording it in
// used and scheduling a pending DSACCEPT delivery.
func (s *Session) bind(n *node.Node, denom int32, entry *Entry, used *selector.UsedNodes) {
	used.Add(n.Collateral)
	s.mixingNode = n
	s.denom = denom
	s.entry = entry
	s.collateral = entry.Collateral
	s.state = Queue
	s.lastStep = time.Now()
	s.pending = &pendingOpen{
		addr:     n.Addr.String(),
		accept:   &mixmsg.Accept{Denom: denom, CollateralTx: entry.Collateral},
		deadline: time.Now().Add(QueueTimeout),
	}
}

// eligible reports whether n may be selected: it is not in the
// winners-skip window ahead of the tip.
func eligible(n *node.Node, weightedValidCount, tipHeight, winnersSkip uint32) bool {
	return n.LastPaidHeight+weightedValidCount >= tipHeight+winnersSkip
}

// JoinExistingQueue consumes offers from the shared queue pool in FIFO
// order, binding to the first one naming an eligible node for which an
// entry can be prepared.
func (s *Session) JoinExistingQueue(
	pool *queue.Pool,
	registry node.Registry,
	used *selector.UsedNodes,
	builder EntryBuilder,
	tipHeight uint32,
	winnersSkip uint32,
	now time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return errNotIdle
	}

	weighted := registry.WeightedValidCount()
	for {
		offer := pool.GetQueueItemAndTry(now)
		if offer == nil {
			return errNoCandidateNode
		}

		var n *node.Node
		var ok bool
		if offer.HasNodeCollateral {
			n, ok = registry.ByCollateral(offer.NodeCollateral)
		} else {
			n, ok = registry.ByID(offer.NodeID)
		}
		if !ok || !eligible(n, weighted, tipHeight, winnersSkip) {
			continue
		}
		if used.Contains(n.Collateral) {
			continue
		}

		entry, err := builder.PrepareEntry(offer.Denom, false)
		if err != nil {
			continue
		}

		s.bind(n, offer.Denom, entry, used)
		pool.MarkBound(n.Collateral, true)
		return nil
	}
}

// StartNewQueue draws up to ten random unused nodes, skipping ones inside
// the winners-skip window, and binds to the first that accepts an entry.
// It does not check the per-node dsq rate limit.
func (s *Session) StartNewQueue(
	registry node.Registry,
	used *selector.UsedNodes,
	builder EntryBuilder,
	pickDenom func() (int32, bool),
	tipHeight uint32,
	winnersSkip uint32,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return errNotIdle
	}

	weighted := registry.WeightedValidCount()
	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		n := selector.GetRandomNotUsedMasternode(registry, used)
		if n == nil {
			return errNoCandidateNode
		}
		if !eligible(n, weighted, tipHeight, winnersSkip) {
			continue
		}

		denom, ok := pickDenom()
		if !ok {
			continue
		}

		entry, err := builder.PrepareEntry(denom, false)
		if err != nil {
			continue
		}

		s.bind(n, denom, entry, used)
		return nil
	}
	return errNoCandidateNode
}

// SubmitDenominate transitions QUEUE -> ACCEPTING and returns the prepared
// entry as a "dsi" message for the caller to send to the bound node.
func (s *Session) SubmitDenominate() (*mixmsg.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Queue || s.entry == nil {
		return nil, errNotIdle
	}
	s.state = Accepting
	s.lastStep = time.Now()
	return &mixmsg.Entry{
		SessionID:    s.sessionID,
		Inputs:       s.entry.Inputs,
		Outputs:      s.entry.Outputs,
		CollateralTx: s.entry.Collateral,
	}, nil
}

// HandleStatusUpdate applies a server-sent StatusUpdate, per the message
// handling rules for QUEUE sessions.
func (s *Session) HandleStatusUpdate(msg *mixmsg.StatusUpdate, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPeer(from); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	if s.state == Queue && s.sessionID == 0 && msg.SessionID != 0 {
		s.sessionID = msg.SessionID
	}
	if s.sessionID != 0 && msg.SessionID != s.sessionID {
		return errWrongSession
	}

	switch msg.Status {
	case mixmsg.StatusRejected:
		s.reset(false)
		s.state = Error
		return errRejected
	case mixmsg.StatusAccepted:
		s.lastStep = time.Now()
		s.lastMessage = "accepted"
		return nil
	default:
		s.lastMessage = "status received"
		return nil
	}
}

// HandleFinalTx validates and cosigns a server-sent final transaction,
// transitioning ACCEPTING -> SIGNING, or ACCEPTING -> ERROR if the tx
// fails validation. On success it returns the "dss" message to ship back
// to the bound node.
func (s *Session) HandleFinalTx(msg *mixmsg.FinalTx, from string) (*mixmsg.Signatures, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPeer(from); err != nil {
		return nil, err
	}
	if s.state != Accepting {
		return nil, errNotIdle
	}
	if msg.SessionID != s.sessionID {
		s.reset(false)
		s.state = Error
		return nil, errWrongSession
	}

	receivedHash := msg.Tx.TxHash()
	sorted := txsort.Sort(msg.Tx)
	if sorted.TxHash() != receivedHash {
		s.reset(false)
		s.state = Error
		return nil, errNonCanonicalOrder
	}

	if err := checkOutputScripts(sorted); err != nil {
		s.reset(false)
		s.state = Error
		return nil, err
	}

	ownInputs, err := s.findOwnInputs(sorted)
	if err != nil {
		s.reset(false)
		s.state = Error
		return nil, err
	}
	if err := s.findOwnOutputs(sorted); err != nil {
		s.reset(false)
		s.state = Error
		return nil, err
	}

	signed, err := s.wallet.SignOwnInputs(sorted, ownInputs)
	if err != nil {
		s.reset(false)
		s.state = Error
		return nil, err
	}

	s.state = Signing
	s.signingSent = time.Now()
	s.lastStep = s.signingSent
	return &mixmsg.Signatures{SessionID: s.sessionID, SignedInputs: signed}, nil
}

// checkOutputScripts rejects a final tx containing any output that is not a
// standard v0 P2PKH or P2SH script, the only two shapes a mixed output may
// legitimately take.
func checkOutputScripts(tx *wire.MsgTx) error {
	for _, out := range tx.TxOut {
		if !stdscript.IsPubKeyHashScriptV0(out.PkScript) && !stdscript.IsScriptHashScriptV0(out.PkScript) {
			return errNonStandardOutput
		}
	}
	return nil
}

// findOwnInputs locates the indices within tx of every input the Session
// itself contributed, failing if any are absent.
func (s *Session) findOwnInputs(tx *wire.MsgTx) ([]int, error) {
	want := make(map[wire.OutPoint]struct{}, len(s.entry.Inputs))
	for _, in := range s.entry.Inputs {
		want[in.PreviousOutPoint] = struct{}{}
	}
	var indices []int
	for i, in := range tx.TxIn {
		if _, ok := want[in.PreviousOutPoint]; ok {
			indices = append(indices, i)
			delete(want, in.PreviousOutPoint)
		}
	}
	if len(want) != 0 {
		return nil, errMissingOwnInput
	}
	return indices, nil
}

// findOwnOutputs verifies every output the Session contributed is present
// in tx by (value, script) equality.
func (s *Session) findOwnOutputs(tx *wire.MsgTx) error {
	type key struct {
		value  dcrutil.Amount
		script string
	}
	have := make(map[key]int, len(tx.TxOut))
	for _, out := range tx.TxOut {
		k := key{dcrutil.Amount(out.Value), string(out.PkScript)}
		have[k]++
	}
	for _, out := range s.entry.Outputs {
		k := key{dcrutil.Amount(out.Value), string(out.PkScript)}
		if have[k] == 0 {
			return errMissingOwnOutput
		}
		have[k]--
	}
	return nil
}

// HandleComplete applies a server-sent Complete, returning to IDLE and
// either keeping (success) or returning (failure) reserved destinations.
func (s *Session) HandleComplete(msg *mixmsg.Complete, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPeer(from); err != nil {
		return err
	}
	if msg.SessionID != s.sessionID {
		return errWrongSession
	}
	if msg.MessageID < s.minMsgID {
		return errMessageIDRange
	}

	s.lastMessage = "complete"
	s.reset(msg.Success)
	return nil
}

// checkPeer verifies a message claims to originate from the Session's
// bound node.
func (s *Session) checkPeer(from string) error {
	if s.mixingNode == nil || s.mixingNode.Addr.String() != from {
		return errWrongPeer
	}
	return nil
}

// CheckTimeout applies queue/signing timeouts and the ERROR auto-reset,
// returning resources on every timeout transition.
func (s *Session) CheckTimeout(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Idle:
		return
	case Error:
		if now.Sub(s.lastStep) >= ErrorReset {
			s.reset(false)
		}
		return
	case Signing:
		if now.Sub(s.signingSent) >= SigningTimeout+LagGrace {
			s.reset(false)
			s.state = Error
			s.lastStep = now
		}
		return
	default: // Queue, Accepting
		if now.Sub(s.lastStep) >= QueueTimeout+LagGrace {
			s.reset(false)
			s.state = Error
			s.lastStep = now
		}
	}
}

// ProcessPendingOpen attempts to deliver a queued DSACCEPT, resetting the
// Session if its deadline has passed. dial reports whether a connection
// to addr is available and, if so, delivers accept.
func (s *Session) ProcessPendingOpen(now time.Time, dial func(addr string, accept *mixmsg.Accept) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return
	}
	if dial(s.pending.addr, s.pending.accept) {
		s.pending = nil
		return
	}
	if now.After(s.pending.deadline) {
		s.reset(false)
	}
}

// TrySubmitDenominate reports whether this Session is waiting in QUEUE,
// bound to addr, and if so performs SubmitDenominate and returns the
// entry to send via ready.
func (s *Session) TrySubmitDenominate(addr string, ready func(*mixmsg.Entry)) bool {
	s.mu.Lock()
	bound := s.state == Queue && s.mixingNode != nil && s.mixingNode.Addr.String() == addr
	s.mu.Unlock()
	if !bound {
		return false
	}

	entry, err := s.SubmitDenominate()
	if err != nil {
		return false
	}
	ready(entry)
	return true
}
