// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/slog"

	"github.com/submix/submix/mixmsg"
	"github.com/submix/submix/node"
	"github.com/submix/submix/queue"
	"github.com/submix/submix/selector"
)

// StatusSnapshot is a read-only view of one Session, surfaced through the
// Manager's aggregate status operations.
type StatusSnapshot struct {
	State     State
	Denom     int32
	SessionID uint64
	NodeAddr  string
}

// Chain is the subset of chain-state awareness the Manager needs: whether
// it is safe to start new mixing activity.
type Chain interface {
	Synced() bool
}

// WalletState reports the liveness conditions DoAutomaticDenominating must
// check before acting.
type WalletState interface {
	Locked() bool
}

// EntrySender delivers a prepared "dsi" Entry to the node reachable at
// addr, the transport hook TrySubmitDenominate needs to actually ship a
// ready dispatch rather than only log it.
type EntrySender interface {
	SendEntry(addr string, entry *mixmsg.Entry)
}

// Manager owns a bounded deque of Sessions for one wallet, drives their
// periodic maintenance, and fans queue/peer messages to them.
//
// Locking: atomicMixing guards enable/disable; deqMu is the strict outer
// lock over the sessions slice, acquired before any individual Session's
// own lock, per the documented lock order.
type Manager struct {
	atomicMixing uint32

	deqMu       sync.Mutex
	sessions    []*Session
	maxSessions int

	usedNodes *selector.UsedNodes

	cachedTipHeight          uint32
	cachedLastSuccessHeight  uint32

	registry    node.Registry
	pool        *queue.Pool
	builder     EntryBuilder
	denominator Denominator
	sender      EntrySender
	params      *chaincfg.Params

	wallet       Wallet
	newKeyHolder func() KeyHolder
}

var _ queue.DenominateSubmitter = (*Manager)(nil)

// NewManager returns a Manager with an empty Sessions deque bounded to
// maxSessions. newKeyHolder is called once per Session created, since
// each Session's reserved destinations must be tracked independently.
// denominator drives the wallet-level automatic-denominating maintenance
// step ahead of every queue-join/queue-start attempt. sender ships a
// Session's prepared Entry to its bound node once TrySubmitDenominate
// fires.
func NewManager(registry node.Registry, pool *queue.Pool, builder EntryBuilder, denominator Denominator, sender EntrySender, wallet Wallet, newKeyHolder func() KeyHolder, maxSessions int, params *chaincfg.Params) *Manager {
	m := &Manager{
		maxSessions:  maxSessions,
		usedNodes:    selector.NewUsedNodes(),
		registry:     registry,
		pool:         pool,
		builder:      builder,
		denominator:  denominator,
		sender:       sender,
		params:       params,
		wallet:       wallet,
		newKeyHolder: newKeyHolder,
	}
	pool.RegisterManager(m)
	return m
}

// StartMixing atomically enables mixing, reporting whether it was
// previously disabled.
func (m *Manager) StartMixing() bool {
	return atomic.CompareAndSwapUint32(&m.atomicMixing, 0, 1)
}

// StopMixing disables mixing.
func (m *Manager) StopMixing() {
	atomic.StoreUint32(&m.atomicMixing, 0)
}

// Mixing reports whether mixing is currently enabled.
func (m *Manager) Mixing() bool {
	return atomic.LoadUint32(&m.atomicMixing) != 0
}

// UpdatedBlockTip records the current tip height for winners-window
// checks.
func (m *Manager) UpdatedBlockTip(height uint32) {
	m.deqMu.Lock()
	m.cachedTipHeight = height
	m.deqMu.Unlock()
}

// UpdatedSuccessBlock marks the current tip as the last block at which a
// mix succeeded.
func (m *Manager) UpdatedSuccessBlock() {
	m.deqMu.Lock()
	m.cachedLastSuccessHeight = m.cachedTipHeight
	m.deqMu.Unlock()
}

// CheckTimeout invokes every Session's timeout check.
func (m *Manager) CheckTimeout(now time.Time) {
	m.deqMu.Lock()
	sessions := make([]*Session, len(m.sessions))
	copy(sessions, m.sessions)
	m.deqMu.Unlock()

	for _, s := range sessions {
		s.CheckTimeout(now)
	}
}

// ProcessPendingDsaRequest drives every Session's pending open.
func (m *Manager) ProcessPendingDsaRequest(now time.Time, dial func(addr string, accept *mixmsg.Accept) bool) {
	m.deqMu.Lock()
	sessions := make([]*Session, len(m.sessions))
	copy(sessions, m.sessions)
	m.deqMu.Unlock()

	for _, s := range sessions {
		s.ProcessPendingOpen(now, dial)
	}
}

// TrySubmitDenominate implements queue.DenominateSubmitter: it routes a
// ready offer to whichever Session, if any, is bound to addr.
func (m *Manager) TrySubmitDenominate(addr string) bool {
	m.deqMu.Lock()
	sessions := make([]*Session, len(m.sessions))
	copy(sessions, m.sessions)
	m.deqMu.Unlock()

	for _, s := range sessions {
		submitted := s.TrySubmitDenominate(addr, func(entry *mixmsg.Entry) {
			log.Debugf("submitting denominate entry sid=%d", entry.SessionID)
			if m.sender != nil {
				m.sender.SendEntry(addr, entry)
			}
		})
		if submitted {
			return true
		}
	}
	return false
}

// MarkAlreadyJoinedQueueAsTried marks offer tried if any Session is
// already bound to its referenced node.
func (m *Manager) MarkAlreadyJoinedQueueAsTried(offer *mixmsg.QueueOffer) bool {
	var op [32]byte
	if offer.HasNodeCollateral {
		op = offer.NodeCollateral.Hash
	} else if offer.HasNodeID {
		op = offer.NodeID
	} else {
		return false
	}

	m.deqMu.Lock()
	defer m.deqMu.Unlock()

	for _, s := range m.sessions {
		n := s.BoundNode()
		if n == nil {
			continue
		}
		if n.Collateral.Hash == op || n.ID == op {
			offer.Tried = true
			return true
		}
	}
	return false
}

// GetStatuses returns a snapshot of every Session's state.
func (m *Manager) GetStatuses() []StatusSnapshot {
	m.deqMu.Lock()
	sessions := make([]*Session, len(m.sessions))
	copy(sessions, m.sessions)
	m.deqMu.Unlock()

	out := make([]StatusSnapshot, 0, len(sessions))
	for _, s := range sessions {
		n := s.BoundNode()
		snap := StatusSnapshot{
			State:     s.State(),
			Denom:     s.Denom(),
			SessionID: s.SessionID(),
		}
		if n != nil {
			snap.NodeAddr = n.Addr.String()
		}
		out = append(out, snap)
	}
	return out
}

// GetSessionDenoms returns the denomination every active Session is
// mixing.
func (m *Manager) GetSessionDenoms() []int32 {
	statuses := m.GetStatuses()
	out := make([]int32, 0, len(statuses))
	for _, st := range statuses {
		if st.State != Idle {
			out = append(out, st.Denom)
		}
	}
	return out
}

// JSONInfo is a serializable snapshot of the Manager's aggregate state,
// suitable for an RPC or status endpoint.
type JSONInfo struct {
	Mixing     bool             `json:"mixing"`
	Sessions   []StatusSnapshot `json:"sessions"`
	UsedNodes  int              `json:"used_nodes"`
	TipHeight  uint32           `json:"tip_height"`
}

// GetJsonInfo returns the aggregate status surface as a serializable
// snapshot.
func (m *Manager) GetJsonInfo() JSONInfo {
	m.deqMu.Lock()
	tip := m.cachedTipHeight
	used := m.usedNodes.Len()
	m.deqMu.Unlock()

	return JSONInfo{
		Mixing:    m.Mixing(),
		Sessions:  m.GetStatuses(),
		UsedNodes: used,
		TipHeight: tip,
	}
}

// trimUsedNodes applies the used-node compaction rule against the current
// valid-node count.
func (m *Manager) trimUsedNodes() {
	m.usedNodes.Trim(m.registry.WeightedValidCount())
}

// DoAutomaticDenominating is the periodic driver: it tops up the wallet's
// denomination and collateral outputs via denominator, grows the Sessions
// deque toward maxSessions, and asks each idle Session to try joining or
// starting a queue.
//
// chain, wstate, and pickDenom let the caller supply chain-sync state,
// wallet-lock state, and a denomination sampler without this package
// depending on wallet or chain packages directly. neededAmount is the
// wallet's currently configured anonymize target, passed through to
// denominator.
func (m *Manager) DoAutomaticDenominating(chain Chain, wstate WalletState, pickDenom func() (int32, bool), neededAmount int64, dryRun bool) bool {
	if !m.Mixing() && !dryRun {
		return false
	}
	if !chain.Synced() {
		return false
	}
	if wstate.Locked() && !dryRun {
		return false
	}

	m.trimUsedNodes()

	if m.denominator != nil {
		if _, err := m.denominator.EnsureDenominated(dcrutil.Amount(neededAmount), dryRun); err != nil {
			log.Debugf("ensure denominated: %v", err)
		}
	}

	m.deqMu.Lock()
	if len(m.sessions) < m.maxSessions {
		m.sessions = append(m.sessions, New(m.wallet, m.newKeyHolder()))
	}
	sessions := make([]*Session, len(m.sessions))
	copy(sessions, m.sessions)
	tip := m.cachedTipHeight
	m.deqMu.Unlock()

	winnersSkip := WinnersSkip(m.params)
	acted := false
	for _, s := range sessions {
		if s.State() != Idle {
			continue
		}
		err := s.JoinExistingQueue(m.pool, m.registry, m.usedNodes, m.builder, tip, winnersSkip, time.Now())
		if err == nil {
			acted = true
			continue
		}
		err = s.StartNewQueue(m.registry, m.usedNodes, m.builder, pickDenom, tip, winnersSkip)
		if err == nil {
			acted = true
		}
	}
	return acted
}

// UseLogger routes the session package's logging through logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

var log = slog.Disabled
