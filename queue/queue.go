// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package queue implements the global queue offer pool: the single
// collection point for "DSQUEUE" advertisements, shared by every wallet's
// session Manager.
package queue

import (
	"sync"
	"time"

	"github.com/decred/dcrd/container/lru"
	"github.com/decred/dcrd/wire"

	"github.com/submix/submix/mixmsg"
	"github.com/submix/submix/node"
)

// maxTrackedNodes bounds the per-node rate-limit and binding bookkeeping
// so that a flood of distinct, short-lived node registrations cannot grow
// these maps without limit.
const maxTrackedNodes = 4096

// PeerID identifies the remote peer that relayed a message, opaque to this
// package and supplied by the transport layer.
type PeerID string

// PeerScorer reports misbehavior committed by a peer, without this package
// needing to know how (or whether) the transport acts on it.
type PeerScorer interface {
	Misbehaved(peer PeerID, points int)
}

// DenominateSubmitter is implemented by a session Manager so the Queue
// Manager can hand a "ready" offer directly to whichever Manager already
// has a Session bound to that node.
type DenominateSubmitter interface {
	// TrySubmitDenominate reports whether a Session is waiting in QUEUE
	// on the node reachable at addr, and if so, feeds it the offer.
	TrySubmitDenominate(addr string) bool
}

// item is an offer as tracked internally by the queue list.
type item struct {
	offer    *mixmsg.QueueOffer
	node     *node.Node
	received time.Time
}

// rateState is the per-node dsq bookkeeping used for throttling
// re-advertisement.
type rateState struct {
	lastDsq uint64
}

// Pool is the global, process-wide queue offer pool. Its zero value is not
// usable; construct with New.
//
// Two mutexes match the reference design: procMu serializes offer handling
// end to end (lookups and scoring decisions happen under it; accepted
// offers are only queued locally, never relayed to other peers), while
// listMu guards only the offer slice itself so readers such as
// GetQueueItemAndTry don't have to contend with an in-flight Offer call.
type Pool struct {
	procMu sync.Mutex

	listMu sync.Mutex
	list   []*item

	registry node.Registry
	scorer   PeerScorer

	mgrMu    sync.Mutex
	managers []DenominateSubmitter

	counterMu sync.Mutex
	counter   uint64
	rate      *lru.Map[wire.OutPoint, *rateState]
	boundTo   *lru.Map[wire.OutPoint, bool]
}

// New returns an empty queue pool backed by the given valid-node registry
// and misbehavior scorer.
func New(registry node.Registry, scorer PeerScorer) *Pool {
	return &Pool{
		registry: registry,
		scorer:   scorer,
		rate:     lru.NewMap[wire.OutPoint, *rateState](maxTrackedNodes),
		boundTo:  lru.NewMap[wire.OutPoint, bool](maxTrackedNodes),
	}
}

// RegisterManager adds a Manager to the set probed when a ready offer
// arrives.
func (p *Pool) RegisterManager(m DenominateSubmitter) {
	p.mgrMu.Lock()
	p.managers = append(p.managers, m)
	p.mgrMu.Unlock()
}

// dsqThreshold returns how far the global dsq counter must have advanced
// past a node's last advertisement, validCount-scaled, before the node is
// permitted to advertise again. Nodes may not re-advertise more than once
// per full pass over the valid-node set.
func dsqThreshold(validCount uint32) uint64 {
	if validCount == 0 {
		return 0
	}
	return uint64(validCount)
}

// MarkBound records that the node at collateral op already has a Session
// bound to it, so future offers from that node are marked tried rather than
// queued for reuse.
func (p *Pool) MarkBound(op wire.OutPoint, bound bool) {
	p.counterMu.Lock()
	if bound {
		p.boundTo.Put(op, true)
	} else {
		p.boundTo.Delete(op)
	}
	p.counterMu.Unlock()
}

// Offer processes an incoming DSQUEUE advertisement from peer, applying the
// full acceptance pipeline: reference resolution, deduplication, rate
// limiting, signature verification, and either immediate dispatch (ready
// offers) or enqueueing.
func (p *Pool) Offer(peer PeerID, offer *mixmsg.QueueOffer, now time.Time) error {
	p.procMu.Lock()
	defer p.procMu.Unlock()

	if !offer.HasNodeCollateral && !offer.HasNodeID {
		p.scorer.Misbehaved(peer, 100)
		return errNoNodeReference
	}

	n, op, err := p.resolveNode(offer)
	if err != nil {
		p.scorer.Misbehaved(peer, 10)
		return err
	}

	if dup, rateLimited := p.dedup(offer, op); dup {
		return errDuplicateOffer
	} else if rateLimited {
		p.scorer.Misbehaved(peer, 10)
		return errRateLimited
	}

	if err := offer.Validate(now); err != nil {
		return err
	}

	if n.OperatorKey != nil && !offer.VerifySignature(n.OperatorKey) {
		p.scorer.Misbehaved(peer, 10)
		return errBadSignature
	}

	if offer.Ready {
		if p.dispatchReady(n) {
			return nil
		}
		// No Manager claimed it; fall through and still track the
		// offer so a later JoinExistingQueue pass can pick it up.
	} else {
		validCount := p.registry.WeightedValidCount()
		p.counterMu.Lock()
		rs, ok := p.rate.Get(op)
		if ok && rs.lastDsq != 0 && rs.lastDsq+dsqThreshold(validCount) > p.counter {
			p.counterMu.Unlock()
			return errThrottled
		}
		p.counter++
		if !ok {
			rs = &rateState{}
		}
		rs.lastDsq = p.counter
		p.rate.Put(op, rs)
		bound, _ := p.boundTo.Get(op)
		p.counterMu.Unlock()

		if bound {
			offer.Tried = true
		}
	}

	p.enqueue(&item{offer: offer, node: n, received: now})
	return nil
}

// resolveNode resolves an offer's node reference to a registered Node and
// its collateral outpoint, looking the node up by id when the collateral
// itself wasn't supplied directly.
func (p *Pool) resolveNode(offer *mixmsg.QueueOffer) (*node.Node, wire.OutPoint, error) {
	if offer.HasNodeCollateral {
		n, ok := p.registry.ByCollateral(offer.NodeCollateral)
		if !ok {
			return nil, wire.OutPoint{}, errUnknownNode
		}
		return n, offer.NodeCollateral, nil
	}
	n, ok := p.registry.ByID(offer.NodeID)
	if !ok {
		return nil, wire.OutPoint{}, errUnknownNode
	}
	return n, n.Collateral, nil
}

// dedup reports whether offer is a byte-identical duplicate of a queued
// offer, or shares a (node, ready) pair with one, without mutating the
// list.
func (p *Pool) dedup(offer *mixmsg.QueueOffer, op wire.OutPoint) (duplicate, rateLimited bool) {
	p.listMu.Lock()
	defer p.listMu.Unlock()

	for _, it := range p.list {
		if it.offer.Equal(offer) {
			return true, false
		}
		if it.offer.SameNodeAndReadiness(offer) {
			sameNode := it.offer.HasNodeCollateral && it.offer.NodeCollateral == op ||
				(!it.offer.HasNodeCollateral && it.node != nil && it.node.Collateral == op)
			if sameNode {
				return false, true
			}
		}
	}
	return false, false
}

func (p *Pool) enqueue(it *item) {
	p.listMu.Lock()
	p.list = append(p.list, it)
	p.listMu.Unlock()

	log.Debugf("queued offer for node %v denom=%d ready=%v", it.node.ID, it.offer.Denom, it.offer.Ready)
}

// dispatchReady probes every registered Manager for a Session bound to n's
// address and currently waiting in QUEUE, handing the offer to the first
// match.
func (p *Pool) dispatchReady(n *node.Node) bool {
	p.mgrMu.Lock()
	managers := make([]DenominateSubmitter, len(p.managers))
	copy(managers, p.managers)
	p.mgrMu.Unlock()

	addr := n.Addr.String()
	for _, m := range managers {
		if m.TrySubmitDenominate(addr) {
			return true
		}
	}
	return false
}

// GetQueueItemAndTry returns the first untried, unexpired offer, marking it
// tried, or nil if the queue has nothing usable. The returned offer stays
// in the queue until it expires; expired offers are dropped on the way.
func (p *Pool) GetQueueItemAndTry(now time.Time) *mixmsg.QueueOffer {
	p.listMu.Lock()
	defer p.listMu.Unlock()

	kept := p.list[:0]
	var found *mixmsg.QueueOffer
	for _, it := range p.list {
		if now.Sub(it.received) > mixmsg.QueueTimeout {
			continue
		}
		if found == nil && !it.offer.Tried {
			it.offer.Tried = true
			found = it.offer
		}
		kept = append(kept, it)
	}
	p.list = kept
	return found
}

// CheckQueue expires aged offers without consuming any untried one, the
// per-tick queue compaction step.
func (p *Pool) CheckQueue(now time.Time) {
	p.listMu.Lock()
	defer p.listMu.Unlock()

	kept := p.list[:0]
	for _, it := range p.list {
		if now.Sub(it.received) > mixmsg.QueueTimeout {
			continue
		}
		kept = append(kept, it)
	}
	p.list = kept
}

// Len returns the number of offers currently tracked, including tried
// ones awaiting expiry.
func (p *Pool) Len() int {
	p.listMu.Lock()
	defer p.listMu.Unlock()
	return len(p.list)
}
