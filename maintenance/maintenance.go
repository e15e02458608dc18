// Copyright (c) 2025 The submix developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package maintenance runs the process-wide 1Hz tick that drives every
// wallet's session Manager and the shared queue pool: expiring timed-out
// sessions, flushing pending session-open requests, and periodically
// triggering automatic denomination.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/decred/dcrd/crypto/rand"
	"golang.org/x/sync/errgroup"

	"github.com/decred/slog"

	"github.com/submix/submix/mixmsg"
	"github.com/submix/submix/queue"
	"github.com/submix/submix/session"
)

// Numeric constants for the automatic-denominating trigger, in ticks.
const (
	AutoTimeoutMin = 5
	AutoTimeoutMax = 15
)

const tickInterval = time.Second

// Chain reports whether the chain is synced, consulted before running
// queue maintenance or any Manager's automatic denominating pass.
type Chain interface {
	Synced() bool
}

// Dialer delivers a pending DSACCEPT to addr if a connection to it is
// available, used by ProcessPendingDsaRequest.
type Dialer interface {
	Dial(addr string, accept *mixmsg.Accept) bool
}

// managedWallet pairs a Manager with the chain/wallet-state/denom-picking
// collaborators its DoAutomaticDenominating call needs.
type managedWallet struct {
	mgr        *session.Manager
	wstate     session.WalletState
	pickDenom  func() (int32, bool)
	nextAuto   int
}

// Dispatcher is the process-wide maintenance tick. Construct with New, add
// wallets with AddWallet, then call Run from a long-lived goroutine.
type Dispatcher struct {
	pool  *queue.Pool
	chain Chain
	dial  Dialer

	mu       sync.Mutex
	wallets  []*managedWallet
	tick     uint64
	shutdown uint32
}

// New returns a Dispatcher for the shared queue pool, chain-sync source,
// and peer dialer.
func New(pool *queue.Pool, chain Chain, dial Dialer) *Dispatcher {
	return &Dispatcher{pool: pool, chain: chain, dial: dial}
}

// AddWallet registers a wallet's Manager with the dispatcher, scheduling
// its first automatic-denominating attempt at a random tick within the
// configured window.
func (d *Dispatcher) AddWallet(mgr *session.Manager, wstate session.WalletState, pickDenom func() (int32, bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wallets = append(d.wallets, &managedWallet{
		mgr:       mgr,
		wstate:    wstate,
		pickDenom: pickDenom,
		nextAuto:  nextAutoDelay(),
	})
}

// nextAutoDelay returns a uniformly random tick count within
// [AutoTimeoutMin, AutoTimeoutMax] using the package's cryptographic PRNG.
func nextAutoDelay() int {
	return AutoTimeoutMin + int(rand.Int32N(int32(AutoTimeoutMax-AutoTimeoutMin+1)))
}

// ShutdownRequested reports whether Stop has been called.
func (d *Dispatcher) ShutdownRequested() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown != 0
}

// Stop requests the dispatcher's Run loop return at the next tick
// boundary.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.shutdown = 1
	d.mu.Unlock()
}

// Run drives the 1Hz maintenance tick until ctx is cancelled or Stop is
// called, fanning each tick's per-wallet work out across an errgroup.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if d.ShutdownRequested() {
				return nil
			}
			if err := d.runTick(ctx, now); err != nil {
				return err
			}
		}
	}
}

// runTick performs one tick's worth of maintenance: queue compaction, then
// every wallet's timeout check, pending-open flush, and (every few ticks)
// automatic denominating pass, fanned out via an errgroup.
func (d *Dispatcher) runTick(ctx context.Context, now time.Time) error {
	d.mu.Lock()
	d.tick++
	wallets := make([]*managedWallet, len(d.wallets))
	copy(wallets, d.wallets)
	d.mu.Unlock()

	if d.chain.Synced() {
		d.pool.CheckQueue(now)
	}

	g, _ := errgroup.WithContext(ctx)
	for _, w := range wallets {
		w := w
		g.Go(func() error {
			d.tickWallet(w, now)
			return nil
		})
	}
	return g.Wait()
}

// tickWallet performs one wallet's per-tick maintenance.
func (d *Dispatcher) tickWallet(w *managedWallet, now time.Time) {
	w.mgr.CheckTimeout(now)
	w.mgr.ProcessPendingDsaRequest(now, d.dial.Dial)

	w.nextAuto--
	if w.nextAuto > 0 {
		return
	}
	w.nextAuto = nextAutoDelay()

	if !d.chain.Synced() {
		return
	}
	w.mgr.DoAutomaticDenominating(d.chain, w.wstate, w.pickDenom, 0, false)
}

// UseLogger routes the maintenance package's logging through logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

var log = slog.Disabled
