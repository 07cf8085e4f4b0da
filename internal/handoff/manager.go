// Package handoff enforces the exclusive lend/reclaim lifecycle of a
// session's byte stream. A dedicated driver goroutine takes sole
// ownership of the stream for the duration of a lending episode and
// yields it back as its completion value; the owner and the renter
// never touch the raw stream concurrently.
package handoff

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sorens/notary/internal/adapters/wstream"
	"github.com/sorens/notary/internal/core"
)

// DefaultReclaimTimeout bounds how long Reclaim waits for the driver to
// yield the stream.
const DefaultReclaimTimeout = 5 * time.Second

type lendResult struct {
	stream wstream.Stream
	err    error
}

// Lease identifies one lending episode. It is redeemable exactly once;
// stale or duplicate redemptions fail with ErrAlreadyRedeemed.
type Lease struct {
	Token uuid.UUID

	redeemed  bool          // guarded by Manager.mu
	reclaimCh chan struct{} // closed by the owner to begin reclaim
	doneCh    chan lendResult

	busy chan struct{} // non-empty while the driver is inside a renter op
}

// Manager runs the lend/reclaim cycle for a single session. It holds no
// process-wide state; each session constructs its own.
type Manager struct {
	mu    sync.Mutex
	lent  bool
	lease *Lease
	// retained while lent solely to poke read deadlines during reclaim;
	// all data I/O stays with the driver.
	poke wstream.Stream

	reclaimTimeout time.Duration
}

func NewManager(reclaimTimeout time.Duration) *Manager {
	if reclaimTimeout <= 0 {
		reclaimTimeout = DefaultReclaimTimeout
	}
	return &Manager{reclaimTimeout: reclaimTimeout}
}

// Lend transfers exclusive ownership of s to a new driver goroutine and
// returns the lease plus the renter-facing stream. Fails with
// ErrNotIdle if a lending episode is already active.
func (m *Manager) Lend(ctx context.Context, s wstream.Stream) (*Lease, *RenterStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lent {
		return nil, nil, core.ErrNotIdle
	}
	lease := &Lease{
		Token:     uuid.New(),
		reclaimCh: make(chan struct{}),
		doneCh:    make(chan lendResult, 1),
		busy:      make(chan struct{}, 1),
	}
	renter := newRenterStream()
	m.lent = true
	m.lease = lease
	m.poke = s
	go m.drive(ctx, s, lease, renter)
	log.Debug().Str("module", "handoff").Str("token", lease.Token.String()).Msg("stream lent")
	return lease, renter, nil
}

// drive owns the stream while lent. It serves renter reads/writes one
// at a time and exits on reclaim or context cancellation, delivering
// its completion value on the lease's done channel.
func (m *Manager) drive(ctx context.Context, s wstream.Stream, lease *Lease, renter *RenterStream) {
	defer renter.end()
	// cancellation must abort an in-flight renter op, not just the idle
	// select; poke the deadlines so deadline-honoring streams unblock
	stop := context.AfterFunc(ctx, func() {
		_ = s.SetReadDeadline(time.Unix(1, 0))
		_ = s.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()
	for {
		select {
		case <-ctx.Done():
			// cancellation propagates to the renter via renter.end();
			// the owner sees an error completion and closes the conn
			lease.doneCh <- lendResult{err: ctx.Err()}
			return
		case <-lease.reclaimCh:
			// clear any deadline poke before yielding the stream back
			_ = s.SetReadDeadline(time.Time{})
			lease.doneCh <- lendResult{stream: s}
			return
		case op := <-renter.ops:
			lease.busy <- struct{}{}
			var n int
			var err error
			if op.write {
				n, err = s.Write(op.buf)
			} else {
				n, err = s.Read(op.buf)
			}
			<-lease.busy
			op.done <- rwResult{n: n, err: err}
		}
	}
}

// Reclaim redeems the lease and waits for the driver to yield the
// stream, bounded by the manager's reclaim timeout. A second redemption
// of the same lease fails loudly with ErrAlreadyRedeemed. A driver that
// aborted (cancellation, error) yields an error completion: the stream
// may be corrupted and the caller must close the connection instead of
// retrying.
func (m *Manager) Reclaim(ctx context.Context, lease *Lease) (wstream.Stream, error) {
	m.mu.Lock()
	if lease == nil || lease.redeemed || m.lease != lease {
		m.mu.Unlock()
		return nil, core.ErrAlreadyRedeemed
	}
	lease.redeemed = true
	poke := m.poke
	m.mu.Unlock()

	// Abort an in-flight blocking read so the driver can observe the
	// reclaim signal. The driver clears the deadline before yielding.
	_ = poke.SetReadDeadline(time.Unix(1, 0))
	close(lease.reclaimCh)

	timer := time.NewTimer(m.reclaimTimeout)
	defer timer.Stop()

	select {
	case res := <-lease.doneCh:
		if res.err != nil {
			return nil, fmt.Errorf("handoff: driver aborted: %w", res.err)
		}
		m.mu.Lock()
		m.lent = false
		m.lease = nil
		m.poke = nil
		m.mu.Unlock()
		log.Debug().Str("module", "handoff").Str("token", lease.Token.String()).Msg("stream reclaimed")
		return res.stream, nil
	case <-timer.C:
		select {
		case lease.busy <- struct{}{}:
			<-lease.busy
			return nil, core.ErrReclaimTimeout
		default:
			return nil, core.ErrStillHeld
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
