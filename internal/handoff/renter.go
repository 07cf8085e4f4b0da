package handoff

import (
	"sync"
	"sync/atomic"

	"github.com/sorens/notary/internal/core"
)

type rwOp struct {
	write bool
	buf   []byte
	done  chan rwResult
}

type rwResult struct {
	n   int
	err error
}

// RenterStream is the renter-facing handle of a lent stream. Reads and
// writes are proxied to the driver goroutine, which alone touches the
// underlying stream. Safe for one reader and one writer concurrently;
// operations after the lending episode ends fail with ErrLendEnded.
type RenterStream struct {
	ops    chan *rwOp
	endCh  chan struct{}
	endOne sync.Once
	closed atomic.Bool
}

func newRenterStream() *RenterStream {
	return &RenterStream{
		ops:   make(chan *rwOp),
		endCh: make(chan struct{}),
	}
}

func (r *RenterStream) Read(p []byte) (int, error)  { return r.do(false, p) }
func (r *RenterStream) Write(p []byte) (int, error) { return r.do(true, p) }

func (r *RenterStream) do(write bool, p []byte) (int, error) {
	if r.closed.Load() {
		return 0, core.ErrLendEnded
	}
	op := &rwOp{write: write, buf: p, done: make(chan rwResult, 1)}
	select {
	case r.ops <- op:
	case <-r.endCh:
		return 0, core.ErrLendEnded
	}
	// the driver always answers an accepted op
	res := <-op.done
	return res.n, res.err
}

// Close marks the renter side done. The underlying stream stays open
// for the owner to reclaim.
func (r *RenterStream) Close() error {
	r.closed.Store(true)
	return nil
}

// end is called by the driver on exit; pending and future renter
// operations fail with ErrLendEnded.
func (r *RenterStream) end() {
	r.endOne.Do(func() { close(r.endCh) })
}
