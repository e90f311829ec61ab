package relay

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultBuffer is the capacity of the listener to relay channel.
const DefaultBuffer = 64

// Supervisor keeps a listener and a relay running as a pair. When either
// stops with an error both are torn down and restarted after a backoff;
// the listener resumes from the last acknowledged cursor.
type Supervisor struct {
	listener *Listener
	relay    *Relay
	backoff  time.Duration
	buffer   int
	logger   logging.Logger
}

func NewSupervisor(l *Listener, r *Relay, backoff time.Duration, log logging.Logger) *Supervisor {
	return &Supervisor{listener: l, relay: r, backoff: backoff, buffer: DefaultBuffer, logger: log.With("module", "relay_supervisor")}
}

// Run blocks until ctx is done. It returns nil on shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn(ctx, "relay stopped, restarting", "error", err, "backoff", s.backoff)

		t := time.NewTimer(s.backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan Delivery, s.buffer)

	g.Go(func() error { return s.listener.Run(gctx, ch) })
	g.Go(func() error { return s.relay.Run(gctx, ch) })

	return g.Wait()
}
