// Package reporter tells the odometer backend which time zone the user is in.
package reporter

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/puzpuzpuz/xsync/v3"
	zlog "github.com/rs/zerolog/log"

	"github.com/unseeyou/odometer-app/internal/timezone"
)

// Backend receives the resolved identifier.
type Backend interface {
	SetTimezone(ctx context.Context, tz string) error
}

type Reporter struct {
	source   timezone.Source
	backend  Backend
	inflight *xsync.MapOf[uint64, *Dispatch]
	nextID   atomic.Uint64
}

func New(source timezone.Source, backend Backend) *Reporter {
	return &Reporter{
		source:   source,
		backend:  backend,
		inflight: xsync.NewMapOf[uint64, *Dispatch](),
	}
}

// Report resolves the local time zone and sends it to the backend without
// waiting for the answer. Only a resolution failure is returned; the transport
// outcome is recorded on the Dispatch and nowhere else. Cancelling ctx after
// Report returns does not abort the request.
func (r *Reporter) Report(ctx context.Context) (*Dispatch, error) {
	tz, err := r.source.Resolve()
	if err != nil {
		return nil, errors.Wrap(err, "resolve time zone")
	}

	id := r.nextID.Add(1)
	d := newDispatch(tz)
	r.inflight.Store(id, d)

	sendCtx := context.WithoutCancel(ctx)
	go func() {
		defer r.inflight.Delete(id)

		err := r.backend.SetTimezone(sendCtx, tz)
		if err != nil {
			zlog.Debug().Msgf("Time zone report #%d [%s] failed: %v", id, tz, err)
		} else {
			zlog.Debug().Msgf("Time zone report #%d [%s] delivered", id, tz)
		}
		d.finish(err)
	}()

	zlog.Debug().Msgf("Time zone report #%d [%s] dispatched", id, tz)
	return d, nil
}

// Pending is the number of reports still in flight.
func (r *Reporter) Pending() int {
	return r.inflight.Size()
}

// Drain waits for the reports in flight when it is called. It never returns a
// transport error, only ctx.Err() when ctx ends first.
func (r *Reporter) Drain(ctx context.Context) error {
	var pending []*Dispatch
	r.inflight.Range(func(_ uint64, d *Dispatch) bool {
		pending = append(pending, d)
		return true
	})

	zlog.Debug().Msgf("Waiting for %d time zone report(s)...", len(pending))
	for _, d := range pending {
		select {
		case <-d.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
