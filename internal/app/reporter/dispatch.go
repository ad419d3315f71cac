package reporter

import "context"

// Dispatch is the handle of one report in flight. Callers may ignore it.
type Dispatch struct {
	timezone string
	done     chan struct{}
	err      error
}

func newDispatch(tz string) *Dispatch {
	return &Dispatch{
		timezone: tz,
		done:     make(chan struct{}),
	}
}

func (d *Dispatch) finish(err error) {
	d.err = err
	close(d.done)
}

// Timezone is the identifier carried by the request.
func (d *Dispatch) Timezone() string {
	return d.timezone
}

// Done is closed once the backend answered or the request failed.
func (d *Dispatch) Done() <-chan struct{} {
	return d.done
}

// Err returns the transport outcome, or nil while the request is in flight.
func (d *Dispatch) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait blocks until the request completes or ctx ends.
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
