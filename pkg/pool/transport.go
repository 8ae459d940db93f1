/*
Package pool implements request submission to a validator node pool.

Every node is reached via a Transport that sends serialized request bytes and
returns the raw reply bytes. Client sends a request to every node of the pool
concurrently and returns the reply confirmed by f+1 nodes, where f is the
number of faulty nodes the pool tolerates.
*/
package pool

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
)

var (
	// ErrConnection is returned when nodes can't be reached.
	ErrConnection = errors.New("pool connection failure")
	// ErrTimeout is returned when no reply is received in time. The request
	// may still have been applied by the pool.
	ErrTimeout = errors.New("pool timeout")
	// ErrNoConsensus is returned when nodes reply, but no reply has a quorum.
	ErrNoConsensus = errors.New("no consensus among nodes")
)

// Transport delivers a request to a single node.
type Transport interface {
	Submit(ctx context.Context, req []byte) ([]byte, error)
}

// Options defines transport options. All values are optional, zero
// durations mean 4 seconds.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
}

func (o *Options) applyDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
}

// transportError turns network error into ErrTimeout or ErrConnection.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
