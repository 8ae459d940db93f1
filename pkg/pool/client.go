package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/vdr-go/pkg/config"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/response"
	"go.uber.org/zap"
)

// Node is a named pool member.
type Node struct {
	Name      string
	Transport Transport
}

// Client submits requests to all pool nodes and waits for a quorum of
// identical replies. It's thread-safe.
type Client struct {
	nodes []Node
	log   *zap.Logger
}

// nodeReply is a reply (or failure) of a single node.
type nodeReply struct {
	node string
	data []byte
	err  error
}

// New returns a Client for the given nodes, nil log means no logging.
func New(log *zap.Logger, nodes ...Node) (*Client, error) {
	if len(nodes) == 0 {
		return nil, errors.New("empty node list")
	}
	if log == nil {
		log = zap.NewNop()
	}
	nodes = append([]Node(nil), nodes...)
	for i := range nodes {
		if nodes[i].Transport == nil {
			return nil, fmt.Errorf("node %d has no transport", i)
		}
		if nodes[i].Name == "" {
			if s, ok := nodes[i].Transport.(fmt.Stringer); ok {
				nodes[i].Name = s.String()
			} else {
				nodes[i].Name = fmt.Sprintf("node%d", i)
			}
		}
	}
	return &Client{nodes: nodes, log: log}, nil
}

// NewFromConfig creates transports for all configured nodes and returns a
// Client using them. Websocket connections are established immediately.
func NewFromConfig(ctx context.Context, cfg config.PoolConfiguration, log *zap.Logger) (*Client, error) {
	if len(cfg.Nodes) == 0 {
		return nil, errors.New("no pool nodes configured")
	}
	opts := Options{
		DialTimeout:     cfg.DialTimeout,
		RequestTimeout:  cfg.RequestTimeout,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
	}
	nodes := make([]Node, 0, len(cfg.Nodes))
	for _, endpoint := range cfg.Nodes {
		var (
			t   Transport
			err error
		)
		switch cfg.Transport {
		case config.TransportWS:
			t, err = NewWSTransport(ctx, endpoint, opts)
		default:
			t, err = NewHTTPTransport(endpoint, opts)
		}
		if err != nil {
			closeNodes(nodes)
			return nil, fmt.Errorf("node %s: %w", endpoint, err)
		}
		nodes = append(nodes, Node{Name: endpoint, Transport: t})
	}
	return New(log, nodes...)
}

// Close releases transport resources.
func (c *Client) Close() {
	closeNodes(c.nodes)
}

func closeNodes(nodes []Node) {
	for _, n := range nodes {
		if cl, ok := n.Transport.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}

// Quorum returns the number of identical replies required, f+1 for a pool
// of 3f+1 nodes.
func (c *Client) Quorum() int {
	return (len(c.nodes)-1)/3 + 1
}

// Submit sends the request to the pool. It returns the reply agreed on by
// the quorum no matter its type, use Envelope.Interpret to check it.
func (c *Client) Submit(ctx context.Context, req *request.Request) (*response.Envelope, error) {
	body, err := req.Bytes()
	if err != nil {
		return nil, err
	}
	return c.SubmitRaw(ctx, body)
}

// SubmitRaw is Submit for an already serialized request.
func (c *Client) SubmitRaw(ctx context.Context, body []byte) (*response.Envelope, error) {
	start := time.Now()
	requestsSubmitted.Inc()
	env, err := c.submit(ctx, body)
	var op response.Op
	if env != nil {
		op = env.Op
	}
	addSubmitMetrics(start, op, err)
	return env, err
}

func (c *Client) submit(ctx context.Context, body []byte) (*response.Envelope, error) {
	ctx, cancel := context.WithCancel(ctx)
	// Abandons nodes that haven't replied yet once we're done.
	defer cancel()

	replies := make(chan nodeReply, len(c.nodes))
	c.log.Debug("sending request", zap.Int("nodes", len(c.nodes)), zap.ByteString("request", body))
	for _, n := range c.nodes {
		go func(n Node) {
			data, err := n.Transport.Submit(ctx, body)
			replies <- nodeReply{node: n.Name, data: data, err: err}
		}(n)
	}

	var (
		quorum   = c.Quorum()
		votes    = make(map[string]int)
		answered int
		timeouts int
		lastErr  error
	)
	for i := 0; i < len(c.nodes); i++ {
		var r nodeReply
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case r = <-replies:
		}
		if r.err != nil {
			nodeFailures.Inc()
			c.log.Warn("node failed", zap.String("node", r.node), zap.Error(r.err))
			if errors.Is(r.err, ErrTimeout) {
				timeouts++
			}
			lastErr = r.err
			continue
		}
		env, key, err := parseReply(r.data)
		if err != nil {
			nodeFailures.Inc()
			c.log.Warn("bad node reply", zap.String("node", r.node), zap.Error(err))
			lastErr = err
			continue
		}
		c.log.Debug("node reply", zap.String("node", r.node), zap.String("op", string(env.Op)))
		answered++
		votes[key]++
		if votes[key] >= quorum {
			return env, nil
		}
	}
	switch {
	case answered >= quorum:
		return nil, fmt.Errorf("%w: %d replies, %d different", ErrNoConsensus, answered, len(votes))
	case timeouts > 0:
		return nil, fmt.Errorf("%w: %d of %d nodes timed out", ErrTimeout, timeouts, len(c.nodes))
	case errors.Is(lastErr, ErrConnection):
		return nil, fmt.Errorf("%d of %d nodes failed, last error: %w", len(c.nodes)-answered, len(c.nodes), lastErr)
	default:
		return nil, fmt.Errorf("%w: %d of %d nodes failed, last error: %v", ErrConnection, len(c.nodes)-answered, len(c.nodes), lastErr)
	}
}

// parseReply parses node reply and returns its normalized form used to compare
// replies of different nodes.
func parseReply(data []byte) (*response.Envelope, string, error) {
	env, err := response.Parse(data)
	if err != nil {
		return nil, "", err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, "", err
	}
	norm, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return env, string(norm), nil
}
