package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// TransportHTTP sends every request in a separate HTTP POST.
	TransportHTTP = "http"
	// TransportWS keeps a websocket connection to every node.
	TransportWS = "ws"

	defaultDialTimeout     = 4 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultProtocolVersion = 2
)

// PoolConfiguration describes the validator pool to submit requests to.
type PoolConfiguration struct {
	Name string `yaml:"Name"`
	// Nodes are node endpoint URLs, http(s):// for the HTTP transport and
	// ws(s):// for the websocket one.
	Nodes           []string      `yaml:"Nodes"`
	Transport       string        `yaml:"Transport"`
	DialTimeout     time.Duration `yaml:"DialTimeout"`
	RequestTimeout  time.Duration `yaml:"RequestTimeout"`
	MaxConnsPerHost int           `yaml:"MaxConnsPerHost"`
	ProtocolVersion int           `yaml:"ProtocolVersion"`
}

// Validate checks the pool configuration for consistency.
func (p PoolConfiguration) Validate() error {
	var schemes []string
	switch p.Transport {
	case TransportHTTP:
		schemes = []string{"http", "https"}
	case TransportWS:
		schemes = []string{"ws", "wss"}
	default:
		return fmt.Errorf("invalid pool transport %q, expected %q or %q", p.Transport, TransportHTTP, TransportWS)
	}
	if p.ProtocolVersion <= 0 {
		return fmt.Errorf("invalid protocol version %d", p.ProtocolVersion)
	}
	if p.DialTimeout < 0 || p.RequestTimeout < 0 {
		return fmt.Errorf("negative pool timeout")
	}
	for _, n := range p.Nodes {
		u, err := url.Parse(n)
		if err != nil {
			return fmt.Errorf("invalid node address %q: %w", n, err)
		}
		if u.Scheme != schemes[0] && u.Scheme != schemes[1] {
			return fmt.Errorf("node address %q doesn't match %s transport", n, p.Transport)
		}
	}
	return nil
}
