package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSTransport keeps a persistent websocket connection to the node. Requests
// are sent as text frames, replies are matched to requests by identifier and
// reqId, so concurrent submissions are allowed.
type WSTransport struct {
	ws       *websocket.Conn
	opts     Options
	done     chan struct{}
	requests chan []byte
	shutdown chan struct{}
	closer   sync.Once

	pendingLock sync.Mutex
	pending     map[string]chan []byte
}

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2
)

var errConnLost = fmt.Errorf("%w: connection lost", ErrConnection)

// requestKey is the part of both request and reply used to match them.
type requestKey struct {
	Identifier string `json:"identifier"`
	ReqID      uint64 `json:"reqId"`
}

// replyKey is requestKey that can be either at the top level of the reply
// (REQNACK/REJECT) or inside its result (REPLY).
type replyKey struct {
	requestKey
	Result *requestKey `json:"result"`
}

func (k requestKey) String() string {
	return k.Identifier + ":" + strconv.FormatUint(k.ReqID, 10)
}

// NewWSTransport returns a new WSTransport with established websocket
// connection. You need to use websocket URL for it like `ws://1.2.3.4/ws`.
func NewWSTransport(ctx context.Context, endpoint string, opts Options) (*WSTransport, error) {
	opts.applyDefaults()
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, transportError(ctx, err)
	}
	t := &WSTransport{
		ws:       ws,
		opts:     opts,
		done:     make(chan struct{}),
		requests: make(chan []byte),
		shutdown: make(chan struct{}),
		pending:  make(map[string]chan []byte),
	}
	go t.wsReader()
	go t.wsWriter()
	return t, nil
}

// Close closes connection to the remote side rendering this transport
// unusable.
func (t *WSTransport) Close() {
	// Closing shutdown channel makes wsWriter close the connection which in
	// turn makes wsReader fail and close t.done.
	t.closer.Do(func() { close(t.shutdown) })
	<-t.done
}

func (t *WSTransport) wsReader() {
	t.ws.SetReadLimit(wsReadLimit)
	t.ws.SetPongHandler(func(string) error { return t.ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
	for {
		_ = t.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		_, data, err := t.ws.ReadMessage()
		if err != nil {
			// Timeout/connection loss.
			break
		}
		var k replyKey
		if err := json.Unmarshal(data, &k); err != nil {
			// Not a reply at all, nothing to match it with.
			continue
		}
		key := k.requestKey
		if key.ReqID == 0 && k.Result != nil {
			key = *k.Result
		}
		t.pendingLock.Lock()
		ch, ok := t.pending[key.String()]
		if ok {
			delete(t.pending, key.String())
		}
		t.pendingLock.Unlock()
		if ok {
			ch <- data
		}
	}
	close(t.done)
}

func (t *WSTransport) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer t.ws.Close()
	defer pingTicker.Stop()
	for {
		select {
		case <-t.shutdown:
			return
		case <-t.done:
			return
		case req := <-t.requests:
			_ = t.ws.SetWriteDeadline(time.Now().Add(t.opts.RequestTimeout))
			if err := t.ws.WriteMessage(websocket.TextMessage, req); err != nil {
				return
			}
		case <-pingTicker.C:
			_ = t.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit))
			if err := t.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// Submit implements the Transport interface.
func (t *WSTransport) Submit(ctx context.Context, body []byte) ([]byte, error) {
	var k requestKey
	if err := json.Unmarshal(body, &k); err != nil {
		return nil, fmt.Errorf("bad request: %w", err)
	}
	key := k.String()
	ch := make(chan []byte, 1)

	t.pendingLock.Lock()
	if _, ok := t.pending[key]; ok {
		t.pendingLock.Unlock()
		return nil, errors.New("request with the same identifier and reqId is already pending")
	}
	t.pending[key] = ch
	t.pendingLock.Unlock()
	defer func() {
		t.pendingLock.Lock()
		delete(t.pending, key)
		t.pendingLock.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, t.opts.RequestTimeout)
	defer cancel()

	select {
	case <-t.done:
		return nil, errConnLost
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case t.requests <- body:
	}
	select {
	case <-t.done:
		return nil, errConnLost
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case resp := <-ch:
		return resp, nil
	}
}

// String returns the node endpoint.
func (t *WSTransport) String() string {
	return t.ws.RemoteAddr().String()
}
