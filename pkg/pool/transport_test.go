package pool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/vdr-go/internal/fakepool"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/request"
	"github.com/nspcc-dev/vdr-go/pkg/ledger/response"
	"github.com/stretchr/testify/require"
)

func getNymBytes(t *testing.T, dest string) (*request.Request, []byte) {
	r, err := request.BuildGetNymRequest(dest, dest)
	require.NoError(t, err)
	data, err := r.Bytes()
	require.NoError(t, err)
	return r, data
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHTTPTransport(t *testing.T) {
	p := fakepool.New(nil)
	srv := httptest.NewServer(p)
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL, Options{})
	require.NoError(t, err)
	defer tr.Close()
	require.Equal(t, srv.URL, tr.String())

	r, data := getNymBytes(t, p.Steward.DID())
	reply, err := tr.Submit(context.Background(), data)
	require.NoError(t, err)
	e, err := response.Parse(reply)
	require.NoError(t, err)
	require.Equal(t, response.OpReply, e.Op)
	require.Equal(t, r.ReqID, e.ReqID)

	_, err = NewHTTPTransport("http://[::1", Options{})
	require.Error(t, err)
}

func TestHTTPTransportErrors(t *testing.T) {
	_, data := getNymBytes(t, "Th7MpTaRZVRYnPiabds81Y")

	t.Run("HTTP error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "broken", http.StatusInternalServerError)
		}))
		defer srv.Close()
		tr, err := NewHTTPTransport(srv.URL, Options{})
		require.NoError(t, err)
		_, err = tr.Submit(context.Background(), data)
		require.ErrorIs(t, err, ErrConnection)
		require.Contains(t, err.Error(), "500")
	})
	t.Run("JSON with HTTP error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"op":"REQNACK","reason":"bad"}`))
		}))
		defer srv.Close()
		tr, err := NewHTTPTransport(srv.URL, Options{})
		require.NoError(t, err)
		reply, err := tr.Submit(context.Background(), data)
		require.NoError(t, err)
		require.Equal(t, `{"op":"REQNACK","reason":"bad"}`, string(reply))
	})
	t.Run("not JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`REPLY`))
		}))
		defer srv.Close()
		tr, err := NewHTTPTransport(srv.URL, Options{})
		require.NoError(t, err)
		_, err = tr.Submit(context.Background(), data)
		require.ErrorIs(t, err, ErrConnection)
	})
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		tr, err := NewHTTPTransport(url, Options{})
		require.NoError(t, err)
		_, err = tr.Submit(context.Background(), data)
		require.ErrorIs(t, err, ErrConnection)
	})
	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)
		tr, err := NewHTTPTransport(srv.URL, Options{RequestTimeout: 50 * time.Millisecond})
		require.NoError(t, err)
		_, err = tr.Submit(context.Background(), data)
		require.ErrorIs(t, err, ErrTimeout)

		tr, err = NewHTTPTransport(srv.URL, Options{})
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = tr.Submit(ctx, data)
		require.ErrorIs(t, err, ErrTimeout)
	})
}

func TestWSTransport(t *testing.T) {
	p := fakepool.New(nil)
	srv := httptest.NewServer(p)
	defer srv.Close()

	tr, err := NewWSTransport(context.Background(), wsURL(srv), Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, data := getNymBytes(t, p.Trustee.DID())
			reply, err := tr.Submit(context.Background(), data)
			require.NoError(t, err)
			e, err := response.Parse(reply)
			require.NoError(t, err)
			require.Equal(t, r.ReqID, e.ReqID)
		}()
	}
	wg.Wait()

	tr.Close()
	_, data := getNymBytes(t, p.Trustee.DID())
	_, err = tr.Submit(context.Background(), data)
	require.ErrorIs(t, err, ErrConnection)
	tr.Close()
}

func TestWSTransportErrors(t *testing.T) {
	t.Run("dial", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		_, err := NewWSTransport(context.Background(), wsURL(srv), Options{})
		require.ErrorIs(t, err, ErrConnection)
	})
	t.Run("no reply", func(t *testing.T) {
		upgrader := websocket.Upgrader{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer ws.Close()
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}))
		defer srv.Close()
		tr, err := NewWSTransport(context.Background(), wsURL(srv), Options{RequestTimeout: 50 * time.Millisecond})
		require.NoError(t, err)
		defer tr.Close()

		_, data := getNymBytes(t, "Th7MpTaRZVRYnPiabds81Y")
		_, err = tr.Submit(context.Background(), data)
		require.ErrorIs(t, err, ErrTimeout)
	})
	t.Run("not a request", func(t *testing.T) {
		srv := httptest.NewServer(fakepool.New(nil))
		defer srv.Close()
		tr, err := NewWSTransport(context.Background(), wsURL(srv), Options{})
		require.NoError(t, err)
		defer tr.Close()
		_, err = tr.Submit(context.Background(), []byte(`[]`))
		require.Error(t, err)
	})
}
