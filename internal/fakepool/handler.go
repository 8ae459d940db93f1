package fakepool

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxRequestBodyBytes = 5 * 1024 * 1024
	wsPongLimit         = 60 * time.Second
	wsWriteLimit        = 15 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// ServeHTTP implements http.Handler. POST requests carry a single request in
// the body, GET /ws upgrades to a websocket with one request per frame.
func (p *Pool) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" && r.Method == http.MethodGet {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			p.log.Info("websocket connection upgrade failed", zap.Error(err))
			return
		}
		p.handleWs(ws)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "only POST is supported", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(p.Process(body))
}

func (p *Pool) handleWs(ws *websocket.Conn) {
	defer ws.Close()
	ws.SetReadLimit(maxRequestBodyBytes)
	err := ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
	for err == nil {
		var data []byte
		_, data, err = ws.ReadMessage()
		if err != nil {
			break
		}
		reply := p.Process(data)
		err = ws.SetWriteDeadline(time.Now().Add(wsWriteLimit))
		if err == nil {
			err = ws.WriteMessage(websocket.TextMessage, reply)
		}
	}
}
