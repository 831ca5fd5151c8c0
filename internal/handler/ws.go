package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/assetra/tradecore/internal/service"
)

// StreamHandler upgrades GET /ws and relays facade events to the client
// as JSON messages.
type StreamHandler struct {
	facade   *service.Facade
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(facade *service.Facade, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		facade: facade,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Serve handles GET /ws. One subscription per connection; the
// connection closes when the client goes away or the write fails.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.facade.Subscribe(64)

	// Drain reads so close frames are processed; the client sends
	// nothing we act on.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.facade.Unsubscribe(sub)
				return
			}
		}
	}()

	go func() {
		defer conn.Close()
		for evt := range sub.C {
			if err := conn.WriteJSON(evt); err != nil {
				h.facade.Unsubscribe(sub)
				return
			}
		}
	}()
}
