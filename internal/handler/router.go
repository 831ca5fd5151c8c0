package handler

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/assetra/tradecore/internal/service"
)

// Principal is carried in a header: the core takes an explicit caller
// on every operation instead of an ambient current user.
const principalHeader = "X-Principal"

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(facade *service.Facade, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	assetH := NewAssetHandler(facade)
	orderH := NewOrderHandler(facade)
	escrowH := NewEscrowHandler(facade)
	streamH := NewStreamHandler(facade, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Asset and market data routes.
	r.Get("/assets", assetH.List)
	r.Get("/assets/{asset_id}", assetH.Get)
	r.Get("/assets/{asset_id}/book", assetH.GetBook)
	r.Get("/assets/{asset_id}/stats", assetH.GetStats)
	r.Get("/assets/{asset_id}/trades", assetH.ListTrades)

	// Order routes.
	r.Post("/orders", orderH.Create)
	r.Delete("/orders/{order_id}", orderH.Cancel)
	r.Get("/orders", orderH.ListMine)

	// Execution and history.
	r.Post("/executions", orderH.ExecuteMarket)
	r.Get("/trades", assetH.ListAllTrades)
	r.Get("/me/trades", orderH.ListMyTrades)
	r.Get("/me/positions", orderH.ListMyPositions)

	// Escrow routes.
	r.Post("/escrows", escrowH.Create)
	r.Get("/escrows", escrowH.ListActive)
	r.Post("/escrows/{escrow_id}/fund", escrowH.Fund)
	r.Post("/escrows/{escrow_id}/release", escrowH.Release)
	r.Post("/escrows/{escrow_id}/dispute", escrowH.Dispute)
	r.Post("/escrows/{escrow_id}/refund", escrowH.Refund)

	// Event stream.
	r.Get("/ws", streamH.Serve)

	return r
}

// principal extracts the caller identifier from the request.
func principal(r *http.Request) string {
	return r.Header.Get(principalHeader)
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration.
func requestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController, so
// handlers that hijack the connection (the websocket upgrade) still
// work behind the logging wrapper.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// contentTypeJSON validates Content-Type for POST, PUT, and PATCH
// requests before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
