package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"voicehook/pkg/logger"

	"go.uber.org/zap"
)

// Server exposes the webhook HTTP surface: the inbound event endpoint,
// the administrative webhook registration endpoints and liveness probes.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, h *Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.HandleUpdate)
	mux.HandleFunc("POST /set-webhook", h.HandleSetWebhook)
	mux.HandleFunc("POST /delete-webhook", h.HandleDeleteWebhook)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /{$}", handleRoot)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// HandleSetWebhook registers the webhook with the messaging platform and
// relays its raw acknowledgment. Safe to call repeatedly with the same URL.
func (h *Handler) HandleSetWebhook(w http.ResponseWriter, r *http.Request) {
	baseURL := r.URL.Query().Get("url")
	if baseURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url query parameter is required"})
		return
	}

	raw, err := h.relay.SetWebhook(baseURL)
	if err != nil {
		logger.Error("Webhook registration failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"result": raw})
}

// HandleDeleteWebhook removes the registered webhook.
func (h *Handler) HandleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	raw, err := h.relay.DeleteWebhook()
	if err != nil {
		logger.Error("Webhook removal failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"result": raw})
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "running",
		"app":    "voicehook",
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
