// handler/http/server.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/logisa/automation-service/internal/ai"
	"github.com/logisa/automation-service/internal/mode"
	"github.com/logisa/automation-service/internal/models"
	"github.com/logisa/automation-service/internal/webhook"
	"github.com/logisa/automation-service/store"
)

// maxBodyBytes caps webhook and message bodies. Providers send small
// JSON documents; anything bigger is not a callback.
const maxBodyBytes = 1 << 20

// Server is the HTTP surface of the automation service: the
// message-processing endpoint, one raw-body webhook endpoint per
// provider, and the operator/read endpoints around them.
type Server struct {
	switcher   *mode.Switcher
	ingestion  *webhook.Service
	processors map[string]webhook.Processor // route suffix -> processor
	shipments  store.ShipmentStore
	addr       string
}

func NewServer(
	switcher *mode.Switcher,
	ingestion *webhook.Service,
	shipments store.ShipmentStore,
	addr string,
) *Server {
	return &Server{
		switcher:   switcher,
		ingestion:  ingestion,
		processors: make(map[string]webhook.Processor),
		shipments:  shipments,
		addr:       addr,
	}
}

// RegisterWebhook mounts a provider processor at the given path.
func (s *Server) RegisterWebhook(path string, processor webhook.Processor) {
	s.processors[path] = processor
}

// Handler builds the route table. Split out from Start so tests can drive
// the mux through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/process-message", s.handleProcessMessage)
	mux.HandleFunc("/api/mode", s.handleMode)
	mux.HandleFunc("/api/shipments", s.handleListShipments)
	mux.HandleFunc("/api/health", s.handleHealth)

	for path, processor := range s.processors {
		mux.HandleFunc(path, s.webhookHandler(processor))
	}

	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http shutdown: %v", err)
		}
	}()

	log.Printf("[HTTP] automation service listening on %s", s.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// processMessageRequest is the inbound message contract. Known carries
// entities the channel already collected on earlier turns.
type processMessageRequest struct {
	Message string `json:"message"`
	Channel string `json:"channel"`
	User    struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
	} `json:"user"`
	Known struct {
		Origin       *string             `json:"origin"`
		Destination  *string             `json:"destination"`
		Weight       *float64            `json:"weight"`
		PackageType  *models.PackageType `json:"packageType"`
		CustomerName *string             `json:"customerName"`
	} `json:"known"`
}

func (s *Server) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req processMessageRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message required"})
		return
	}

	channel := models.SourceChannel(req.Channel)
	if req.Channel == "" {
		channel = models.ChannelWhatsApp
	}

	result := s.switcher.ProcessMessage(r.Context(), req.Message, channel, mode.UserContext{
		Name:    req.User.Name,
		Contact: req.User.Contact,
		Known: ai.Entities{
			Origin:       req.Known.Origin,
			Destination:  req.Known.Destination,
			Weight:       req.Known.Weight,
			PackageType:  req.Known.PackageType,
			CustomerName: req.Known.CustomerName,
		},
	})

	writeJSON(w, http.StatusOK, result)
}

// webhookHandler wires one provider processor to one raw-body endpoint.
// The body bytes go to the verifier exactly as received; no re-decode or
// re-serialization happens before hashing.
func (s *Server) webhookHandler(processor webhook.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "unreadable body"})
			return
		}

		event, err := processor.VerifyAndParse(payload, r.Header)
		switch {
		case errors.Is(err, webhook.ErrInvalidSignature):
			// Generic message on purpose: never echo the expected value.
			log.Printf("[Webhook] %s signature verification failed", processor.Provider())
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "message": "invalid webhook signature"})
			return
		case errors.Is(err, webhook.ErrMalformedPayload), errors.Is(err, webhook.ErrMissingField):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "message": "invalid payload"})
			return
		case err != nil:
			log.Printf("[Webhook] %s processing error: %v", processor.Provider(), err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false})
			return
		}

		// Authentic but nothing to apply: acknowledged no-op.
		if event == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
			return
		}

		count, err := s.ingestion.HandleEvent(r.Context(), *event)
		if err != nil {
			log.Printf("[Webhook] %s apply error: %v", processor.Provider(), err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "updated": count})
	}
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"mode": string(s.switcher.GetMode())})

	case http.MethodPost:
		var req struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
			return
		}
		if err := s.switcher.SetMode(mode.Mode(req.Mode)); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"mode": string(s.switcher.GetMode())})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleListShipments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	list, err := s.shipments.ListShipments(r.Context(), int32(limit), int32(offset))
	if err != nil {
		log.Printf("[HTTP] list shipments failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	if list == nil {
		list = []models.Shipment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] failed to encode response: %v", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[HTTP] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
