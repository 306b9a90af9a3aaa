package tracking

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// FileResolver maps hosted file ids to local paths. Implemented by the
// hostfiles registry.
type FileResolver interface {
	Resolve(id string) (path, displayName string, ok bool)
}

// Handler serves the pixel, hosted files, and run status.
type Handler struct {
	store   *Store
	gate    RateGate
	replies *Replier
	files   FileResolver
}

// NewHandler creates the tracking HTTP handler.
func NewHandler(store *Store, gate RateGate, replies *Replier, files FileResolver) *Handler {
	return &Handler{store: store, gate: gate, replies: replies, files: files}
}

// Routes builds the chi router for the tracking server.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))
	r.Get("/track", h.HandleOpen)
	r.Get("/file/{fileID}/{name}", h.HandleFile)
	r.Get("/status", h.HandleStatus)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records an open event and serves the pixel. The response is
// always a valid image: a malformed or unknown id is logged and ignored,
// never surfaced as an HTTP error.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.servePixel(w)
		return
	}

	rec, known := h.store.MarkOpened(id)
	if !known {
		logger.Warn("pixel hit for unknown tracking id", "tracking_id", id)
		h.servePixel(w)
		return
	}

	logger.Info("message opened", "email", rec.Email, "tracking_id", id)

	// Auto-reply: the replied flag and the rate gate are independent
	// necessary conditions. The flag is claimed before enqueueing so a
	// racing duplicate hit cannot enqueue twice.
	if !rec.Replied && h.gate.Allow(r.Context(), rec.Email) {
		if h.store.ClaimReply(id) {
			h.replies.Enqueue(ReplyJob{TrackingID: id, Email: rec.Email})
		}
	}

	h.servePixel(w)
}

// HandleFile streams a hosted attachment or 404s for unknown ids.
func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")
	path, name, ok := h.files.Resolve(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

// HandleStatus returns the per-recipient status table as JSON.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"counts":  h.store.Counts(),
		"records": h.store.Snapshot(),
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}
