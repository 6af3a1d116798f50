package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/models"
	"leadbook/internal/platform/metrics"
	"leadbook/internal/platform/middleware"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/platform/httputil"
	"leadbook/pkg/requestcontext"
)

// maxImportBytes bounds CSV uploads; 200 rows fit comfortably.
const maxImportBytes = 2 << 20

// Service defines the buyer operations the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, actor string, raw map[string]any) (*models.Buyer, error)
	Get(ctx context.Context, id string) (*models.BuyerDetail, error)
	List(ctx context.Context, p filter.Params, order filter.Order) (*models.Page, error)
	Update(ctx context.Context, actor, id string, raw map[string]any) (*models.Buyer, error)
	Delete(ctx context.Context, actor, id string) error
	ImportCSV(ctx context.Context, actor string, r io.Reader) (*models.ImportResult, error)
	ExportCSV(ctx context.Context, p filter.Params, w io.Writer) error
}

// Middleware is a standard net/http middleware.
type Middleware = func(http.Handler) http.Handler

// Guards are the middlewares applied to buyer routes. Nil entries are skipped.
type Guards struct {
	Auth        Middleware
	CreateLimit Middleware
	UpdateLimit Middleware
}

// Handler serves the /api/buyers endpoints.
type Handler struct {
	logger  *slog.Logger
	buyers  Service
	metrics *metrics.Metrics
	guards  Guards
}

// New creates a new buyer Handler.
func New(buyers Service, logger *slog.Logger, metrics *metrics.Metrics, guards Guards) *Handler {
	return &Handler{
		logger:  logger,
		buyers:  buyers,
		metrics: metrics,
		guards:  guards,
	}
}

// Register registers the buyer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/buyers", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.LatencyMiddleware(h.metrics))
		use(r, h.guards.Auth)

		with(r, h.guards.CreateLimit).Post("/", h.handleCreate)
		r.Get("/", h.handleList(filter.OrderDesc))
		r.Get("/filter", h.handleList(filter.OrderAsc))
		r.Get("/export", h.handleExport)
		r.Post("/import", h.handleImport)
		r.Get("/{id}", h.handleGet)
		with(r, h.guards.UpdateLimit).Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Delete("/{id}/delete", h.handleDelete)
	})
}

func use(r chi.Router, mw Middleware) {
	if mw != nil {
		r.Use(mw)
	}
}

func with(r chi.Router, mw Middleware) chi.Router {
	if mw == nil {
		return r
	}
	return r.With(mw)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	raw, err := httputil.DecodeJSONObject(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid create buyer request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	b, err := h.buyers.Create(ctx, actor, raw)
	if err != nil {
		h.writeServiceError(ctx, w, err, "create buyer")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleList(order filter.Order) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		page, err := h.buyers.List(ctx, filter.ParseParams(r.URL.Query()), order)
		if err != nil {
			h.writeServiceError(ctx, w, err, "list buyers")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, page)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	detail, err := h.buyers.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(ctx, w, err, "get buyer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	raw, err := httputil.DecodeJSONObject(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid update buyer request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, sent := raw[models.FieldID]; !sent {
		raw[models.FieldID] = id
	}

	b, err := h.buyers.Update(ctx, actor, id, raw)
	if err != nil {
		h.writeServiceError(ctx, w, err, "update buyer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.buyers.Delete(ctx, actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(ctx, w, err, "delete buyer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleImport accepts a multipart upload in the "file" field or a raw text/csv body.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	body, closeBody, err := importBody(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid import request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	defer closeBody()

	result, err := h.buyers.ImportCSV(ctx, actor, body)
	if err != nil {
		h.writeServiceError(ctx, w, err, "import buyers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func importBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "Content-Type must be multipart/form-data or text/csv")
	}
	switch mediaType {
	case "multipart/form-data":
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "multipart field \"file\" is required")
		}
		return file, func() { _ = file.Close() }, nil
	case "text/csv", "text/plain":
		return r.Body, func() {}, nil
	default:
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "Content-Type must be multipart/form-data or text/csv")
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var buf bytes.Buffer
	if err := h.buyers.ExportCSV(ctx, filter.ParseParams(r.URL.Query()), &buf); err != nil {
		h.writeServiceError(ctx, w, err, "export buyers")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="buyers.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		// This should never happen if RequireAuth middleware is configured correctly
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return userID, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.InfoContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", string(dErrors.CodeOf(err)),
		)
	}
	httputil.WriteError(w, err)
}
