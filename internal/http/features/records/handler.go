package records

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tenantd/tenantd/internal/http/middleware"
	"github.com/tenantd/tenantd/internal/httputil"
	"github.com/tenantd/tenantd/pkg/auth"
	"github.com/tenantd/tenantd/pkg/domain"
	"github.com/tenantd/tenantd/pkg/repository"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 10000
	defaultLimit   = 50
)

// Handler handles the tenant-scoped records resource. Every operation
// runs against the partition handle the guard resolved; there is no way
// to name another organization's data from here.
type Handler struct {
	logger  *slog.Logger
	records *repository.RecordsRepository
}

// NewHandler creates a new records handler.
func NewHandler(logger *slog.Logger, records *repository.RecordsRepository) *Handler {
	return &Handler{
		logger:  logger,
		records: records,
	}
}

// CreateRequest represents a record creation request.
type CreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// RecordResponse represents a record in API responses.
type RecordResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func recordResponse(rec *domain.Record) RecordResponse {
	return RecordResponse{
		ID:        rec.ID.String(),
		Title:     rec.Title,
		Body:      rec.Body,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// Create inserts a record into the caller's partition.
// POST /v1/orgs/{org}/records
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := auth.SanitizeName(req.Title)
	if err := auth.ValidateStringLength("title", title, 1, maxTitleLength); err != nil {
		httputil.DomainError(w, err)
		return
	}
	if err := auth.ValidateStringLength("body", req.Body, 0, maxBodyLength); err != nil {
		httputil.DomainError(w, err)
		return
	}

	now := time.Now()
	rec := &domain.Record{
		ID:        uuid.New(),
		Title:     title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.records.Create(r.Context(), partition, rec); err != nil {
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, recordResponse(rec))
}

// List returns the partition's records, newest first.
// GET /v1/orgs/{org}/records
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	recs, err := h.records.List(r.Context(), partition, defaultLimit)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordResponse(rec))
	}

	httputil.JSON(w, http.StatusOK, map[string]any{"records": out})
}

// Get returns a single record from the caller's partition.
// GET /v1/orgs/{org}/records/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	partition, ok := middleware.GetPartition(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid record id")
		return
	}

	rec, err := h.records.GetByID(r.Context(), partition, id)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, recordResponse(rec))
}
