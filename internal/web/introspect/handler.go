// Package introspect exposes compiled model metadata and relations over a
// read-only HTTP API.
package introspect

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
	"github.com/conduit-lang/modelmeta/internal/orm/relations"
)

// MetadataSource returns the compiled metadata of a model
type MetadataSource interface {
	Metadata(ctx context.Context, model string) (*metadata.ModelMetadata, error)
}

// ColumnSource answers the secondary column queries of a model
type ColumnSource interface {
	ColumnMap(model string) (metadata.ColumnMap, error)
	Sizes(model string) (map[string]int, error)
}

// RelationSource wires a model on its first request
type RelationSource interface {
	Initialize(model string) (bool, error)
}

// Deps are the collaborators of the API
type Deps struct {
	Models   func() []string
	Metadata MetadataSource
	Columns  ColumnSource
	Wirer    RelationSource
	Registry *relations.ModelRegistry
	Logger   *zap.Logger
}

// Handler serves the introspection API
type Handler struct {
	deps   Deps
	logger *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{deps: deps, logger: logger}
}

// Routes returns the API router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.health)
	r.Get("/stats", h.stats)
	r.Route("/models", func(r chi.Router) {
		r.Get("/", h.listModels)
		r.Route("/{model}", func(r chi.Router) {
			r.Get("/metadata", h.modelMetadata)
			r.Get("/columns", h.modelColumns)
			r.Get("/relations", h.modelRelations)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listModels(w http.ResponseWriter, r *http.Request) {
	models := []string{}
	if h.deps.Models != nil {
		models = append(models, h.deps.Models()...)
	}
	renderJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (h *Handler) modelMetadata(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	meta, err := h.deps.Metadata.Metadata(r.Context(), model)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderCached(w, r, meta)
}

// columnsResponse is the payload of GET /models/{model}/columns
type columnsResponse struct {
	metadata.ColumnMap
	Sizes map[string]int `json:"sizes"`
}

func (h *Handler) modelColumns(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	cm, err := h.deps.Columns.ColumnMap(model)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	sizes, err := h.deps.Columns.Sizes(model)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderCached(w, r, columnsResponse{ColumnMap: cm, Sizes: sizes})
}

// relationsResponse is the payload of GET /models/{model}/relations
type relationsResponse struct {
	Model      string                         `json:"model"`
	Connection string                         `json:"connection,omitempty"`
	Source     string                         `json:"source,omitempty"`
	Relations  []relations.RelationDefinition `json:"relations"`
}

func (h *Handler) modelRelations(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	if _, err := h.deps.Wirer.Initialize(model); err != nil {
		h.renderError(w, r, err)
		return
	}

	resp := relationsResponse{
		Model:     model,
		Relations: h.deps.Registry.Relations(model),
	}
	resp.Connection, _ = h.deps.Registry.ConnectionService(model)
	resp.Source, _ = h.deps.Registry.Source(model)
	renderJSON(w, http.StatusOK, resp)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.deps.Registry.Stats())
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
