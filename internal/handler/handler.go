package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"checkin-offers-api/internal/catalog"
	"checkin-offers-api/internal/database"
	"checkin-offers-api/internal/features"
	"checkin-offers-api/internal/logging"
	"checkin-offers-api/internal/models"
	"checkin-offers-api/internal/selection"
	"checkin-offers-api/internal/service"
	"checkin-offers-api/internal/validation"
)

// Handler provides HTTP handlers for the API.
type Handler struct {
	service     *service.Service
	features    *features.Manager
	maxBodySize int64
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
	// Features, when set, is exposed read-only at GET /features.
	Features *features.Manager
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 10 << 20, // 10MB default
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service) *Handler {
	return NewHandlerWithOptions(svc, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, opts NewHandlerOptions) *Handler {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultHandlerOptions().MaxBodySize
	}
	return &Handler{
		service:     svc,
		features:    opts.Features,
		maxBodySize: opts.MaxBodySize,
	}
}

// Routes registers the offer and recommendation endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/offers", func(r chi.Router) {
		r.Post("/", h.CreateOffer)
		r.Get("/", h.ListOffers)
		r.Post("/import", h.ImportOffers)
		r.Get("/{id}", h.GetOffer)
		r.Delete("/{id}", h.DeleteOffer)
	})

	r.Route("/recommendations", func(r chi.Router) {
		r.Post("/", h.Recommend)
		r.Get("/", h.RecommendFromCatalog)
	})

	if h.features != nil {
		r.Get("/features", h.ListFeatures)
	}
}

// CreateOffer handles POST /offers
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent abuse
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.Offer
	if !h.decodeJSON(w, r, &req) {
		return
	}

	offer := validation.SanitizeOffer(req)
	if err := h.service.CreateOffer(r.Context(), offer); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, offer)
}

// ImportOffers handles POST /offers/import. The body is a JSON array of
// offers, or a YAML sequence when sent as application/yaml.
func (h *Handler) ImportOffers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	format := catalog.FormatJSON
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mediaType {
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = catalog.FormatYAML
		}
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	offers, err := catalog.Decode(bytes.NewReader(body), format)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid catalog in request body")
		return
	}

	for i := range offers {
		offers[i] = validation.SanitizeOffer(offers[i])
	}

	imported, err := h.service.ImportOffers(r.Context(), offers)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, models.ImportOffersResponse{Imported: imported})
}

// ListOffers handles GET /offers
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListOffers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetOffer handles GET /offers/{id}
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateOfferID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.GetOffer(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, offer)
}

// DeleteOffer handles DELETE /offers/{id}
func (h *Handler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateOfferID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteOffer(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recommend handles POST /recommendations
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.RecommendRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	req.Checkin = validation.SanitizeString(req.Checkin)
	req.AgeGroup = validation.SanitizeString(req.AgeGroup)
	req.Gender = validation.SanitizeString(req.Gender)

	resp, err := h.service.Recommend(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// RecommendFromCatalog handles GET /recommendations?checkin=&age_group=&gender=
func (h *Handler) RecommendFromCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	checkin := validation.SanitizeString(q.Get("checkin"))
	ageGroup := validation.SanitizeString(q.Get("age_group"))
	gender := validation.SanitizeString(q.Get("gender"))

	resp, err := h.service.RecommendFromCatalog(r.Context(), checkin, ageGroup, gender)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ListFeatures handles GET /features
func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.features.GetAll())
}

// readBody reads the whole request body, writing a 413 when it exceeds the
// MaxBytesReader limit.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, ok := h.readBody(w, r)
	if !ok {
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		h.respondError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON in request body")
		return false
	}
	return true
}

// statusFor maps service and pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, selection.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrOfferNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInlineDisabled):
		return http.StatusForbidden
	case errors.Is(err, selection.ErrKeyLookup), errors.Is(err, selection.ErrEmptyMerchantList):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondServiceError writes err with its mapped status. Server errors are
// logged and their details withheld from the client.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		h.respondError(w, status, "internal server error")
		return
	}
	h.respondError(w, status, err.Error())
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
