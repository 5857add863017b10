package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/offerarena/offerarena/internal/debate"
	"github.com/offerarena/offerarena/internal/domain"
	"github.com/offerarena/offerarena/internal/identity"
	"github.com/offerarena/offerarena/internal/transport"
)

// maxRequestBodySize caps offer payloads (1MB).
const maxRequestBodySize = 1 << 20

// OfferHandler is the REST surface over the orchestrator: the structured
// (modal-equivalent) path for offer CRUD plus a read-only history view.
type OfferHandler struct {
	orch *debate.Orchestrator
}

// NewOfferHandler creates the REST handler.
func NewOfferHandler(orch *debate.Orchestrator) *OfferHandler {
	return &OfferHandler{orch: orch}
}

// RegisterRoutes mounts the offer and history endpoints.
func (h *OfferHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/offers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/notes", h.AppendNote)
	})
	r.Get("/api/history", h.History)
}

// List returns the caller's live offers in creation order.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	JSON(w, http.StatusOK, h.orch.ListOffers(userID))
}

// Create makes a new offer from a full field set and triggers the new
// persona's opening argument on the caller's chat channel.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var fields domain.OfferFields
	if !decodeBody(w, r, &fields) {
		return
	}

	offer, err := h.orch.SubmitOffer(r.Context(), userID, transport.UserChannel(userID), fields)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, offer)
}

// Get returns one offer by id.
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	offer, err := h.orch.GetOffer(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, offer)
}

// Update overwrites only the supplied fields of an offer.
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var fields domain.OfferFields
	if !decodeBody(w, r, &fields) {
		return
	}

	offer, err := h.orch.UpdateOffer(r.Context(), userID, chi.URLParam(r, "id"), fields)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, offer)
}

// Delete removes an offer and returns its prior value.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	offer, err := h.orch.RemoveOffer(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, offer)
}

// AppendNote attaches one extra note to an offer.
func (h *OfferHandler) AppendNote(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var body struct {
		Note string `json:"note"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Note == "" {
		Error(w, http.StatusBadRequest, "note must not be empty")
		return
	}

	offer, err := h.orch.AppendNote(userID, chi.URLParam(r, "id"), body.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, offer)
}

// History returns the caller's full debate history, oldest first.
func (h *OfferHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	JSON(w, http.StatusOK, h.orch.History(userID))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, err error) {
	var fetchErr *domain.FetchError
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, "offer not found")
	case errors.As(err, &validationErr):
		Error(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &fetchErr):
		Error(w, http.StatusBadGateway, "failed to fetch job description URL")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
