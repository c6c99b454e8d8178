package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nametag-labs/nametag/internal/domain"
	"github.com/nametag-labs/nametag/internal/service"
	"github.com/nametag-labs/nametag/internal/store"
)

type ContactHandler struct {
	resolver *service.Resolver
	contacts domain.ContactStore
}

func NewContactHandler(resolver *service.Resolver, contacts domain.ContactStore) *ContactHandler {
	return &ContactHandler{resolver: resolver, contacts: contacts}
}

// Resolve runs one resolution pass for a known contact.
func (h *ContactHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	inboxID := chi.URLParam(r, "inboxID")
	if inboxID == "" {
		writeError(w, http.StatusBadRequest, "inbox id is required")
		return
	}

	contact, err := h.resolver.Resolve(r.Context(), inboxID)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

type resolveIdentifierRequest struct {
	Identifier string `json:"identifier"`
}

// ResolveIdentifier runs a pass from a raw identifier: an address, a bare
// hex string, an inbox id, or a resolvable name.
func (h *ContactHandler) ResolveIdentifier(w http.ResponseWriter, r *http.Request) {
	var req resolveIdentifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	contact, err := h.resolver.ResolveIdentifier(r.Context(), req.Identifier)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) GetByInboxID(w http.ResponseWriter, r *http.Request) {
	inboxID := chi.URLParam(r, "inboxID")

	contact, err := h.contacts.GetByInboxID(r.Context(), inboxID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load contact")
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoUsableAddress),
		errors.Is(err, service.ErrNoCanonicalInbox),
		errors.Is(err, service.ErrUnresolvableIdentifier):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "resolution failed")
	}
}
