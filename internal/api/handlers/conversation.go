package handlers

import (
	"net/http"
	"strings"

	"github.com/nametag-labs/nametag/internal/domain"
)

type ConversationHandler struct {
	conversations domain.ConversationStore
}

func NewConversationHandler(conversations domain.ConversationStore) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// ListByPeer returns the threads whose peer id matches any of the
// comma-separated candidates in the peer query parameter.
func (h *ConversationHandler) ListByPeer(w http.ResponseWriter, r *http.Request) {
	peer := r.URL.Query().Get("peer")
	if peer == "" {
		writeError(w, http.StatusBadRequest, "peer query parameter is required")
		return
	}

	var candidates []string
	for _, p := range strings.Split(peer, ",") {
		if p = strings.TrimSpace(p); p != "" {
			candidates = append(candidates, p)
		}
	}

	convs, err := h.conversations.ListByPeerCandidates(r.Context(), candidates)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}
