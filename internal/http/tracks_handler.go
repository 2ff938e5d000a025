package http

import (
	"encoding/json"
	"net/http"

	"bookfinder/internal/httpx"
	"bookfinder/internal/platform/spotify"
)

// TracksHandler hosts the embedded music-track search: a token proxy for
// browser clients and a server-side track search. A failure here aborts the
// current action only; the rest of the application is unaffected.
type TracksHandler struct {
	tokens spotify.TokenSource
	client *spotify.Client
}

func NewTracksHandler(tokens spotify.TokenSource, client *spotify.Client) *TracksHandler {
	return &TracksHandler{tokens: tokens, client: client}
}

// Token serves GET /spotify-token. The response is the bare
// {"access_token": "..."} object: the proxy contract is fixed and consumers
// do not expect the envelope.
func (h *TracksHandler) Token(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Token(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusBadGateway, "TOKEN_UNAVAILABLE", "Failed to get streaming token", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
}

// Search serves GET /tracks?q=.
func (h *TracksHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "q is required", nil)
		return
	}

	tracks, err := h.client.SearchTracks(r.Context(), query)
	if err != nil {
		httpx.JSONError(w, http.StatusBadGateway, "TRACK_SEARCH_FAILED", "Failed to fetch track search results", nil)
		return
	}
	httpx.JSONSuccess(w, tracks, map[string]int{"count": len(tracks)})
}
