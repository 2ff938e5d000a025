package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAccountsURL = "https://accounts.spotify.com/api/token"
	defaultAPIBaseURL  = "https://api.spotify.com/v1"

	// trackSearchLimit is fixed: the embedded track search always asks for
	// ten results.
	trackSearchLimit = 10
)

// ErrNoAccessToken is returned when a token response carries no access_token.
// This is the one hard failure in the track-search flow; it aborts the
// current action only.
var ErrNoAccessToken = fmt.Errorf("spotify: token response missing access_token")

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenSource yields a bearer token for the streaming API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ClientCredentials exchanges an app id/secret for an access token using the
// client-credentials grant. It backs the local /spotify-token proxy endpoint.
type ClientCredentials struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
}

func NewClientCredentials(clientID, clientSecret string) *ClientCredentials {
	return &ClientCredentials{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenURL:     defaultAccountsURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// WithTokenURL overrides the accounts endpoint, for tests.
func (c *ClientCredentials) WithTokenURL(u string) *ClientCredentials {
	c.tokenURL = u
	return c
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify: token exchange: unexpected status code %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("spotify: token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return tok.AccessToken, nil
}

// ProxyTokenSource fetches tokens from a local token proxy
// (GET <proxyURL> -> {"access_token": "..."}).
type ProxyTokenSource struct {
	httpClient *http.Client
	proxyURL   string
}

func NewProxyTokenSource(proxyURL string) *ProxyTokenSource {
	return &ProxyTokenSource{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		proxyURL:   proxyURL,
	}
}

func (s *ProxyTokenSource) Token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.proxyURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify: token proxy: %w", err)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("spotify: token proxy: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return tok.AccessToken, nil
}

// Track is one search hit, flattened for display.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	SpotifyURL string   `json:"spotify_url,omitempty"`
}

// trackSearchResponse matches the /v1/search payload for type=track.
type trackSearchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			PreviewURL   string `json:"preview_url"`
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"items"`
	} `json:"tracks"`
}

// Client searches the streaming catalog for tracks.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

func NewClient(tokens TokenSource) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultAPIBaseURL,
		tokens:     tokens,
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// SearchTracks runs a track search with a bearer token from the token source.
// A non-2xx upstream response fails the call; it is never retried.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d", c.baseURL, url.QueryEscape(query), trackSearchLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("spotify: search: unexpected status code %d", resp.StatusCode)
	}

	var res trackSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("spotify: search: %w", err)
	}

	tracks := make([]Track, 0, len(res.Tracks.Items))
	for _, item := range res.Tracks.Items {
		track := Track{
			ID:         item.ID,
			Name:       item.Name,
			Album:      item.Album.Name,
			PreviewURL: item.PreviewURL,
			SpotifyURL: item.ExternalURLs.Spotify,
		}
		for _, artist := range item.Artists {
			track.Artists = append(track.Artists, artist.Name)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}
