package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bookfinder/internal/entity"
	"bookfinder/internal/usecase"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// newestSubject scopes the "newest" listing to a fixed default subject.
const newestSubject = "fiction"

// Client talks to the volumes API. Every call is a single live request:
// no cache, no retry - a failed attempt surfaces immediately to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(userAgent string, rps int, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// volume matches one item of the volumes API response.
type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PublishedDate string   `json:"publishedDate"`
		Description   string   `json:"description"`
		PageCount     int      `json:"pageCount"`
		Categories    []string `json:"categories"`
		ImageLinks    struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
		Publisher           string `json:"publisher"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		AverageRating float64 `json:"averageRating"`
		RatingsCount  int     `json:"ratingsCount"`
		Language      string  `json:"language"`
	} `json:"volumeInfo"`
}

// searchResponse matches the volumes list response.
type searchResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

func (v volume) toBook() entity.Book {
	book := entity.Book{
		ID:            v.ID,
		Title:         v.VolumeInfo.Title,
		Authors:       v.VolumeInfo.Authors,
		PublishedDate: v.VolumeInfo.PublishedDate,
		Description:   v.VolumeInfo.Description,
		PageCount:     v.VolumeInfo.PageCount,
		Categories:    v.VolumeInfo.Categories,
		Thumbnail:     v.VolumeInfo.ImageLinks.Thumbnail,
		Publisher:     v.VolumeInfo.Publisher,
		AverageRating: v.VolumeInfo.AverageRating,
		RatingsCount:  v.VolumeInfo.RatingsCount,
		Language:      v.VolumeInfo.Language,
	}
	if book.Thumbnail == "" {
		book.Thumbnail = v.VolumeInfo.ImageLinks.SmallThumbnail
	}
	for _, id := range v.VolumeInfo.IndustryIdentifiers {
		book.Identifiers = append(book.Identifiers, entity.Identifier{
			Type:  id.Type,
			Value: id.Identifier,
		})
	}
	return book
}

func normalizePage(page usecase.Page) usecase.Page {
	if page.StartIndex < 0 {
		page.StartIndex = 0
	}
	if page.MaxResults <= 0 {
		page.MaxResults = usecase.DefaultPageSize
	}
	return page
}

// SearchByKeyword runs a relevance-ordered keyword search.
func (c *Client) SearchByKeyword(ctx context.Context, query string, page usecase.Page) (usecase.SearchResult, error) {
	page = normalizePage(page)
	u := fmt.Sprintf("%s?q=%s&startIndex=%d&maxResults=%d%s",
		c.baseURL, url.QueryEscape(query), page.StartIndex, page.MaxResults, c.keyParam())
	return c.search(ctx, query, u)
}

// SearchByCategory searches volumes whose subject equals category.
func (c *Client) SearchByCategory(ctx context.Context, category string, page usecase.Page) (usecase.SearchResult, error) {
	page = normalizePage(page)
	u := fmt.Sprintf("%s?q=subject:%s&startIndex=%d&maxResults=%d%s",
		c.baseURL, url.QueryEscape(category), page.StartIndex, page.MaxResults, c.keyParam())
	return c.search(ctx, category, u)
}

// Newest lists the most recently published volumes under the default subject.
func (c *Client) Newest(ctx context.Context, maxResults int) (usecase.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = usecase.DefaultPageSize
	}
	u := fmt.Sprintf("%s?q=subject:%s&orderBy=newest&maxResults=%d%s",
		c.baseURL, newestSubject, maxResults, c.keyParam())
	return c.search(ctx, newestSubject, u)
}

// FetchByID fetches a single volume. An unknown id reports ErrNotFound
// (wrapped in ErrCatalogUnavailable like every other upstream failure).
func (c *Client) FetchByID(ctx context.Context, id string) (entity.Book, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(id))
	if c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}

	var v volume
	if err := c.get(ctx, u, &v); err != nil {
		return entity.Book{}, fmt.Errorf("fetch volume %q: %w", id, err)
	}
	return v.toBook(), nil
}

func (c *Client) search(ctx context.Context, query, u string) (usecase.SearchResult, error) {
	var res searchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return usecase.SearchResult{}, fmt.Errorf("search %q: %w", query, err)
	}

	books := make([]entity.Book, 0, len(res.Items))
	for _, item := range res.Items {
		books = append(books, item.toBook())
	}

	// The catalog occasionally declares fewer matches than it returned items;
	// clamp so that TotalItems >= len(Books) holds for callers.
	total := res.TotalItems
	if total < len(books) {
		total = len(books)
	}

	return usecase.SearchResult{
		Query:      query,
		TotalItems: total,
		Books:      books,
	}, nil
}

func (c *Client) keyParam() string {
	if c.apiKey == "" {
		return ""
	}
	return "&key=" + url.QueryEscape(c.apiKey)
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", usecase.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", usecase.ErrCatalogUnavailable, usecase.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status code %d", usecase.ErrCatalogUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decoding response: %w", usecase.ErrCatalogUnavailable, err)
	}
	return nil
}
