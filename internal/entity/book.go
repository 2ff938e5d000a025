package entity

// Identifier is one industry identifier attached to a book, e.g. ISBN_10 or ISBN_13.
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"identifier"`
}

// Book is a read-only snapshot of a catalog volume. The ID is assigned by the
// catalog and never changes; everything else reflects the catalog at fetch
// time and is never edited locally.
type Book struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Authors       []string     `json:"authors,omitempty"`
	PublishedDate string       `json:"published_date,omitempty"` // full or partial ISO date, e.g. "2003" or "2003-04"
	Description   string       `json:"description,omitempty"`
	PageCount     int          `json:"page_count,omitempty"`
	Categories    []string     `json:"categories,omitempty"`
	Thumbnail     string       `json:"thumbnail,omitempty"`
	Publisher     string       `json:"publisher,omitempty"`
	Identifiers   []Identifier `json:"industry_identifiers,omitempty"`
	AverageRating float64      `json:"average_rating,omitempty"` // 0.0 - 5.0
	RatingsCount  int          `json:"ratings_count,omitempty"`
	Language      string       `json:"language,omitempty"`
}
