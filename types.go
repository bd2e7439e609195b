package layoutkit

import "time"

// FlatPage is the content type stored in SQLite and rendered through one of
// the page templates.
type FlatPage struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`  // Markdown
	Template  string    `json:"template"` // registry name, e.g. "page.html"
	Published bool      `json:"published"`
	Updated   time.Time `json:"updated"`
}
