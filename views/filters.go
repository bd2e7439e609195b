package views

import (
	"bytes"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	filtersOnce sync.Once
	filtersErr  error

	md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// policy strips anything a page author could use to run script.
	policy = bluemonday.UGCPolicy()
)

func registerFilters() error {
	filtersOnce.Do(func() {
		filtersErr = pongo2.RegisterFilter("markdown", filterMarkdown)
	})
	return filtersErr
}

// filterMarkdown renders Markdown to sanitized HTML.
func filterMarkdown(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	html, err := RenderMarkdown(in.String())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:markdown", OrigError: err}
	}
	return pongo2.AsSafeValue(html), nil
}

// RenderMarkdown converts Markdown source to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return string(policy.SanitizeBytes(buf.Bytes())), nil
}
