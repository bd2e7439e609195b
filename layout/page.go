package layout

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/flosch/pongo2/v6"
)

// Page is a compiled template. It holds no per-render state.
type Page struct {
	name   string
	tpl    *pongo2.Template
	blocks []ResolvedBlock
	logger Logger
}

// Name returns the name of the template the page was compiled from.
func (p *Page) Name() string { return p.name }

// Blocks returns the resolved block tree in document order.
func (p *Page) Blocks() []ResolvedBlock {
	return append([]ResolvedBlock(nil), p.blocks...)
}

// Render returns the document for c.
func (p *Page) Render(c Context) (string, error) {
	var b strings.Builder
	if err := p.Execute(&b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Execute writes the document for c to w. Nothing is written on error.
func (p *Page) Execute(w io.Writer, c Context) error {
	ctx, err := p.evaluation(c)
	if err != nil {
		return err
	}
	if err := p.tpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("layout: render %q: %w", p.name, err)
	}
	return nil
}

// Component adapts the page and c to a templ.Component.
func (p *Page) Component(c Context) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return p.Execute(w, c)
	})
}

func missingKey(page, key string) error {
	return fmt.Errorf("%w: %q rendering %q", ErrMissingContextKey, key, page)
}
