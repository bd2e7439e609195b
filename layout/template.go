package layout

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// Parent is anything a template can extend: a Layout or another Template.
type Parent interface {
	Name() string
	Extend(name string) *Template
}

// Template is one layer of an inheritance chain. It overrides blocks of its
// layout or of the templates it extends.
type Template struct {
	name      string
	layout    *Layout
	parent    *Template
	overrides map[string][]node
	extra     map[string]*blockNode // blocks first introduced inside this template's overrides
	order     []string
	warnings  []string
	sealed    bool
}

// ParseChild builds a template extending parent from src. Top-level blocks in
// src become overrides; text outside blocks is ignored. If src names the
// template it extends, the name must match parent.
func ParseChild(parent Parent, name, src string) (*Template, error) {
	p, err := parse(name, src)
	if err != nil {
		return nil, err
	}
	if p.extends != "" && p.extends != parent.Name() {
		return nil, fmt.Errorf("%w: %s extends %q, not %q", ErrUnknownTemplate, name, p.extends, parent.Name())
	}
	t := parent.Extend(name)
	for _, n := range p.nodes {
		b, ok := n.(*blockNode)
		if !ok {
			continue
		}
		if err := t.override(b.name, b.children); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Extend starts a template deriving from t.
func (t *Template) Extend(name string) *Template {
	c := t.layout.Extend(name)
	c.parent = t
	return c
}

// OverrideBlock replaces the content of a block defined by the layout or an
// ancestor template. Overriding an unknown block is a no-op that logs a
// warning, or fails with ErrUnknownBlock in strict mode.
func (t *Template) OverrideBlock(name, content string) error {
	p, err := parse(t.name, content)
	if err != nil {
		return err
	}
	if p.extends != "" {
		return fmt.Errorf("%w: %s: extends inside block %q", ErrMalformed, t.name, name)
	}
	return t.override(name, p.nodes)
}

func (t *Template) override(name string, nodes []node) error {
	if t.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, t.name)
	}
	if _, ok := t.overrides[name]; ok {
		return fmt.Errorf("%w: %q overridden twice in template %q", ErrDuplicateBlock, name, t.name)
	}
	if !t.known(name) {
		msg := fmt.Sprintf("template %q overrides unknown block %q", t.name, name)
		if t.layout.opts.strict {
			return fmt.Errorf("%w: %q in template %q", ErrUnknownBlock, name, t.name)
		}
		t.layout.opts.logger.Warnf("layout: %s", msg)
		t.warnings = append(t.warnings, msg)
		return nil
	}

	var added []*blockNode
	seen := map[string]bool{name: true}
	err := walkBlocks(nodes, name, t.name, func(b *blockNode) error {
		if seen[b.name] {
			return fmt.Errorf("%w: %q nested twice in template %q", ErrDuplicateBlock, b.name, t.name)
		}
		seen[b.name] = true
		if !t.known(b.name) {
			added = append(added, b)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, b := range added {
		t.extra[b.name] = b
	}
	t.overrides[name] = nodes
	t.order = append(t.order, name)
	return nil
}

// known reports whether name is defined by the layout or by any template in
// the chain ending at t.
func (t *Template) known(name string) bool {
	if _, ok := t.layout.blocks[name]; ok {
		return true
	}
	for c := t; c != nil; c = c.parent {
		if _, ok := c.extra[name]; ok {
			return true
		}
	}
	return false
}

// Overrides lists the blocks this template overrides, in the order given.
func (t *Template) Overrides() []string {
	return append([]string(nil), t.order...)
}

// Warnings returns the configuration problems tolerated while building t.
func (t *Template) Warnings() []string {
	return append([]string(nil), t.warnings...)
}

// chain returns the templates from t up to the layout, most-derived first.
func (t *Template) chain() []*Template {
	var out []*Template
	for c := t; c != nil; c = c.parent {
		out = append(out, c)
	}
	return out
}

// Compile resolves every block and prepares the result for rendering. The
// template, its ancestors and its layout are sealed afterwards.
func (t *Template) Compile() (*Page, error) {
	r := &resolver{chain: t.chain(), active: make(map[string]bool)}
	var b strings.Builder
	r.writeNodes(&b, t.layout.root, nil, 0)
	if r.err != nil {
		return nil, fmt.Errorf("layout: compile %q: %w", t.name, r.err)
	}

	tpl, err := pongo2.FromString(b.String())
	if err != nil {
		return nil, fmt.Errorf("layout: compile %q: %w", t.name, err)
	}

	for _, c := range r.chain {
		c.sealed = true
	}
	t.layout.sealed = true

	return &Page{
		name:   t.name,
		tpl:    tpl,
		blocks: r.resolved,
		logger: t.layout.opts.logger,
	}, nil
}

// ResolvedBlock records where the content of a block came from.
type ResolvedBlock struct {
	Name   string
	Depth  int
	Source string // template or layout name supplying the content
}

type resolver struct {
	chain    []*Template
	active   map[string]bool
	resolved []ResolvedBlock
	err      error
}

func (r *resolver) writeNodes(b *strings.Builder, nodes []node, super func(), depth int) {
	for _, n := range nodes {
		if r.err != nil {
			return
		}
		switch n := n.(type) {
		case textNode:
			b.WriteString(string(n))
		case superNode:
			if super != nil {
				super()
			}
		case *blockNode:
			r.writeBlock(b, n, depth)
		}
	}
}

func (r *resolver) writeBlock(b *strings.Builder, n *blockNode, depth int) {
	if r.active[n.name] {
		r.err = fmt.Errorf("%w: %q", ErrBlockCycle, n.name)
		return
	}
	r.active[n.name] = true
	defer delete(r.active, n.name)

	idx := len(r.resolved)
	r.resolved = append(r.resolved, ResolvedBlock{Name: n.name, Depth: depth})
	r.resolved[idx].Source = r.writeFrom(b, n, 0, depth+1)
}

// writeFrom writes the most-derived content for n found at or after chain
// position from, falling back to n's own default body.
func (r *resolver) writeFrom(b *strings.Builder, n *blockNode, from, depth int) string {
	for i := from; i < len(r.chain); i++ {
		nodes, ok := r.chain[i].overrides[n.name]
		if !ok {
			continue
		}
		next := i + 1
		r.writeNodes(b, nodes, func() { r.writeFrom(b, n, next, depth) }, depth)
		return r.chain[i].name
	}
	r.writeNodes(b, n.children, nil, depth)
	return n.owner
}
