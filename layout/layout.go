// Package layout composes HTML pages from a base layout and a chain of child
// templates that override named, nestable blocks.
//
// Layouts and child templates use the familiar block syntax:
//
//	{% block css %}
//	  {% block css.shared %}<link rel="stylesheet" href="{{ STATIC_URL }}css/base.css">{% endblock %}
//	  {% block css.custom %}{% endblock %}
//	{% endblock %}
//
// Block resolution happens once, when a template is compiled into a Page.
// The flattened source is then evaluated by pongo2 for every render, so
// variables, conditionals and loops follow Django template semantics.
// Compiled pages are immutable and safe for concurrent use.
package layout

import (
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
)

var (
	// ErrDuplicateBlock is returned when a block name is defined twice in a
	// layout, or overridden twice by the same template.
	ErrDuplicateBlock = errors.New("layout: duplicate block")
	// ErrUnknownBlock is returned in strict mode when a template overrides a
	// block that no layout or ancestor template defines.
	ErrUnknownBlock = errors.New("layout: unknown block")
	// ErrUnknownTemplate is returned when a template or its parent cannot be found.
	ErrUnknownTemplate = errors.New("layout: unknown template")
	// ErrMalformed is returned for unbalanced or invalid block tags.
	ErrMalformed = errors.New("layout: malformed template")
	// ErrSealed is returned when a compiled layout or template is modified.
	ErrSealed = errors.New("layout: template is sealed")
	// ErrBlockCycle is returned when overrides place blocks inside each other.
	ErrBlockCycle = errors.New("layout: block cycle")
	// ErrMissingContextKey is returned when a required context key is absent.
	ErrMissingContextKey = errors.New("layout: missing context key")
)

// Logger receives configuration warnings. echo.Logger satisfies it.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type options struct {
	logger Logger
	strict bool
}

// Option configures a Layout and every template extending it.
type Option func(*options)

// WithLogger routes warnings to l instead of the default gommon logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrict turns overrides of unknown blocks into ErrUnknownBlock errors
// instead of warnings.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func newOptions(opts []Option) options {
	o := options{logger: log.New("layout")}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Block describes a named slot of a layout.
type Block struct {
	Name    string
	Parent  string // empty for top-level blocks
	Default string // default body in block syntax
}

// Layout is a base template: a document skeleton that defines every
// overridable block.
type Layout struct {
	name   string
	root   []node
	blocks map[string]*blockNode
	order  []string
	opts   options
	sealed bool
}

// NewLayout returns an empty layout. Blocks are added with DefineBlock.
func NewLayout(name string, opts ...Option) *Layout {
	return &Layout{
		name:   name,
		blocks: make(map[string]*blockNode),
		opts:   newOptions(opts),
	}
}

// Parse builds a layout from src, defining every block it contains.
func Parse(name, src string, opts ...Option) (*Layout, error) {
	p, err := parse(name, src)
	if err != nil {
		return nil, err
	}
	if p.extends != "" {
		return nil, fmt.Errorf("%w: %s: a layout cannot extend %q", ErrMalformed, name, p.extends)
	}
	l := NewLayout(name, opts...)
	if err := l.register(p.nodes, ""); err != nil {
		return nil, err
	}
	l.root = p.nodes
	return l, nil
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// DefineBlock appends a top-level block with the given default content.
// Content may contain nested blocks, which are defined as well.
func (l *Layout) DefineBlock(name, content string) error {
	if l.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, l.name)
	}
	if !reBlockName.MatchString(name) {
		return fmt.Errorf("%w: %s: invalid block name %q", ErrMalformed, l.name, name)
	}
	p, err := parse(l.name, content)
	if err != nil {
		return err
	}
	if p.extends != "" {
		return fmt.Errorf("%w: %s: extends inside block %q", ErrMalformed, l.name, name)
	}
	b := &blockNode{name: name, children: p.nodes}
	if err := l.register([]node{b}, ""); err != nil {
		return err
	}
	l.root = append(l.root, b)
	return nil
}

// register adds every block in nodes, failing without side effects if any
// name is already taken.
func (l *Layout) register(nodes []node, parent string) error {
	var added []*blockNode
	seen := make(map[string]bool)
	err := walkBlocks(nodes, parent, l.name, func(b *blockNode) error {
		if _, ok := l.blocks[b.name]; ok || seen[b.name] {
			return fmt.Errorf("%w: %q in layout %q", ErrDuplicateBlock, b.name, l.name)
		}
		seen[b.name] = true
		added = append(added, b)
		return nil
	})
	if err != nil {
		return err
	}
	for _, b := range added {
		l.blocks[b.name] = b
		l.order = append(l.order, b.name)
	}
	return nil
}

// Block returns the definition of a block.
func (l *Layout) Block(name string) (Block, bool) {
	b, ok := l.blocks[name]
	if !ok {
		return Block{}, false
	}
	return Block{Name: b.name, Parent: b.parent, Default: source(b.children)}, true
}

// Blocks lists the layout's blocks in definition order.
func (l *Layout) Blocks() []Block {
	out := make([]Block, 0, len(l.order))
	for _, name := range l.order {
		b, _ := l.Block(name)
		out = append(out, b)
	}
	return out
}

// Extend starts a child template of this layout.
func (l *Layout) Extend(name string) *Template {
	return &Template{
		name:      name,
		layout:    l,
		overrides: make(map[string][]node),
		extra:     make(map[string]*blockNode),
	}
}

// Compile renders the layout as a page of its own, using only defaults.
func (l *Layout) Compile() (*Page, error) {
	return l.Extend(l.name).Compile()
}
