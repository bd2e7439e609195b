package layout

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// Registry holds the compiled pages of a template directory. It is built
// once and only read afterwards.
type Registry struct {
	pages     map[string]*Page
	templates map[string]*Template
}

// Load parses every *.html file of fsys. Files starting with an extends tag
// become child templates of the named file; the others are layouts. Every
// template is compiled into a page named after its path.
func Load(fsys fs.FS, opts ...Option) (*Registry, error) {
	sources := make(map[string]parsedFile)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		parsed, err := parse(p, string(b))
		if err != nil {
			return err
		}
		sources[p] = parsedFile{src: string(b), extends: parsed.extends}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("layout: load templates: %w", err)
	}

	b := &builder{
		sources:   sources,
		opts:      opts,
		layouts:   make(map[string]*Layout),
		templates: make(map[string]*Template),
		visiting:  make(map[string]bool),
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := b.parent(name); err != nil {
			return nil, err
		}
	}

	r := &Registry{
		pages:     make(map[string]*Page, len(names)),
		templates: b.templates,
	}
	for _, name := range names {
		var (
			page *Page
			err  error
		)
		if t, ok := b.templates[name]; ok {
			page, err = t.Compile()
		} else {
			page, err = b.layouts[name].Compile()
		}
		if err != nil {
			return nil, err
		}
		r.pages[name] = page
	}
	return r, nil
}

type parsedFile struct {
	src     string
	extends string
}

type builder struct {
	sources   map[string]parsedFile
	opts      []Option
	layouts   map[string]*Layout
	templates map[string]*Template
	visiting  map[string]bool
}

// parent returns the layout or template named name, building its ancestors
// first.
func (b *builder) parent(name string) (Parent, error) {
	if l, ok := b.layouts[name]; ok {
		return l, nil
	}
	if t, ok := b.templates[name]; ok {
		return t, nil
	}
	f, ok := b.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("%w: %q extends itself", ErrMalformed, name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	if f.extends == "" {
		l, err := Parse(name, f.src, b.opts...)
		if err != nil {
			return nil, err
		}
		b.layouts[name] = l
		return l, nil
	}
	p, err := b.parent(f.extends)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t, err := ParseChild(p, name, f.src)
	if err != nil {
		return nil, err
	}
	b.templates[name] = t
	return t, nil
}

// Lookup returns the compiled page named name.
func (r *Registry) Lookup(name string) (*Page, bool) {
	p, ok := r.pages[name]
	return p, ok
}

// Page returns the compiled page named name or ErrUnknownTemplate.
func (r *Registry) Page(name string) (*Page, error) {
	p, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return p, nil
}

// Names lists the pages in the registry, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Warnings collects the tolerated configuration problems of every template.
func (r *Registry) Warnings() []string {
	var out []string
	for _, name := range r.Names() {
		if t, ok := r.templates[name]; ok {
			out = append(out, t.Warnings()...)
		}
	}
	return out
}
