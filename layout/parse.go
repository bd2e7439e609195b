package layout

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reTag       = regexp.MustCompile(`\{%\s*(block|endblock|extends)\b(.*?)%\}|\{\{\s*block\.super\s*\}\}`)
	reBlockName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)
)

type node interface{}

type textNode string

type superNode struct{}

type blockNode struct {
	name     string
	parent   string
	owner    string // layout or template whose source holds the tag
	children []node
}

type parsed struct {
	nodes   []node
	extends string
}

// parse splits src into text, block and block.super nodes. Every other
// template construct is left in the text for the evaluation engine.
func parse(name, src string) (parsed, error) {
	var (
		out   parsed
		stack []*blockNode
	)
	push := func(n node) {
		if len(stack) == 0 {
			out.nodes = append(out.nodes, n)
			return
		}
		top := stack[len(stack)-1]
		top.children = append(top.children, n)
	}

	last := 0
	for _, m := range reTag.FindAllStringSubmatchIndex(src, -1) {
		if m[0] > last {
			push(textNode(src[last:m[0]]))
		}
		last = m[1]
		if m[2] < 0 {
			push(superNode{})
			continue
		}
		line := 1 + strings.Count(src[:m[0]], "\n")
		kind := src[m[2]:m[3]]
		arg := strings.TrimSpace(src[m[4]:m[5]])

		switch kind {
		case "extends":
			if len(stack) > 0 || out.extends != "" || !blank(out.nodes) {
				return parsed{}, malformed(name, line, "extends must be the first tag")
			}
			out.extends = strings.Trim(arg, `"'`)
			if out.extends == "" {
				return parsed{}, malformed(name, line, "extends needs a template name")
			}
		case "block":
			if !reBlockName.MatchString(arg) {
				return parsed{}, malformed(name, line, fmt.Sprintf("invalid block name %q", arg))
			}
			b := &blockNode{name: arg}
			push(b)
			stack = append(stack, b)
		case "endblock":
			if len(stack) == 0 {
				return parsed{}, malformed(name, line, "endblock without block")
			}
			top := stack[len(stack)-1]
			if arg != "" && arg != top.name {
				return parsed{}, malformed(name, line, fmt.Sprintf("endblock %q closes block %q", arg, top.name))
			}
			stack = stack[:len(stack)-1]
		}
	}
	if last < len(src) {
		push(textNode(src[last:]))
	}
	if len(stack) > 0 {
		return parsed{}, malformed(name, 0, fmt.Sprintf("block %q is not closed", stack[len(stack)-1].name))
	}
	return out, nil
}

func malformed(name string, line int, msg string) error {
	if line > 0 {
		return fmt.Errorf("%w: %s:%d: %s", ErrMalformed, name, line, msg)
	}
	return fmt.Errorf("%w: %s: %s", ErrMalformed, name, msg)
}

func blank(nodes []node) bool {
	for _, n := range nodes {
		t, ok := n.(textNode)
		if !ok || strings.TrimSpace(string(t)) != "" {
			return false
		}
	}
	return true
}

// walkBlocks visits every block in nodes depth-first, assigning parent and
// owner names along the way.
func walkBlocks(nodes []node, parent, owner string, fn func(*blockNode) error) error {
	for _, n := range nodes {
		b, ok := n.(*blockNode)
		if !ok {
			continue
		}
		b.parent = parent
		b.owner = owner
		if err := fn(b); err != nil {
			return err
		}
		if err := walkBlocks(b.children, b.name, owner, fn); err != nil {
			return err
		}
	}
	return nil
}

// source writes nodes back in block syntax.
func source(nodes []node) string {
	var b strings.Builder
	writeSource(&b, nodes)
	return b.String()
}

func writeSource(b *strings.Builder, nodes []node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			b.WriteString(string(n))
		case superNode:
			b.WriteString("{{ block.super }}")
		case *blockNode:
			b.WriteString("{% block " + n.name + " %}")
			writeSource(b, n.children)
			b.WriteString("{% endblock %}")
		}
	}
}
