package layout

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"

	"github.com/flosch/pongo2/v6"
)

// Keys every page understands.
const (
	KeyStaticURL  = "STATIC_URL"
	KeyDebug      = "debug"
	KeySQLQueries = "sql_queries"
)

// maxDepth bounds how far nested values are searched for unrenderable parts.
const maxDepth = 16

// reIdentifier matches the context keys the evaluation engine accepts.
var reIdentifier = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Context holds the variables of a single render. It is never modified by
// the renderer.
type Context map[string]any

// Query is one backend statement shown in the debug panel.
type Query struct {
	SQL  string
	Time float64 // seconds
}

// Debug reports the value of the debug key; absent or non-boolean means false.
func (c Context) Debug() bool {
	d, _ := c[KeyDebug].(bool)
	return d
}

// Queries returns the recorded queries, or nil. Besides []Query, the list
// may be given as []map[string]any or []any of {"sql", "time"} records.
// Records it cannot read are skipped.
func (c Context) Queries() []Query {
	q, _ := c.queries()
	return q
}

// queries converts the query list, reporting false if the list or any of
// its records had an unrecognised shape.
func (c Context) queries() ([]Query, bool) {
	switch qs := c[KeySQLQueries].(type) {
	case nil:
		return nil, true
	case []Query:
		return qs, true
	case []map[string]any:
		out := make([]Query, 0, len(qs))
		ok := true
		for _, rec := range qs {
			q, valid := queryRecord(rec)
			if valid {
				out = append(out, q)
			}
			ok = ok && valid
		}
		return out, ok
	case []any:
		out := make([]Query, 0, len(qs))
		ok := true
		for _, rec := range qs {
			q, valid := queryRecord(rec)
			if valid {
				out = append(out, q)
			}
			ok = ok && valid
		}
		return out, ok
	}
	return nil, false
}

func queryRecord(rec any) (Query, bool) {
	switch r := rec.(type) {
	case Query:
		return r, true
	case *Query:
		if r != nil {
			return *r, true
		}
	case map[string]any:
		sql, ok := r["sql"].(string)
		if !ok {
			return Query{}, false
		}
		t, ok := seconds(r["time"])
		if !ok {
			return Query{}, false
		}
		return Query{SQL: sql, Time: t}, true
	}
	return Query{}, false
}

func seconds(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// evaluation builds the engine context for c. The debug flag is always
// present and the query list is only exposed when debug is on.
func (p *Page) evaluation(c Context) (pongo2.Context, error) {
	static, _ := c[KeyStaticURL].(string)
	if static == "" {
		return nil, missingKey(p.name, KeyStaticURL)
	}

	out := make(pongo2.Context, len(c)+2)
	for k, v := range c {
		if k == KeyDebug || k == KeySQLQueries {
			continue
		}
		if !reIdentifier.MatchString(k) {
			p.logger.Warnf("layout: page %q: variable %q is not an identifier and was skipped", p.name, k)
			continue
		}
		out[k] = p.sanitize(k, v)
	}

	debug := c.Debug()
	out[KeyDebug] = debug
	if debug {
		queries, ok := c.queries()
		if !ok {
			p.logger.Warnf("layout: page %q: unreadable %s of type %T, want {sql, time} records", p.name, KeySQLQueries, c[KeySQLQueries])
		}
		rows := make([]map[string]any, 0, len(queries))
		for _, q := range queries {
			rows = append(rows, map[string]any{
				"sql":  q.SQL,
				"time": strconv.FormatFloat(q.Time, 'f', -1, 64),
			})
		}
		out[KeySQLQueries] = rows
	}
	return out, nil
}

// sanitize replaces values that cannot be placed in a document with an empty
// string so that one bad variable does not abort the page. Maps, slices and
// structs holding such values are copied with the bad parts replaced; values
// that need no change are passed through untouched.
func (p *Page) sanitize(key string, v any) any {
	out, changed := p.clean(key, reflect.ValueOf(v), 0)
	if !changed {
		return v
	}
	return out
}

func (p *Page) clean(path string, v reflect.Value, depth int) (any, bool) {
	if !v.IsValid() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		p.logger.Warnf("layout: page %q: variable %q of type %s rendered as empty", p.name, path, v.Type())
		return "", true
	}
	if depth >= maxDepth {
		return value(v), false
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return value(v), false
		}
		inner, changed := p.clean(path, v.Elem(), depth+1)
		if !changed {
			return value(v), false
		}
		return inner, true

	case reflect.Map:
		out := make(map[string]any, v.Len())
		changed := false
		iter := v.MapRange()
		for iter.Next() {
			k := fmt.Sprint(value(iter.Key()))
			e, c := p.clean(path+"."+k, iter.Value(), depth+1)
			out[k] = e
			changed = changed || c
		}
		if !changed {
			return value(v), false
		}
		return out, true

	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		changed := false
		for i := range out {
			e, c := p.clean(path+"."+strconv.Itoa(i), v.Index(i), depth+1)
			out[i] = e
			changed = changed || c
		}
		if !changed {
			return value(v), false
		}
		return out, true

	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, t.NumField())
		changed := false
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			e, c := p.clean(path+"."+f.Name, v.Field(i), depth+1)
			out[f.Name] = e
			changed = changed || c
		}
		if !changed {
			return value(v), false
		}
		return out, true
	}
	return value(v), false
}

func value(v reflect.Value) any {
	if !v.CanInterface() {
		return nil
	}
	return v.Interface()
}
