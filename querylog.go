package layoutkit

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/eringen/layoutkit/layout"
)

// QueryLog collects the statements executed while serving one request.
type QueryLog struct {
	mu      sync.Mutex
	queries []layout.Query
}

type queryLogKey struct{}

// WithQueryLog returns a context carrying a new, empty query log.
func WithQueryLog(ctx context.Context) (context.Context, *QueryLog) {
	l := &QueryLog{}
	return context.WithValue(ctx, queryLogKey{}, l), l
}

// QueryLogFrom returns the query log carried by ctx, or nil.
func QueryLogFrom(ctx context.Context) *QueryLog {
	l, _ := ctx.Value(queryLogKey{}).(*QueryLog)
	return l
}

// Record appends a statement and its duration. Whitespace in the statement
// is collapsed and the duration is kept in seconds to the millisecond.
// Record on a nil log does nothing.
func (l *QueryLog) Record(sql string, d time.Duration) {
	if l == nil {
		return
	}
	q := layout.Query{
		SQL:  strings.Join(strings.Fields(sql), " "),
		Time: math.Round(d.Seconds()*1000) / 1000,
	}
	l.mu.Lock()
	l.queries = append(l.queries, q)
	l.mu.Unlock()
}

// Queries returns a copy of the recorded statements in execution order.
func (l *QueryLog) Queries() []layout.Query {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]layout.Query{}, l.queries...)
}
