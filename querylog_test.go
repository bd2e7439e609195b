package layoutkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eringen/layoutkit/layout"
)

func TestQueryLogRecord(t *testing.T) {
	ctx, log := WithQueryLog(context.Background())
	assert.Same(t, log, QueryLogFrom(ctx))

	log.Record("SELECT url\n\t FROM pages", 2*time.Millisecond+400*time.Microsecond)
	log.Record("SELECT 1", 13*time.Millisecond)

	assert.Equal(t, []layout.Query{
		{SQL: "SELECT url FROM pages", Time: 0.002},
		{SQL: "SELECT 1", Time: 0.013},
	}, log.Queries())
}

func TestQueryLogNil(t *testing.T) {
	log := QueryLogFrom(context.Background())
	assert.Nil(t, log)
	log.Record("SELECT 1", time.Millisecond)
	assert.Nil(t, log.Queries())
}

func TestQueryLogQueriesIsACopy(t *testing.T) {
	_, log := WithQueryLog(context.Background())
	log.Record("SELECT 1", 0)
	qs := log.Queries()
	qs[0].SQL = "changed"
	assert.Equal(t, "SELECT 1", log.Queries()[0].SQL)
}

func TestQueryLogConcurrentRecord(t *testing.T) {
	_, log := WithQueryLog(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Record("SELECT 1", time.Millisecond)
		}()
	}
	wg.Wait()
	assert.Len(t, log.Queries(), 20)
}
