package layout

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"base.html":          {Data: []byte(testBase)},
		"page.html":          {Data: []byte(`{% extends "base.html" %}{% block title %}{{ title }}{% endblock %}{% block body.content %}<h1>{% block heading %}{{ title }}{% endblock %}</h1>{% endblock %}`)},
		"admin/edit.html":    {Data: []byte(`{% extends "page.html" %}{% block heading %}Edit {{ block.super }}{% endblock %}`)},
		"static/ignored.css": {Data: []byte(`body {}`)},
	}
}

func TestLoadRegistry(t *testing.T) {
	reg, err := Load(testFS())
	require.NoError(t, err)
	assert.Equal(t, []string{"admin/edit.html", "base.html", "page.html"}, reg.Names())
	assert.Empty(t, reg.Warnings())

	page, ok := reg.Lookup("admin/edit.html")
	require.True(t, ok)
	out, err := page.Render(Context{KeyStaticURL: "/static/", "title": "About"})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>About</title>")
	assert.Contains(t, out, "<h1>Edit About</h1>")

	_, err = reg.Page("missing.html")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestLoadCollectsWarnings(t *testing.T) {
	fsys := testFS()
	fsys["odd.html"] = &fstest.MapFile{Data: []byte(`{% extends "base.html" %}{% block sidebar %}x{% endblock %}`)}

	reg, err := Load(fsys, WithLogger(&recordingLogger{}))
	require.NoError(t, err)
	require.Len(t, reg.Warnings(), 1)
	assert.Contains(t, reg.Warnings()[0], "sidebar")

	_, err = Load(fsys, WithStrict(true))
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestLoadMissingParent(t *testing.T) {
	fsys := testFS()
	fsys["orphan.html"] = &fstest.MapFile{Data: []byte(`{% extends "nowhere.html" %}`)}
	_, err := Load(fsys)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestLoadExtendsCycle(t *testing.T) {
	fsys := fstest.MapFS{
		"a.html": {Data: []byte(`{% extends "b.html" %}`)},
		"b.html": {Data: []byte(`{% extends "a.html" %}`)},
	}
	_, err := Load(fsys)
	assert.ErrorIs(t, err, ErrMalformed)
}
