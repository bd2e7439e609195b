package layoutkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := SiteConfig{StaticURL: "/assets"}
	cfg.setDefaults()

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "/assets/", cfg.StaticURL)
	assert.Equal(t, "layoutkit", cfg.ProcessGroup)
	if diff := cmp.Diff(map[string]string{"/static/": "static", "/tests/": "tests"}, cfg.Aliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"/rest/**", "/*/rest/**"}, cfg.AuthExempt)
}

func TestValidate(t *testing.T) {
	cfg := SiteConfig{Aliases: map[string]string{"static": "static"}}
	cfg.setDefaults()
	err := cfg.validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "SessionSecret is required")
	assert.ErrorContains(t, err, "AuthUser and AuthPassword")
	assert.ErrorContains(t, err, `alias "static"`)

	cfg = SiteConfig{SessionSecret: "x", AuthUser: "u", AuthPassword: "p"}
	cfg.setDefaults()
	assert.NoError(t, cfg.validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Docs
addr: ":9000"
debug: true
internal_ips: ["10.0.0.0/8"]
aliases:
  /media/: /srv/media
auth_exempt: ["/public/**"]
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Docs", cfg.Name)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.InternalIPs)
	assert.Equal(t, map[string]string{"/media/": "/srv/media"}, cfg.Aliases)
	assert.Equal(t, []string{"/public/**"}, cfg.AuthExempt)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("nmae: typo\n"), 0o600))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "parse config")

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LAYOUTKIT_SITE_NAME", "Env Site")
	t.Setenv("LAYOUTKIT_DEBUG", "true")
	t.Setenv("LAYOUTKIT_INTERNAL_IPS", "10.0.0.0/8, ,192.168.0.0/16")

	cfg := ConfigFromEnv()
	assert.Equal(t, "Env Site", cfg.Name)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.InternalIPs)
}
