package layoutkit

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// authGate decides which requests need credentials and checks them.
type authGate struct {
	users    map[string][]byte // bcrypt hashes from the htpasswd file
	user     string
	password string
	patterns []string
	limiter  *LoginLimiter
}

func newAuthGate(cfg SiteConfig) (*authGate, error) {
	g := &authGate{
		users:    make(map[string][]byte),
		user:     cfg.AuthUser,
		password: cfg.AuthPassword,
		limiter:  NewLoginLimiter(10, time.Minute),
	}
	for _, p := range cfg.AuthExempt {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exempt pattern %q", p)
		}
		g.patterns = append(g.patterns, p)
	}
	if cfg.HtpasswdFile != "" {
		f, err := os.Open(cfg.HtpasswdFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		users, err := parseHtpasswd(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.HtpasswdFile, err)
		}
		g.users = users
	}
	return g, nil
}

// parseHtpasswd reads "user:hash" lines. Only bcrypt hashes are accepted.
func parseHtpasswd(r io.Reader) (map[string][]byte, error) {
	users := make(map[string][]byte)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		user, hash, ok := strings.Cut(text, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("line %d: expected user:hash", line)
		}
		if !strings.HasPrefix(hash, "$2") {
			return nil, fmt.Errorf("line %d: unsupported hash for %q, use bcrypt", line, user)
		}
		users[user] = []byte(hash)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// exempt reports whether path is served without credentials. A trailing
// slash is ignored, so "/rest/**" covers "/rest/", "/rest/pages" and
// "/rest/pages/".
func (g *authGate) exempt(path string) bool {
	trimmed := strings.TrimSuffix(path, "/")
	for _, p := range g.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, trimmed); ok {
			return true
		}
		if base, found := strings.CutSuffix(p, "/**"); found {
			if ok, _ := doublestar.Match(base, trimmed); ok {
				return true
			}
		}
	}
	return false
}

// validate is the basic auth validator. Failed attempts count against the
// client IP and are refused once the limit is reached.
func (g *authGate) validate(user, password string, c echo.Context) (bool, error) {
	ip := c.RealIP()
	if !g.limiter.Check(ip) {
		return false, echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	if g.check(user, password) {
		return true, nil
	}
	g.limiter.Record(ip)
	c.Logger().Warnf("basic auth failed for user %q from %s", user, ip)
	return false, nil
}

func (g *authGate) check(user, password string) bool {
	if hash, ok := g.users[user]; ok {
		return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	}
	if g.user == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(g.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	return userOK && passOK
}

func parsePrefixes(cidrs []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, s := range cidrs {
		s = strings.TrimSpace(s)
		if !strings.Contains(s, "/") {
			addr, err := netip.ParseAddr(s)
			if err != nil {
				return nil, err
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

func (a *App) isInternal(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.internal {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
