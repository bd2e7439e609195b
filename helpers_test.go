package layoutkit

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"About Us", "about-us"},
		{"  Hello, World!  ", "hello-world"},
		{"Go 1.24 release", "go-1-24-release"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePageURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"about", "/about/"},
		{"/about", "/about/"},
		{"/about/", "/about/"},
		{"/docs//intro/../setup", "/docs/setup/"},
		{"/../etc/passwd", "/etc/passwd/"},
		{"/", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizePageURL(tt.in); got != tt.want {
			t.Errorf("NormalizePageURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"/about/"}, "https://example.com/about/"},
		{"https://example.com/site/", []string{"docs", "intro"}, "https://example.com/site/docs/intro/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestFilterEmpty(t *testing.T) {
	got := FilterEmpty([]string{"a", " ", "", " b "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("FilterEmpty = %q", got)
	}
}
