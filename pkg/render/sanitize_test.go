package render_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-schemaform/pkg/render"
)

func TestSanitizeDescription(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain", "Just text", "Just text"},
		{"inline markup kept", "<b>Bold</b> and <em>soft</em>", "<b>Bold</b> and <em>soft</em>"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
		{"handlers dropped", `<span onclick="x()">hi</span>`, "<span>hi</span>"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := render.SanitizeDescription(tc.in); got != tc.want {
				t.Fatalf("SanitizeDescription(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeDescriptionLinks(t *testing.T) {
	t.Parallel()
	got := render.SanitizeDescription(`<a href="https://example.com" onclick="x()">docs</a><a href="javascript:alert(1)">bad</a>`)

	if !strings.Contains(got, `href="https://example.com"`) || !strings.Contains(got, `nofollow`) {
		t.Fatalf("expected safe link with nofollow, got %q", got)
	}
	if strings.Contains(got, "javascript:") || strings.Contains(got, "onclick") {
		t.Fatalf("unsafe markup kept: %q", got)
	}
}
