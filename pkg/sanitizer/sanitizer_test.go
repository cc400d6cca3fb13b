package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   \t\n ", ""},
		{"collapses inner whitespace", "  Piso   luminoso\ten  el centro ", "Piso luminoso en el centro"},
		{"keeps accents", " Cádiz ", "Cádiz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := TrimAndNormalize(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestTrimLines(t *testing.T) {
	got := TrimLines("  No fumar.  \r\n\r\n  No   mascotas. \n")
	want := "No fumar.\n\nNo mascotas."
	if got != want {
		t.Errorf("TrimLines() = %q, want %q", got, want)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Guest@Example.COM "); got != "guest@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "  ", ""},
		{"adds https", "cdn.example.com/Photos/A.jpg", "https://cdn.example.com/Photos/A.jpg"},
		{"lowercases host only", "HTTPS://CDN.Example.com/Photos/A.jpg", "https://cdn.example.com/Photos/A.jpg"},
		{"keeps http", "http://maps.example.com/place", "http://maps.example.com/place"},
		{"trims trailing slash", "https://example.com/map/", "https://example.com/map"},
		{"drops tracking", "https://example.com/p?utm_source=x&q=madrid", "https://example.com/p?q=madrid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURL(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeURL(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}
