package util

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than max", "abc", 10, "abc"},
		{"exactly max", "abcde", 5, "abcde"},
		{"longer than max", "abcdefghij", 6, "abc..."},
		{"tiny max", "abcdef", 3, "..."},
		{"multibyte runes", "日本語のテキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateANSIPlain(t *testing.T) {
	if got := TruncateANSI("hello world", 8); got != "hello..." {
		t.Errorf("TruncateANSI = %q, want %q", got, "hello...")
	}
	if got := TruncateANSI("short", 10); got != "short" {
		t.Errorf("TruncateANSI = %q, want unchanged input", got)
	}
}

func TestTruncateANSIStyled(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render(strings.Repeat("x", 40))

	got := TruncateANSI(styled, 10)
	if lipgloss.Width(got) > 10 {
		t.Errorf("truncated width = %d, want <= 10", lipgloss.Width(got))
	}
	if !strings.HasSuffix(stripTail(got), "...") && !strings.Contains(got, "...") {
		t.Errorf("truncated string missing ellipsis: %q", got)
	}
}

// stripTail drops a trailing ANSI reset sequence if present.
func stripTail(s string) string {
	return strings.TrimSuffix(s, "\x1b[0m")
}
