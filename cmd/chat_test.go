package cmd

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateExcerpt(t *testing.T) {
	if got := truncateExcerpt("short", 200); got != "short" {
		t.Errorf("short strings must pass through, got %q", got)
	}

	long := strings.Repeat("a", 250)
	got := truncateExcerpt(long, 200)
	if len([]rune(got)) != 200 {
		t.Errorf("expected 200 characters, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated excerpt must end with ellipsis, got %q", got)
	}

	// Exactly at the limit is not truncated
	exact := strings.Repeat("b", 200)
	if got := truncateExcerpt(exact, 200); got != exact {
		t.Errorf("strings at the limit must pass through, got %q", got)
	}
}

func TestTruncateExcerptMultiByte(t *testing.T) {
	// Every character is 3 bytes; byte-based slicing would split one
	long := strings.Repeat("断", 250)
	got := truncateExcerpt(long, 200)

	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got[:12])
	}
	if len([]rune(got)) != 200 {
		t.Errorf("expected 200 characters, got %d", len([]rune(got)))
	}
	if !strings.HasPrefix(got, "断") || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected truncation result: %.20q", got)
	}
}
