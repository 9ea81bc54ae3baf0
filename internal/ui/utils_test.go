package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	cases := map[string]struct {
		in     string
		maxLen int
		want   string
	}{
		"empty input":             {"", 8, ""},
		"fits untouched":          {"book venue", 20, "book venue"},
		"exact fit":               {"venue", 5, "venue"},
		"cut gets ellipsis":       {"confirm the caterer", 10, "confirm..."},
		"tiny max skips dots":     {"venue", 2, "ve"},
		"zero max disables":       {"venue", 0, "venue"},
		"runes counted not bytes": {"日本語のゴール", 6, "日本語..."},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Truncate(tc.in, tc.maxLen))
		})
	}
}

func TestWrapText(t *testing.T) {
	t.Run("fits on one line", func(t *testing.T) {
		assert.Equal(t, "hello world", WrapText("hello world", 20))
	})

	t.Run("zero width leaves text alone", func(t *testing.T) {
		assert.Equal(t, "hello", WrapText("hello", 0))
	})

	t.Run("no wrapped line exceeds the width", func(t *testing.T) {
		got := WrapText("plan the venue visit and confirm the caterer before Friday", 12)
		for _, line := range strings.Split(got, "\n") {
			assert.LessOrEqual(t, len([]rune(line)), 12, "line %q", line)
		}
	})

	t.Run("existing breaks are preserved", func(t *testing.T) {
		assert.Equal(t, "first\nsecond", WrapText("first\nsecond", 40))
	})

	t.Run("width counts runes", func(t *testing.T) {
		got := WrapText("日本語 ゴール 設定", 4)
		for _, line := range strings.Split(got, "\n") {
			assert.LessOrEqual(t, len([]rune(line)), 4, "line %q", line)
		}
	})
}

func TestRenderPanel(t *testing.T) {
	t.Run("title and content", func(t *testing.T) {
		out := RenderPanel("Venue", "Booked for June 12")
		assert.Contains(t, out, "Venue")
		assert.Contains(t, out, "Booked for June 12")
	})

	t.Run("content only", func(t *testing.T) {
		assert.Contains(t, RenderPanel("", "Content only"), "Content only")
	})
}
