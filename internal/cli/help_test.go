package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/law-makers/scentcrawl/internal/ui"
	"github.com/stretchr/testify/assert"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"joins short lines", "one two\nthree", 80, "one two three"},
		{"wraps at width", "aaa bbb ccc", 7, "aaa bbb\nccc"},
		{"keeps paragraphs", "first\n\nsecond", 80, "first\n\nsecond"},
		{"list items stand alone", "intro\n- one\n- two", 80, "intro\n- one\n- two"},
		{"empty", "", 80, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.in, tt.width))
		})
	}
}

func TestWriteFlags_Aligns(t *testing.T) {
	var buf bytes.Buffer
	writeFlags(&buf, "  -o, --output string   File to write\n      --ordered         Keep catalog order\n")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], ui.ColorGreen+"-o, --output string"+ui.ColorReset)
	assert.Contains(t, lines[1], ui.ColorDim+"Keep catalog order"+ui.ColorReset)
	// descriptions start in the same column
	assert.Equal(t, strings.Index(lines[0], ui.ColorDim), strings.Index(lines[1], ui.ColorDim))
}

func TestSplitFlagLine(t *testing.T) {
	name, desc, ok := splitFlagLine("  -w, --workers int   Concurrent browser sessions (1-10)")
	assert.True(t, ok)
	assert.Equal(t, "-w, --workers int", name)
	assert.Equal(t, "Concurrent browser sessions (1-10)", desc)

	_, _, ok = splitFlagLine("        continued description")
	assert.False(t, ok)
}
