// Package render is the presentation layer: literal {placeholder}
// substitution over configured message templates, plus width-aware padding
// for leaderboard rows. The core never depends on template syntax — it
// hands this package a plain key-value bag.
package render

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// Render replaces every {key} in template with its value. Unknown
// placeholders are left intact so template typos stay visible.
func Render(template string, vars map[string]any) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// PadDisplay right-pads s with spaces to the given monospace display width.
// Grapheme-aware so CJK names and emoji glyphs keep columns aligned.
func PadDisplay(s string, width int) string {
	w := uniseg.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// DisplayWidth returns the monospace display width of s.
func DisplayWidth(s string) int {
	return uniseg.StringWidth(s)
}
