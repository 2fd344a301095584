// Package tier maps scores to labeled fortune bands.
package tier

import (
	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/domain"
)

// Fallback is returned when no configured band matches a score, so
// malformed or gapped tables still classify every draw.
var Fallback = domain.Tier{Name: "吉", Glyph: "😊"}

// Placeholders used when the name or glyph arrays are shorter than the
// range array.
const (
	placeholderName  = "?"
	placeholderGlyph = "🔮"
)

// Config supplies the table as parallel arrays aligned by index.
type Config struct {
	Ranges [][]int  `toml:"ranges"` // each entry [min, max], inclusive
	Names  []string `toml:"names"`
	Glyphs []string `toml:"glyphs"`
}

// DefaultConfig is the built-in seven-band table.
func DefaultConfig() Config {
	return Config{
		Ranges: [][]int{{0, 10}, {11, 30}, {31, 50}, {51, 70}, {71, 90}, {91, 99}, {100, 100}},
		Names:  []string{"大凶", "凶", "末吉", "吉", "中吉", "大吉", "神吉"},
		Glyphs: []string{"😱", "😰", "😐", "😊", "😄", "🎉", "🌟"},
	}
}

// Build assembles the table once at startup. Short name/glyph arrays are
// padded with placeholders; malformed range entries are skipped. A table
// that leaves gaps or overlaps in [0,100] is kept as configured — the
// classifier tolerates it via first-match-wins plus the fallback tier —
// but a warning is logged so the operator can see the hole.
func Build(cfg Config, log zerolog.Logger) domain.TierTable {
	if len(cfg.Ranges) == 0 {
		cfg = DefaultConfig()
	}
	table := make(domain.TierTable, 0, len(cfg.Ranges))
	for i, r := range cfg.Ranges {
		if len(r) != 2 || r[1] < r[0] {
			log.Warn().Int("index", i).Ints("range", r).Msg("skipping malformed tier range")
			continue
		}
		t := domain.Tier{Min: r[0], Max: r[1], Name: placeholderName, Glyph: placeholderGlyph}
		if i < len(cfg.Names) && cfg.Names[i] != "" {
			t.Name = cfg.Names[i]
		}
		if i < len(cfg.Glyphs) && cfg.Glyphs[i] != "" {
			t.Glyph = cfg.Glyphs[i]
		}
		table = append(table, t)
	}
	if !covers(table) {
		log.Warn().Msg("tier table does not cover [0,100]; uncovered scores use the fallback tier")
	}
	return table
}

// Classify scans the table in configured order and returns the first band
// containing score. Configured order is the tie-break for overlapping
// bands; no match returns the fallback.
func Classify(table domain.TierTable, score int) (name, glyph string) {
	for _, t := range table {
		if t.Contains(score) {
			return t.Name, t.Glyph
		}
	}
	return Fallback.Name, Fallback.Glyph
}

// covers reports whether every score in [0,100] hits some band.
func covers(table domain.TierTable) bool {
	for s := 0; s <= 100; s++ {
		hit := false
		for _, t := range table {
			if t.Contains(s) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
