package tier_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/app/tier"
)

func TestClassify_DefaultTableCoversRange(t *testing.T) {
	table := tier.Build(tier.DefaultConfig(), zerolog.Nop())

	for s := 0; s <= 100; s++ {
		name, glyph := tier.Classify(table, s)
		if name == tier.Fallback.Name && glyph == tier.Fallback.Glyph {
			// 吉 is both a real band (51-70) and the fallback name; only
			// scores outside every band are a coverage failure.
			if s < 51 || s > 70 {
				t.Errorf("score %d hit the fallback tier, want a configured band", s)
			}
		}
	}
}

func TestClassify_BandBoundaries(t *testing.T) {
	table := tier.Build(tier.DefaultConfig(), zerolog.Nop())

	tests := []struct {
		score int
		name  string
		glyph string
	}{
		{0, "大凶", "😱"},
		{10, "大凶", "😱"},
		{11, "凶", "😰"},
		{50, "末吉", "😐"},
		{70, "吉", "😊"},
		{90, "中吉", "😄"},
		{99, "大吉", "🎉"},
		{100, "神吉", "🌟"},
	}
	for _, tt := range tests {
		name, glyph := tier.Classify(table, tt.score)
		if name != tt.name || glyph != tt.glyph {
			t.Errorf("Classify(%d) = (%s, %s), want (%s, %s)", tt.score, name, glyph, tt.name, tt.glyph)
		}
	}
}

func TestClassify_ThreeBandTable(t *testing.T) {
	table := tier.Build(tier.Config{
		Ranges: [][]int{{0, 10}, {11, 89}, {90, 100}},
		Names:  []string{"bad", "ok", "great"},
		Glyphs: []string{"X", "Y", "Z"},
	}, zerolog.Nop())

	name, glyph := tier.Classify(table, 95)
	if name != "great" || glyph != "Z" {
		t.Errorf("Classify(95) = (%s, %s), want (great, Z)", name, glyph)
	}
}

// Overlapping bands resolve by configured order: first match wins.
func TestClassify_OverlapFirstMatchWins(t *testing.T) {
	table := tier.Build(tier.Config{
		Ranges: [][]int{{0, 100}, {50, 60}},
		Names:  []string{"wide", "narrow"},
		Glyphs: []string{"W", "N"},
	}, zerolog.Nop())

	if name, _ := tier.Classify(table, 55); name != "wide" {
		t.Errorf("Classify(55) = %s, want wide (first configured match)", name)
	}
}

// Gapped tables answer with the fallback instead of failing.
func TestClassify_GapUsesFallback(t *testing.T) {
	table := tier.Build(tier.Config{
		Ranges: [][]int{{0, 40}, {60, 100}},
		Names:  []string{"low", "high"},
		Glyphs: []string{"L", "H"},
	}, zerolog.Nop())

	name, glyph := tier.Classify(table, 50)
	if name != tier.Fallback.Name || glyph != tier.Fallback.Glyph {
		t.Errorf("Classify(50) = (%s, %s), want the fallback tier", name, glyph)
	}
}

// Short name/glyph arrays are padded, never an error.
func TestBuild_ShortArraysPadded(t *testing.T) {
	table := tier.Build(tier.Config{
		Ranges: [][]int{{0, 50}, {51, 100}},
		Names:  []string{"low"},
	}, zerolog.Nop())

	if len(table) != 2 {
		t.Fatalf("len(table) = %d, want 2", len(table))
	}
	if table[1].Name != "?" || table[1].Glyph != "🔮" {
		t.Errorf("padded tier = (%s, %s), want placeholders", table[1].Name, table[1].Glyph)
	}
}

func TestBuild_MalformedRangeSkipped(t *testing.T) {
	table := tier.Build(tier.Config{
		Ranges: [][]int{{0, 100}, {90}, {80, 20}},
		Names:  []string{"all", "bad", "worse"},
	}, zerolog.Nop())

	if len(table) != 1 {
		t.Fatalf("len(table) = %d, want 1 (malformed entries skipped)", len(table))
	}
}

func TestBuild_EmptyConfigUsesDefault(t *testing.T) {
	table := tier.Build(tier.Config{}, zerolog.Nop())
	if len(table) != 7 {
		t.Fatalf("len(table) = %d, want the 7 default bands", len(table))
	}
}
