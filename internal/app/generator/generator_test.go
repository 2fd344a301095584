package generator_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucklab/fortuned/internal/app/generator"
)

func newGen(t *testing.T, mutate func(*generator.Config)) *generator.Generator {
	t.Helper()
	cfg := generator.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return generator.New(cfg, zerolog.Nop())
}

var testDay = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

// Every algorithm must stay inside [0,100] on every draw.
func TestScore_RangeInvariant(t *testing.T) {
	algorithms := []string{
		generator.AlgoUniform, generator.AlgoHash, generator.AlgoNormal,
		generator.AlgoLucky, generator.AlgoUnlucky, generator.AlgoPolarized,
		generator.AlgoLadder, generator.AlgoGolden, generator.AlgoWeighted,
		generator.AlgoSinWave, generator.AlgoCustom,
	}

	for _, algo := range algorithms {
		t.Run(algo, func(t *testing.T) {
			g := newGen(t, func(cfg *generator.Config) {
				cfg.Algorithm = algo
				cfg.Expression = "randint(0, 200) - 50" // exercises clamping
			})
			for i := 0; i < 500; i++ {
				day := testDay.AddDate(0, 0, i%37)
				score := g.Score("user-range", day)
				if score < 0 || score > 100 {
					t.Fatalf("%s produced %d, want [0,100]", algo, score)
				}
			}
		})
	}
}

func TestScore_HashDeterministic(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) { cfg.Algorithm = generator.AlgoHash })

	first := g.Score("alice", testDay)
	for i := 0; i < 10; i++ {
		if got := g.Score("alice", testDay); got != first {
			t.Fatalf("hash score changed between calls: %d then %d", first, got)
		}
	}
}

func TestScore_HashVariesAcrossInputs(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) { cfg.Algorithm = generator.AlgoHash })

	base := g.Score("alice", testDay)
	varies := false
	for i := 1; i <= 50 && !varies; i++ {
		varies = g.Score("alice", testDay.AddDate(0, 0, i)) != base
	}
	if !varies {
		t.Error("hash score identical across 50 days — seed is not mixing the day")
	}
}

func TestScore_LadderMembership(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) { cfg.Algorithm = generator.AlgoLadder })

	allowed := map[int]bool{0: true, 25: true, 50: true, 75: true, 100: true}
	for i := 0; i < 200; i++ {
		if score := g.Score("u", testDay); !allowed[score] {
			t.Fatalf("ladder produced %d, want one of {0,25,50,75,100}", score)
		}
	}
}

func TestScore_PolarizedAvoidsMiddle(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) { cfg.Algorithm = generator.AlgoPolarized })

	for i := 0; i < 200; i++ {
		score := g.Score("u", testDay)
		if score > 30 && score < 70 {
			t.Fatalf("polarized produced mid-range %d", score)
		}
	}
}

func TestScore_CustomExpression(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) {
		cfg.Algorithm = generator.AlgoCustom
		cfg.Expression = "42"
	})
	for i := 0; i < 10; i++ {
		if got := g.Score("u", testDay); got != 42 {
			t.Fatalf("constant expression = %d, want 42", got)
		}
	}
}

func TestScore_CustomExpressionClamped(t *testing.T) {
	for expr, want := range map[string]int{"150": 100, "-5": 0} {
		g := newGen(t, func(cfg *generator.Config) {
			cfg.Algorithm = generator.AlgoCustom
			cfg.Expression = expr
		})
		if got := g.Score("u", testDay); got != want {
			t.Errorf("expression %q = %d, want %d", expr, got, want)
		}
	}
}

// A malformed expression falls back to uniform instead of erroring.
func TestScore_CustomExpressionFallback(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) {
		cfg.Algorithm = generator.AlgoCustom
		cfg.Expression = "this is (not an expression"
	})
	for i := 0; i < 100; i++ {
		score := g.Score("u", testDay)
		if score < 0 || score > 100 {
			t.Fatalf("fallback produced %d, want [0,100]", score)
		}
	}
}

// Unknown algorithm names degrade to uniform.
func TestScore_UnknownAlgorithm(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) { cfg.Algorithm = "no-such-algorithm" })
	for i := 0; i < 100; i++ {
		score := g.Score("u", testDay)
		if score < 0 || score > 100 {
			t.Fatalf("got %d, want [0,100]", score)
		}
	}
}

// Mismatched weighted buckets use the default distribution, not a crash.
func TestScore_WeightedMalformedConfig(t *testing.T) {
	g := newGen(t, func(cfg *generator.Config) {
		cfg.Algorithm = generator.AlgoWeighted
		cfg.Buckets = [][]int{{0, 50}}
		cfg.Weights = []int{1, 2, 3}
	})
	for i := 0; i < 100; i++ {
		score := g.Score("u", testDay)
		if score < 0 || score > 100 {
			t.Fatalf("got %d, want [0,100]", score)
		}
	}
}
