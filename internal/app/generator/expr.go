package generator

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/expr-lang/expr/vm"
)

// exprEnv is the whitelisted environment for custom expressions: arithmetic,
// trigonometry and random primitives only. No ambient access of any kind.
func exprEnv(day time.Time) map[string]any {
	return map[string]any{
		"pi":        math.Pi,
		"e":         math.E,
		"dayofyear": day.YearDay(),
		"rand":      func() float64 { return rand.Float64() },
		"randint":   func(lo, hi int) int { return randBetween(lo, hi) },
		"sin":       math.Sin,
		"cos":       math.Cos,
		"tan":       math.Tan,
		"sqrt":      math.Sqrt,
		"floor":     math.Floor,
		"ceil":      math.Ceil,
		"abs":       math.Abs,
		"pow":       math.Pow,
		"min":       math.Min,
		"max":       math.Max,
	}
}

// custom evaluates the compiled expression. Any failure — the expression
// never compiled, evaluation errors, or a non-numeric result — falls back
// to uniform.
func (g *Generator) custom(day time.Time) int {
	if g.program == nil {
		return uniform()
	}
	out, err := vm.Run(g.program, exprEnv(day))
	if err != nil {
		g.log.Debug().Err(err).Msg("custom expression failed, using uniform")
		return uniform()
	}
	switch v := out.(type) {
	case int:
		return clamp(float64(v))
	case int64:
		return clamp(float64(v))
	case float64:
		return clamp(v)
	default:
		g.log.Debug().Msg("custom expression returned a non-numeric value, using uniform")
		return uniform()
	}
}
