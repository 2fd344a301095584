// Package generator implements the daily score algorithms.
// Every algorithm returns an integer in [0,100]; fractional results are
// floored and the value clamped before leaving this package.
package generator

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lucklab/fortuned/internal/domain"
)

// Algorithm names selectable via configuration.
const (
	AlgoUniform   = "uniform"
	AlgoHash      = "hash"
	AlgoNormal    = "normal"
	AlgoLucky     = "lucky"
	AlgoUnlucky   = "unlucky"
	AlgoPolarized = "polarized"
	AlgoLadder    = "ladder"
	AlgoGolden    = "golden"
	AlgoWeighted  = "weighted"
	AlgoSinWave   = "sinwave"
	AlgoCustom    = "custom"
)

// Config selects the algorithm and its parameters.
type Config struct {
	Algorithm string `toml:"algorithm"`

	// normal
	NormalMean float64 `toml:"normal_mean"`
	NormalStd  float64 `toml:"normal_std"`

	// lucky / unlucky: draw from a Beta distribution instead of the
	// boost/penalty roll
	UseBeta bool `toml:"use_beta"`

	// polarized
	PolarizedLowMax  int `toml:"polarized_low_max"`
	PolarizedHighMin int `toml:"polarized_high_min"`

	// ladder
	Ladder []int `toml:"ladder"`

	// weighted: parallel arrays, buckets[i] = [min, max]
	Buckets [][]int `toml:"buckets"`
	Weights []int   `toml:"weights"`

	// custom
	Expression string `toml:"expression"`
}

// DefaultConfig returns the built-in algorithm parameters.
func DefaultConfig() Config {
	return Config{
		Algorithm:        AlgoUniform,
		NormalMean:       60,
		NormalStd:        20,
		PolarizedLowMax:  30,
		PolarizedHighMin: 70,
		Ladder:           []int{0, 25, 50, 75, 100},
		Buckets:          [][]int{{0, 20}, {21, 40}, {41, 60}, {61, 80}, {81, 100}},
		Weights:          []int{10, 20, 40, 20, 10},
	}
}

// Generator produces daily scores for one configured algorithm.
type Generator struct {
	cfg     Config
	program *vm.Program // compiled custom expression, nil when unusable
	log     zerolog.Logger
}

// New builds a generator. A malformed custom expression is logged and the
// generator falls back to uniform for that algorithm.
func New(cfg Config, log zerolog.Logger) *Generator {
	g := &Generator{cfg: cfg, log: log}
	if cfg.Algorithm == AlgoCustom && cfg.Expression != "" {
		program, err := expr.Compile(cfg.Expression)
		if err != nil {
			log.Warn().Err(err).Str("expression", cfg.Expression).
				Msg("custom expression does not compile, falling back to uniform")
		} else {
			g.program = program
		}
	}
	return g
}

// Algorithm returns the configured algorithm name.
func (g *Generator) Algorithm() string { return g.cfg.Algorithm }

// Score computes the score for (userID, day). Only the hash algorithm is a
// pure function of its inputs; the rest consult the process random source.
// Per-day idempotency comes from the cache, not from the generator.
func (g *Generator) Score(userID string, day time.Time) int {
	switch g.cfg.Algorithm {
	case AlgoHash:
		return hashScore(userID, day)
	case AlgoNormal:
		return g.normal()
	case AlgoLucky:
		return g.lucky()
	case AlgoUnlucky:
		return g.unlucky()
	case AlgoPolarized:
		return g.polarized()
	case AlgoLadder:
		return g.ladder()
	case AlgoGolden:
		return golden()
	case AlgoWeighted:
		return g.weighted()
	case AlgoSinWave:
		return sinWave(day)
	case AlgoCustom:
		return g.custom(day)
	default:
		return uniform()
	}
}

func uniform() int { return rand.IntN(101) }

// randBetween returns a uniform integer in [lo, hi] inclusive.
func randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.IntN(hi-lo+1)
}

// hashScore is fully deterministic: md5(userID + "_" + day) mod 101.
func hashScore(userID string, day time.Time) int {
	sum := md5.Sum([]byte(userID + "_" + domain.DayKey(day)))
	return int(binary.BigEndian.Uint64(sum[:8]) % 101)
}

func (g *Generator) normal() int {
	dist := distuv.Normal{Mu: g.cfg.NormalMean, Sigma: g.cfg.NormalStd}
	return clamp(dist.Rand())
}

// lucky skews high: uniform [40,100] with a 30% chance of a +[10,30] boost,
// or Beta(8,2) scaled to [0,100] when use_beta is set.
func (g *Generator) lucky() int {
	if g.cfg.UseBeta {
		dist := distuv.Beta{Alpha: 8, Beta: 2}
		return clamp(dist.Rand() * 100)
	}
	base := randBetween(40, 100)
	if rand.Float64() < 0.3 {
		base += randBetween(10, 30)
	}
	return clamp(float64(base))
}

// unlucky is the mirror of lucky.
func (g *Generator) unlucky() int {
	if g.cfg.UseBeta {
		dist := distuv.Beta{Alpha: 2, Beta: 8}
		return clamp(dist.Rand() * 100)
	}
	base := randBetween(0, 60)
	if rand.Float64() < 0.3 {
		base -= randBetween(10, 30)
	}
	return clamp(float64(base))
}

func (g *Generator) polarized() int {
	lowMax, highMin := g.cfg.PolarizedLowMax, g.cfg.PolarizedHighMin
	if lowMax <= 0 || highMin <= lowMax || highMin > 100 {
		lowMax, highMin = 30, 70
	}
	if rand.Float64() < 0.5 {
		return randBetween(0, lowMax)
	}
	return randBetween(highMin, 100)
}

func (g *Generator) ladder() int {
	steps := g.cfg.Ladder
	if len(steps) == 0 {
		steps = []int{0, 25, 50, 75, 100}
	}
	return clamp(float64(steps[rand.IntN(len(steps))]))
}

// golden clusters 61.8% of draws around the golden-section band [38,62].
func golden() int {
	if rand.Float64() < 0.618 {
		return randBetween(38, 62)
	}
	return uniform()
}

func (g *Generator) weighted() int {
	buckets, weights := g.cfg.Buckets, g.cfg.Weights
	if len(buckets) == 0 || len(buckets) != len(weights) {
		def := DefaultConfig()
		buckets, weights = def.Buckets, def.Weights
	}
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return uniform()
	}
	pick := rand.IntN(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if pick < w {
			b := buckets[i]
			if len(b) != 2 {
				return uniform()
			}
			return clamp(float64(randBetween(b[0], b[1])))
		}
		pick -= w
	}
	return uniform()
}

// sinWave keys a deterministic base value to the day of year and adds
// bounded noise.
func sinWave(day time.Time) int {
	base := 50 + 30*math.Sin(float64(day.YearDay())*math.Pi/180)
	return clamp(base + float64(randBetween(-10, 10)))
}

// clamp floors v and pins it into [0,100].
func clamp(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	n := int(math.Floor(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
