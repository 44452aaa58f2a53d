package world

import (
	"hash/fnv"
	"io"
	"math"
	"math/rand"
)

// DeterministicSeedValue hashes the run seed and a subsystem label into a
// non-zero source seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	h := fnv.New64a()
	io.WriteString(h, rootSeed)
	io.WriteString(h, "/")
	io.WriteString(h, label)
	if v := int64(h.Sum64()); v != 0 {
		return v
	}
	return 1
}

// NewDeterministicRNG gives each subsystem its own stream so adding draws in
// one does not shift another.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// RandomFloat draws from [0,1). A nil rng yields 0.5 so callers without a
// stream stay deterministic.
func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return 0.5
	}
	return rng.Float64()
}

func RandomAngle(rng *rand.Rand) float64 { return 2 * math.Pi * RandomFloat(rng) }

// RandomDistance draws uniformly from [lo, hi]. An empty range returns lo.
func RandomDistance(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*RandomFloat(rng)
}

func RandomSign(rng *rand.Rand) float64 {
	if RandomFloat(rng) >= 0.5 {
		return 1
	}
	return -1
}

// RandomPointInRing picks a point whose distance from center lies in
// [minRadius, maxRadius].
func RandomPointInRing(rng *rand.Rand, center Vec2, minRadius, maxRadius float64) Vec2 {
	return center.Add(FromAngle(RandomAngle(rng)).Scale(RandomDistance(rng, minRadius, maxRadius)))
}

// RandomEdgePoint picks a point exactly inset from one of the four edges of
// bounds, uniformly along that edge.
func RandomEdgePoint(rng *rand.Rand, bounds Rect, inset float64) Vec2 {
	lo, hi := bounds.Min(), bounds.Max()
	along := RandomFloat(rng)
	edge := int(4 * RandomFloat(rng))
	x := lo.X + along*(hi.X-lo.X)
	y := lo.Y + along*(hi.Y-lo.Y)
	switch edge {
	case 0:
		x = lo.X + inset
	case 1:
		x = hi.X - inset
	case 2:
		y = lo.Y + inset
	default:
		y = hi.Y - inset
	}
	return Vec2{X: x, Y: y}
}
