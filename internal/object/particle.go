package object

import (
	"math"
	"math/rand"
	"sync"

	"github.com/tomz197/snackdrop/internal/draw"
)

// particlePool is a sync.Pool for reusing Particle objects to reduce allocations.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is a short-lived visual effect.
type Particle struct {
	X, Y        float64 // Position
	VX, VY      float64 // Velocity, units per second
	Lifetime    float64 // Seconds remaining
	MaxLifetime float64 // Initial lifetime (for fade calculation)
	Drag        float64 // Velocity decay (1.0 = no drag)
	Color       draw.Color
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, lifetime float64, col draw.Color) *Particle {
	p := particlePool.Get().(*Particle)
	p.X = x
	p.Y = y
	p.VX = vx
	p.VY = vy
	p.Lifetime = lifetime
	p.MaxLifetime = lifetime
	p.Drag = 0.95
	p.Color = col
	return p
}

// Release returns the particle to the pool for reuse.
// Should be called when the particle is removed from the field.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// Update moves the particle by dt seconds and reports whether it expired.
func (p *Particle) Update(dt float64) bool {
	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return true
	}

	dragFactor := math.Pow(p.Drag, dt*60) // Normalize drag to ~60fps
	p.VX *= dragFactor
	p.VY *= dragFactor

	p.X += p.VX * dt
	p.Y += p.VY * dt
	return false
}

// Draw renders the particle as a pixel on the canvas.
func (p *Particle) Draw(c *draw.Canvas) {
	// Skip faded particles (< 25% lifetime)
	if p.MaxLifetime > 0 && p.Lifetime/p.MaxLifetime < 0.25 {
		return
	}
	c.SetFloat(p.X, p.Y, p.Color)
}

// Particles is a set of live effects.
type Particles []*Particle

// Burst adds count particles flying out of (x, y).
func (ps *Particles) Burst(x, y float64, count int, speed, lifetime float64, rng *rand.Rand) {
	for i := 0; i < count; i++ {
		angle := rng.Float64() * 2 * math.Pi
		// Speed variation 50% to 150%, lifetime 50% to 100%
		spd := speed * (0.5 + rng.Float64())
		life := lifetime * (0.5 + rng.Float64()*0.5)
		*ps = append(*ps, NewParticle(x, y, math.Cos(angle)*spd, math.Sin(angle)*spd, life, ColorBurst))
	}
}

// Update advances every particle and drops expired ones.
func (ps *Particles) Update(dt float64) {
	kept := (*ps)[:0]
	for _, p := range *ps {
		if p.Update(dt) {
			p.Release()
			continue
		}
		kept = append(kept, p)
	}
	clear((*ps)[len(kept):])
	*ps = kept
}

// Draw renders every particle.
func (ps Particles) Draw(c *draw.Canvas) {
	for _, p := range ps {
		p.Draw(c)
	}
}

// Reset releases every particle.
func (ps *Particles) Reset() {
	for _, p := range *ps {
		p.Release()
	}
	clear(*ps)
	*ps = (*ps)[:0]
}
