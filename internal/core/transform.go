package core

import "sync"

// TempPool recycles scratch grids keyed by shape so repeated transforms do
// not allocate every tick.
type TempPool struct {
	mu   sync.Mutex
	free map[[3]int][]*Grid
}

// NewTempPool returns an empty pool.
func NewTempPool() *TempPool {
	return &TempPool{free: map[[3]int][]*Grid{}}
}

// Get returns a grid of the requested shape. Contents are unspecified.
func (p *TempPool) Get(w, h, channels int) *Grid {
	key := [3]int{w, h, channels}
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.free[key]
	if n := len(list); n > 0 {
		g := list[n-1]
		p.free[key] = list[:n-1]
		return g
	}
	return NewGrid(w, h, channels)
}

// Release hands a grid back to the pool.
func (p *TempPool) Release(g *Grid) {
	if g == nil {
		return
	}
	key := [3]int{g.W, g.H, g.Channels}
	p.mu.Lock()
	p.free[key] = append(p.free[key], g)
	p.mu.Unlock()
}

// Transform rewrites g in place without aliasing reads and writes: g is
// copied into a temporary, fn reads the copy and writes g, and the temporary
// is released.
func (p *TempPool) Transform(g *Grid, fn func(src, dst *Grid)) {
	tmp := p.Get(g.W, g.H, g.Channels)
	tmp.CopyFrom(g)
	fn(tmp, g)
	p.Release(tmp)
}
