package main

import "math"

// IncorporationThreshold returns the cash required to incorporate. Derived
// from the incorporation counter alone; grows geometrically so influence is
// strictly harder to re-earn each cycle.
func (g *Game) IncorporationThreshold() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incorporationThreshold()
}

func (g *Game) incorporationThreshold() float64 {
	return PrestigeThreshold * math.Pow(IncorporationThresholdGrowth, float64(g.incorporations))
}

// InfluenceGain returns the influence awarded by incorporating right now:
// 0 below the threshold, at least 1 at it, and super-linear with overshoot.
func (g *Game) InfluenceGain() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.influenceGain()
}

func (g *Game) influenceGain() int {
	threshold := g.incorporationThreshold()
	if g.cash < threshold {
		return 0
	}
	gain := int(math.Floor(math.Sqrt(g.cash / threshold)))
	if gain < 1 {
		return 1
	}
	return gain
}

// CanIncorporate reports whether incorporation is currently eligible.
// Confirmation prompts are the caller's concern.
func (g *Game) CanIncorporate() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cash >= g.incorporationThreshold()
}

// Incorporate trades the current run for permanent influence: adds the
// computed gain, increments the incorporation counter, and resets all
// run-scoped progress. Influence, incorporation count, lifetime earnings and
// buy mode survive. Returns the gain, or 0 if ineligible (no state touched).
func (g *Game) Incorporate() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	gain := g.influenceGain()
	if g.cash < g.incorporationThreshold() || gain < 1 {
		return 0
	}

	g.influence += gain
	g.incorporations++
	g.resetRunProgress()
	g.recalc()
	return gain
}

// ResetGame wipes the entire game, meta-progression included. Destructive;
// the caller is responsible for confirming with the player first.
func (g *Game) ResetGame() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resetRunProgress()
	g.influence = 0
	g.incorporations = 0
	g.lifetimeEarnings = 0
	g.buyMode = DefaultBuyMode
	g.lastSavedAt = g.now()
	g.recalc()
}
