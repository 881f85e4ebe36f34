package main

// BusinessShare is one slice of the income breakdown used by the rendering
// layer's allocation chart
type BusinessShare struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Income float64 `json:"income"`
	Color  string  `json:"color"`
}

// influenceMultiplier returns the global prestige bonus applied to both
// passive income and manual clicks. Caller holds mu.
func (g *Game) influenceMultiplier() float64 {
	return 1 + float64(g.influence)*InfluenceBonusPerPoint
}

// InfluenceMultiplier returns the global prestige bonus
func (g *Game) InfluenceMultiplier() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.influenceMultiplier()
}

// recalc recomputes the two derived economy figures from first principles:
// aggregate income per second and net worth (cash plus the historical cost of
// every unit currently owned). Idempotent; safe to call after any mutation.
// Caller holds mu.
func (g *Game) recalc() {
	income := 0.0
	assetValue := g.cash
	globalMult := g.influenceMultiplier()

	for _, def := range BusinessCatalog {
		h := g.businesses[def.ID]
		income += BusinessIncome(def, h.Owned, h.Multiplier) * globalMult

		for i := 0; i < h.Owned; i++ {
			assetValue += BusinessPrice(def.BasePrice, i)
		}
	}

	g.incomePerSec = income
	g.netWorth = assetValue
}

// Recalc recomputes derived totals; exposed for callers that mutate nothing
// but want fresh figures (e.g. after load)
func (g *Game) Recalc() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recalc()
}

// RoiRatio returns the income gained from one additional unit of a business
// divided by that unit's marginal price. Display-only ranking figure; returns
// 0 for unknown businesses or a non-positive next price.
func (g *Game) RoiRatio(businessID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	def, ok := BusinessByID[businessID]
	if !ok {
		return 0
	}

	nextCost := BusinessPrice(def.BasePrice, g.businesses[businessID].Owned)
	if nextCost <= 0 {
		return 0
	}
	oneMoreIncome := BusinessIncome(def, 1, g.businesses[businessID].Multiplier) * g.influenceMultiplier()
	return oneMoreIncome / nextCost
}

// IncomeByBusiness returns the per-business income breakdown in catalog order
func (g *Game) IncomeByBusiness() []BusinessShare {
	g.mu.RLock()
	defer g.mu.RUnlock()

	globalMult := g.influenceMultiplier()
	shares := make([]BusinessShare, 0, len(BusinessCatalog))
	for _, def := range BusinessCatalog {
		h := g.businesses[def.ID]
		shares = append(shares, BusinessShare{
			ID:     def.ID,
			Name:   def.Name,
			Income: BusinessIncome(def, h.Owned, h.Multiplier) * globalMult,
			Color:  def.Color,
		})
	}
	return shares
}
