package main

import (
	"math"
	"sync"
	"time"
)

// Holding is the mutable per-business state: owned count and the accumulated
// upgrade multiplier. Multiplier only ever increases until a run reset.
type Holding struct {
	Owned      int     `json:"owned"`
	Multiplier float64 `json:"multiplier"`
}

// Game holds the full mutable simulation state for one player.
// All mutation goes through its methods; the mutex serializes the session
// tick loop against client action handlers.
type Game struct {
	mu sync.RWMutex

	cash             float64
	businesses       map[string]*Holding
	upgrades         map[string]bool
	clickPower       float64
	influence        int
	incorporations   int
	lifetimeEarnings float64

	// Derived, recomputed by recalc — never mutated independently
	incomePerSec float64
	netWorth     float64

	buyMode     string
	history     *IncomeHistory
	lastSavedAt time.Time

	// now is injectable for offline-reconciliation tests
	now func() time.Time
}

// NewGame creates a fresh simulation with all holdings at zero and every
// upgrade unpurchased
func NewGame() *Game {
	g := &Game{
		businesses: make(map[string]*Holding, len(BusinessCatalog)),
		upgrades:   make(map[string]bool, len(UpgradeCatalog)),
		buyMode:    DefaultBuyMode,
		history:    NewIncomeHistory(),
		now:        time.Now,
	}
	g.resetRunProgress()
	g.lastSavedAt = g.now()
	return g
}

// resetRunProgress clears everything a prestige reset clears. Caller holds mu.
// Meta-progression (influence, incorporations, lifetime earnings, buy mode)
// is deliberately untouched here.
func (g *Game) resetRunProgress() {
	g.cash = 0
	g.clickPower = BaseClickPower
	g.history.Reset()

	for _, def := range BusinessCatalog {
		g.businesses[def.ID] = &Holding{Owned: 0, Multiplier: 1}
	}
	for _, u := range UpgradeCatalog {
		g.upgrades[u.ID] = false
	}
}

// addCash credits earnings to both cash and lifetime earnings. Caller holds mu.
// Non-positive and non-finite amounts are ignored.
func (g *Game) addCash(amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return
	}
	g.cash += amount
	g.lifetimeEarnings += amount
}

// Advance moves the simulation forward by elapsedSeconds of active play.
// Correct for arbitrarily large or small deltas, including zero; negative
// deltas (clock irregularities) are clamped to zero.
func (g *Game) Advance(elapsedSeconds float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if elapsedSeconds < 0 || math.IsNaN(elapsedSeconds) {
		elapsedSeconds = 0
	}

	g.addCash(g.incomePerSec * elapsedSeconds)
	g.recalc()
	g.history.Record(elapsedSeconds, g.incomePerSec)
}

// Click performs one manual action, crediting the effective click power
func (g *Game) Click() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addCash(g.clickPower * g.influenceMultiplier())
	g.recalc()
}

// BuyBusiness executes the currently selected purchase plan for a business.
// Unknown IDs and unaffordable plans are silent no-ops.
func (g *Game) BuyBusiness(businessID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	def, ok := BusinessByID[businessID]
	if !ok {
		return false
	}

	holding := g.businesses[businessID]
	plan := ResolvePurchasePlan(def, holding.Owned, g.cash, g.buyMode)
	if plan.Quantity <= 0 || g.cash < plan.TotalCost {
		return false
	}

	g.cash -= plan.TotalCost
	holding.Owned += plan.Quantity
	g.recalc()
	return true
}

// SetBuyMode switches the bulk-purchase selector. Unknown tokens are ignored.
func (g *Game) SetBuyMode(mode string) {
	if !ValidBuyMode(mode) {
		return
	}
	g.mu.Lock()
	g.buyMode = mode
	g.mu.Unlock()
}

// BuyMode returns the current bulk-purchase selector
func (g *Game) BuyMode() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.buyMode
}

// Cash returns the current currency balance
func (g *Game) Cash() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cash
}

// IncomePerSec returns the derived aggregate income rate
func (g *Game) IncomePerSec() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incomePerSec
}

// NetWorth returns the derived net-worth figure
func (g *Game) NetWorth() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.netWorth
}

// LifetimeEarnings returns total earnings across the current game
func (g *Game) LifetimeEarnings() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lifetimeEarnings
}

// Influence returns the prestige currency balance
func (g *Game) Influence() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.influence
}

// Incorporations returns how many times the player has incorporated
func (g *Game) Incorporations() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incorporations
}

// Holding returns a copy of one business holding
func (g *Game) Holding(businessID string) Holding {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if h, ok := g.businesses[businessID]; ok {
		return *h
	}
	return Holding{}
}

// HasUpgrade reports whether an upgrade has been purchased
func (g *Game) HasUpgrade(upgradeID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.upgrades[upgradeID]
}

// ClickPower returns the base manual-action power (before influence bonus)
func (g *Game) ClickPower() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clickPower
}

// EffectiveClickPower returns manual-action power with the influence bonus
func (g *Game) EffectiveClickPower() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clickPower * g.influenceMultiplier()
}

// History returns a copy of the sampled income history
func (g *Game) History() []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.history.Points()
}
