package main

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

// Snapshot is the persisted save format. It round-trips exactly through the
// persistence store and the export/import textarea; field names are part of
// the save-compatibility contract.
type Snapshot struct {
	Cash             float64            `json:"cash"`
	Businesses       map[string]Holding `json:"businesses"`
	Upgrades         map[string]bool    `json:"upgrades"`
	ClickPower       float64            `json:"clickPower"`
	Influence        int                `json:"influence"`
	Incorporations   int                `json:"incorporations"`
	LifetimeEarnings float64            `json:"lifetimeEarnings"`
	BuyMode          string             `json:"buyMode"`
	LastSavedAt      int64              `json:"lastSavedAt"` // epoch milliseconds
}

// snapshotPayload is the loosely-typed decode target for untrusted saves.
// Pointer fields distinguish "absent" from zero so each field can fall back
// independently.
type snapshotPayload struct {
	Cash             *float64                   `json:"cash"`
	Businesses       map[string]holdingPayload  `json:"businesses"`
	Upgrades         map[string]bool            `json:"upgrades"`
	ClickPower       *float64                   `json:"clickPower"`
	Influence        *float64                   `json:"influence"`
	Incorporations   *float64                   `json:"incorporations"`
	LifetimeEarnings *float64                   `json:"lifetimeEarnings"`
	BuyMode          *string                    `json:"buyMode"`
	LastSavedAt      *float64                   `json:"lastSavedAt"`
}

type holdingPayload struct {
	Owned      *float64 `json:"owned"`
	Multiplier *float64 `json:"multiplier"`
}

// OfflineResult reports what an offline reconciliation pass awarded
type OfflineResult struct {
	Earned  float64 `json:"earned"`
	Seconds float64 `json:"seconds"`
}

// decodeSavePayload parses raw save bytes. The payload is rejected only when
// it is not a JSON object or its cash field is missing or not a finite
// number; a type error on any other field degrades to that field's default.
func decodeSavePayload(raw []byte) (*snapshotPayload, bool) {
	var p snapshotPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// Partial decodes still fill the well-typed fields; anything worse
		// (not an object at all) leaves cash unset and is rejected below.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, false
		}
	}
	if p.Cash == nil || math.IsNaN(*p.Cash) || math.IsInf(*p.Cash, 0) {
		return nil, false
	}
	return &p, true
}

// coerceFloat clamps a possibly-absent number to a floor, falling back when
// absent or non-finite
func coerceFloat(v *float64, floor, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback
	}
	if *v < floor {
		return floor
	}
	return *v
}

// coerceCount coerces a possibly-absent number to a non-negative integer
func coerceCount(v *float64) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	n := int(math.Floor(*v))
	if n < 0 {
		return 0
	}
	return n
}

// applyPayload overwrites run state from a validated payload, coercing every
// field to a safe value. Caller holds mu.
func (g *Game) applyPayload(p *snapshotPayload) {
	g.cash = math.Max(0, *p.Cash)

	for _, def := range BusinessCatalog {
		incoming := p.Businesses[def.ID]
		g.businesses[def.ID] = &Holding{
			Owned:      coerceCount(incoming.Owned),
			Multiplier: coerceFloat(incoming.Multiplier, MinHoldingMultiplier, 1),
		}
	}

	for _, u := range UpgradeCatalog {
		g.upgrades[u.ID] = p.Upgrades[u.ID]
	}

	g.clickPower = coerceFloat(p.ClickPower, MinClickPower, BaseClickPower)
	g.influence = coerceCount(p.Influence)
	g.incorporations = coerceCount(p.Incorporations)
	g.lifetimeEarnings = coerceFloat(p.LifetimeEarnings, 0, g.cash)

	g.buyMode = DefaultBuyMode
	if p.BuyMode != nil && ValidBuyMode(*p.BuyMode) {
		g.buyMode = *p.BuyMode
	}

	g.lastSavedAt = g.now()
	if p.LastSavedAt != nil && !math.IsNaN(*p.LastSavedAt) && !math.IsInf(*p.LastSavedAt, 0) {
		g.lastSavedAt = time.UnixMilli(int64(*p.LastSavedAt))
	}

	g.recalc()
}

// RestoreSave replaces run state from raw save bytes and reconciles income
// earned since the save's timestamp. Returns ok=false (state untouched) when
// the payload is unusable; the offline result is for caller display.
// The stored timestamp is advanced immediately so a second restore of the
// same bytes awards nothing further for the same window.
func (g *Game) RestoreSave(raw []byte) (OfflineResult, bool) {
	p, ok := decodeSavePayload(raw)
	if !ok {
		return OfflineResult{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.applyPayload(p)
	return g.applyOfflineIncome(g.lastSavedAt), true
}

// applyOfflineIncome credits income for the wall-clock gap since prev and
// stamps lastSavedAt so the same window cannot be awarded twice.
// Caller holds mu.
func (g *Game) applyOfflineIncome(prev time.Time) OfflineResult {
	now := g.now()
	defer func() { g.lastSavedAt = now }()

	elapsed := now.Sub(prev).Seconds()
	if elapsed <= 0 || g.incomePerSec <= 0 {
		return OfflineResult{}
	}

	earned := g.incomePerSec * elapsed
	g.addCash(earned)
	g.recalc()
	// The gap can be arbitrarily long; seed the chart with one sample at the
	// current rate instead of replaying every elapsed interval through it.
	g.history.Append(g.incomePerSec)

	return OfflineResult{Earned: earned, Seconds: elapsed}
}

// ExportSave stamps the save timestamp and returns the serialized snapshot
func (g *Game) ExportSave() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastSavedAt = g.now()
	snap := Snapshot{
		Cash:             g.cash,
		Businesses:       make(map[string]Holding, len(g.businesses)),
		Upgrades:         make(map[string]bool, len(g.upgrades)),
		ClickPower:       g.clickPower,
		Influence:        g.influence,
		Incorporations:   g.incorporations,
		LifetimeEarnings: g.lifetimeEarnings,
		BuyMode:          g.buyMode,
		LastSavedAt:      g.lastSavedAt.UnixMilli(),
	}
	for id, h := range g.businesses {
		snap.Businesses[id] = *h
	}
	for id, owned := range g.upgrades {
		snap.Upgrades[id] = owned
	}

	data, err := json.Marshal(snap)
	if err != nil {
		// Snapshot contains only plain maps and numbers; marshal cannot fail
		return []byte("{}")
	}
	return data
}
