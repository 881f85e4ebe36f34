package main

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

// fixedClock pins a game's clock for deterministic reconciliation tests
func fixedClock(g *Game, at time.Time) {
	g.now = func() time.Time { return at }
}

func TestExportRestoreRoundTrip(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 4e6)
	g.Incorporate() // influence 2, incorporations 1
	grantCash(t, g, 5432.1)
	setOwned(t, g, "newsstand", 20)
	setOwned(t, g, "steel", 4)
	g.mu.Lock()
	g.businesses["newsstand"].Multiplier = 1.35
	g.upgrades["newsstand_mechanization"] = true
	g.clickPower = 3
	g.lifetimeEarnings = 9e6
	g.recalc()
	g.mu.Unlock()
	g.SetBuyMode(BuyMode10)

	raw := g.ExportSave()

	loaded := NewGame()
	// Pin both clocks to the export moment so no offline income accrues
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	fixedClock(loaded, time.UnixMilli(snap.LastSavedAt))

	if _, ok := loaded.RestoreSave(raw); !ok {
		t.Fatal("restore should accept own export")
	}

	if !almostEqual(loaded.Cash(), g.Cash(), 1e-9) {
		t.Errorf("cash = %f, want %f", loaded.Cash(), g.Cash())
	}
	if h := loaded.Holding("newsstand"); h.Owned != 20 || !almostEqual(h.Multiplier, 1.35, 1e-12) {
		t.Errorf("newsstand holding = %+v", h)
	}
	if loaded.Holding("steel").Owned != 4 {
		t.Errorf("steel owned = %d, want 4", loaded.Holding("steel").Owned)
	}
	if !loaded.HasUpgrade("newsstand_mechanization") {
		t.Error("upgrade flag lost in round trip")
	}
	if loaded.ClickPower() != 3 {
		t.Errorf("click power = %f, want 3", loaded.ClickPower())
	}
	if loaded.Influence() != 2 || loaded.Incorporations() != 1 {
		t.Errorf("prestige = %d/%d, want 2/1", loaded.Influence(), loaded.Incorporations())
	}
	if loaded.LifetimeEarnings() != 9e6 {
		t.Errorf("lifetime = %f, want 9e6", loaded.LifetimeEarnings())
	}
	if loaded.BuyMode() != BuyMode10 {
		t.Errorf("buy mode = %q, want 10", loaded.BuyMode())
	}
	if !almostEqual(loaded.IncomePerSec(), g.IncomePerSec(), 1e-9) {
		t.Errorf("derived income = %f, want %f", loaded.IncomePerSec(), g.IncomePerSec())
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json",
		"[1,2,3]",
		`"just a string"`,
		`{"businesses":{}}`,       // cash missing
		`{"cash":"plenty"}`,       // cash wrong type
		`{"cash":null}`,           // cash null
	} {
		g := NewGame()
		grantCash(t, g, 777)
		if _, ok := g.RestoreSave([]byte(raw)); ok {
			t.Errorf("restore accepted %q", raw)
		}
		if g.Cash() != 777 {
			t.Errorf("rejected restore of %q touched state", raw)
		}
	}
}

func TestRestoreCoercesBadFields(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	raw := []byte(`{
		"cash": 250.5,
		"businesses": {
			"newsstand": {"owned": -3, "multiplier": 0},
			"steel": {"owned": 2.9}
		},
		"upgrades": {"steel_mechanization": true, "bogus_upgrade": true},
		"clickPower": -1,
		"influence": -2,
		"incorporations": 1.7,
		"buyMode": "9000"
	}`)

	if _, ok := g.RestoreSave(raw); !ok {
		t.Fatal("partially damaged save should still load")
	}

	if g.Cash() != 250.5 {
		t.Errorf("cash = %f, want 250.5", g.Cash())
	}
	if h := g.Holding("newsstand"); h.Owned != 0 {
		t.Errorf("negative owned should floor to 0, got %d", h.Owned)
	}
	if h := g.Holding("newsstand"); h.Multiplier != MinHoldingMultiplier {
		t.Errorf("zero multiplier should floor to %f, got %f", MinHoldingMultiplier, h.Multiplier)
	}
	if h := g.Holding("steel"); h.Owned != 2 {
		t.Errorf("fractional owned should floor, got %d", h.Owned)
	}
	// Absent business defaults to empty holding
	if h := g.Holding("oil"); h.Owned != 0 || h.Multiplier != 1 {
		t.Errorf("absent holding = %+v", h)
	}
	if !g.HasUpgrade("steel_mechanization") {
		t.Error("known upgrade flag should load")
	}
	if g.HasUpgrade("bogus_upgrade") {
		t.Error("unknown upgrade ID should be dropped")
	}
	if g.ClickPower() != MinClickPower {
		t.Errorf("negative click power should floor to %f, got %f", MinClickPower, g.ClickPower())
	}
	if g.Influence() != 0 {
		t.Errorf("negative influence should floor to 0, got %d", g.Influence())
	}
	if g.Incorporations() != 1 {
		t.Errorf("fractional incorporations should floor, got %d", g.Incorporations())
	}
	if g.BuyMode() != DefaultBuyMode {
		t.Errorf("invalid buy mode should default, got %q", g.BuyMode())
	}
	// Missing lifetime earnings falls back to cash
	if g.LifetimeEarnings() != 250.5 {
		t.Errorf("lifetime fallback = %f, want 250.5", g.LifetimeEarnings())
	}
}

func TestRestoreWrongTypeFieldDegrades(t *testing.T) {
	g := NewGame()
	raw := []byte(`{"cash": 100, "businesses": "corrupted", "clickPower": 2}`)
	if _, ok := g.RestoreSave(raw); !ok {
		t.Fatal("type error on one field should not reject the save")
	}
	if g.Cash() != 100 {
		t.Errorf("cash = %f, want 100", g.Cash())
	}
	if g.ClickPower() != 2 {
		t.Errorf("fields after the bad one should still load, got %f", g.ClickPower())
	}
	if g.Holding("newsstand").Owned != 0 {
		t.Error("corrupted businesses should default to empty holdings")
	}
}

func TestOfflineReconciliation(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	savedAt := now.Add(-10 * time.Minute)
	raw := []byte(`{
		"cash": 1000,
		"businesses": {"oil": {"owned": 1, "multiplier": 1}},
		"lastSavedAt": ` + jsonMillis(savedAt) + `
	}`)

	res, ok := g.RestoreSave(raw)
	if !ok {
		t.Fatal("restore should succeed")
	}
	// 600s at 300/s
	if !almostEqual(res.Earned, 180000, 1e-6) {
		t.Errorf("offline earned = %f, want 180000", res.Earned)
	}
	if !almostEqual(res.Seconds, 600, 1e-9) {
		t.Errorf("offline seconds = %f, want 600", res.Seconds)
	}
	if !almostEqual(g.Cash(), 181000, 1e-6) {
		t.Errorf("cash = %f, want 181000", g.Cash())
	}
}

func TestOfflineReconciliationEpochTimestamp(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	// A client can submit any timestamp; epoch is the largest possible gap
	raw := []byte(`{
		"cash": 0,
		"businesses": {"oil": {"owned": 1, "multiplier": 1}},
		"lastSavedAt": 0
	}`)

	start := time.Now()
	res, ok := g.RestoreSave(raw)
	if !ok {
		t.Fatal("restore should succeed")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("restore of a multi-decade gap took %v", elapsed)
	}

	wantSeconds := now.Sub(time.UnixMilli(0)).Seconds()
	if !almostEqual(res.Seconds, wantSeconds, 1) {
		t.Errorf("offline seconds = %f, want %f", res.Seconds, wantSeconds)
	}
	if !almostEqual(res.Earned, 300*wantSeconds, 1) {
		t.Errorf("offline earned = %f, want %f", res.Earned, 300*wantSeconds)
	}
	// The gap seeds a single chart sample, never one per elapsed second
	if pts := g.History(); len(pts) != 1 || pts[0] != 300 {
		t.Errorf("history after long gap = %v, want one sample of 300", pts)
	}
}

func TestOfflineReconciliationSeedsOneSample(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	raw := []byte(`{
		"cash": 0,
		"businesses": {"oil": {"owned": 1, "multiplier": 1}},
		"lastSavedAt": ` + jsonMillis(now.Add(-10*time.Minute)) + `
	}`)

	if _, ok := g.RestoreSave(raw); !ok {
		t.Fatal("restore should succeed")
	}
	if n := len(g.History()); n != 1 {
		t.Errorf("history samples after 10 min gap = %d, want 1", n)
	}
}

func TestOfflineReconciliationIdempotent(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	savedAt := now.Add(-time.Hour)
	raw := []byte(`{
		"cash": 0,
		"businesses": {"oil": {"owned": 1, "multiplier": 1}},
		"lastSavedAt": ` + jsonMillis(savedAt) + `
	}`)
	if _, ok := g.RestoreSave(raw); !ok {
		t.Fatal("restore should succeed")
	}
	cash := g.Cash()

	// The timestamp was advanced; reconciling again awards nothing
	g.mu.Lock()
	res := g.applyOfflineIncome(g.lastSavedAt)
	g.mu.Unlock()
	if res.Earned != 0 {
		t.Errorf("second reconciliation earned %f, want 0", res.Earned)
	}
	if g.Cash() != cash {
		t.Errorf("cash moved from %f to %f", cash, g.Cash())
	}
}

func TestOfflineReconciliationFutureTimestamp(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	// Saved "in the future" (clock skew): no award, no negative income
	savedAt := now.Add(time.Hour)
	raw := []byte(`{
		"cash": 500,
		"businesses": {"oil": {"owned": 1, "multiplier": 1}},
		"lastSavedAt": ` + jsonMillis(savedAt) + `
	}`)
	res, ok := g.RestoreSave(raw)
	if !ok {
		t.Fatal("restore should succeed")
	}
	if res.Earned != 0 || res.Seconds != 0 {
		t.Errorf("future timestamp awarded %+v", res)
	}
	if g.Cash() != 500 {
		t.Errorf("cash = %f, want 500", g.Cash())
	}
}

func TestExportStampsTimestamp(t *testing.T) {
	g := NewGame()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(g, now)

	var snap Snapshot
	if err := json.Unmarshal(g.ExportSave(), &snap); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if snap.LastSavedAt != now.UnixMilli() {
		t.Errorf("lastSavedAt = %d, want %d", snap.LastSavedAt, now.UnixMilli())
	}
}

func jsonMillis(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}
