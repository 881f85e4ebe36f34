package main

import "testing"

func TestIncorporationThresholdGrowth(t *testing.T) {
	g := NewGame()
	if g.IncorporationThreshold() != 1e6 {
		t.Errorf("first threshold = %f, want 1e6", g.IncorporationThreshold())
	}

	g.mu.Lock()
	g.incorporations = 1
	g.mu.Unlock()
	if g.IncorporationThreshold() != 3e6 {
		t.Errorf("second threshold = %f, want 3e6", g.IncorporationThreshold())
	}

	g.mu.Lock()
	g.incorporations = 4
	g.mu.Unlock()
	if g.IncorporationThreshold() != 81e6 {
		t.Errorf("fifth threshold = %f, want 81e6", g.IncorporationThreshold())
	}
}

func TestInfluenceGain(t *testing.T) {
	g := NewGame()

	cases := []struct {
		cash float64
		want int
	}{
		{0, 0},
		{999999, 0},
		{1e6, 1},     // exactly at threshold
		{2e6, 1},     // sqrt(2) floors to 1
		{4e6, 2},     // overshoot rewards super-linearly
		{9e6, 3},
		{100e6, 10},
	}
	for _, tc := range cases {
		grantCash(t, g, tc.cash)
		if got := g.InfluenceGain(); got != tc.want {
			t.Errorf("gain at cash %g = %d, want %d", tc.cash, got, tc.want)
		}
	}
}

func TestCanIncorporate(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 999999)
	if g.CanIncorporate() {
		t.Error("below threshold should not be eligible")
	}
	grantCash(t, g, 1e6)
	if !g.CanIncorporate() {
		t.Error("at threshold should be eligible")
	}
}

func TestIncorporateResetsRunKeepsMeta(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 4e6)
	g.SetBuyMode(BuyModeMax)
	setOwned(t, g, "oil", 3)
	g.mu.Lock()
	g.businesses["oil"].Multiplier = 1.6
	g.upgrades["oil_mechanization"] = true
	g.clickPower = 3
	g.lifetimeEarnings = 5e6
	g.recalc()
	g.mu.Unlock()

	gain := g.Incorporate()
	if gain != 2 {
		t.Fatalf("gain = %d, want 2", gain)
	}

	// Run-scoped state wiped
	if g.Cash() != 0 {
		t.Errorf("cash after incorporation = %f, want 0", g.Cash())
	}
	if h := g.Holding("oil"); h.Owned != 0 || h.Multiplier != 1 {
		t.Errorf("oil holding = %+v, want reset", h)
	}
	if g.HasUpgrade("oil_mechanization") {
		t.Error("upgrades should reset")
	}
	if g.ClickPower() != BaseClickPower {
		t.Errorf("click power = %f, want %f", g.ClickPower(), BaseClickPower)
	}

	// Meta survives
	if g.Influence() != 2 {
		t.Errorf("influence = %d, want 2", g.Influence())
	}
	if g.Incorporations() != 1 {
		t.Errorf("incorporations = %d, want 1", g.Incorporations())
	}
	if g.LifetimeEarnings() != 5e6 {
		t.Errorf("lifetime earnings = %f, should survive", g.LifetimeEarnings())
	}
	if g.BuyMode() != BuyModeMax {
		t.Errorf("buy mode = %q, should survive", g.BuyMode())
	}
}

func TestIncorporateIneligibleNoOp(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 500)
	setOwned(t, g, "newsstand", 3)

	if gain := g.Incorporate(); gain != 0 {
		t.Fatalf("ineligible incorporation returned gain %d", gain)
	}
	if g.Cash() != 500 || g.Holding("newsstand").Owned != 3 {
		t.Error("ineligible incorporation must not touch state")
	}
	if g.Incorporations() != 0 {
		t.Error("counter must not advance")
	}
}

func TestIncorporateRaisesNextThreshold(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e6)
	if g.Incorporate() != 1 {
		t.Fatal("first incorporation should succeed")
	}

	grantCash(t, g, 1e6)
	if g.CanIncorporate() {
		t.Error("old threshold should no longer suffice")
	}
	grantCash(t, g, 3e6)
	if !g.CanIncorporate() {
		t.Error("tripled threshold should be eligible")
	}
}

func TestInfluenceBoostsIncome(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e6)
	g.Incorporate()
	setOwned(t, g, "oil", 1)

	// 1 influence: 1.03x on the 300/s base
	if !almostEqual(g.IncomePerSec(), 309, 1e-9) {
		t.Errorf("income = %f, want 309", g.IncomePerSec())
	}
}

func TestResetGameWipesEverything(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 4e6)
	g.Incorporate()
	grantCash(t, g, 1234)
	setOwned(t, g, "rail", 2)
	g.SetBuyMode(BuyMode100)

	g.ResetGame()

	if g.Cash() != 0 || g.Holding("rail").Owned != 0 {
		t.Error("reset should wipe run state")
	}
	if g.Influence() != 0 || g.Incorporations() != 0 {
		t.Error("reset should wipe prestige")
	}
	if g.LifetimeEarnings() != 0 {
		t.Error("reset should wipe lifetime earnings")
	}
	if g.BuyMode() != DefaultBuyMode {
		t.Errorf("buy mode = %q, want default", g.BuyMode())
	}
	if len(g.History()) != 0 {
		t.Error("reset should clear history")
	}
}
