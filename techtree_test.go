package main

import "testing"

func TestUpgradeGating(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e9)

	// Below the ownership threshold: locked
	setOwned(t, g, "newsstand", 4)
	if g.CanBuyUpgrade("newsstand_mechanization") {
		t.Error("upgrade should be locked below threshold")
	}

	setOwned(t, g, "newsstand", 5)
	if !g.CanBuyUpgrade("newsstand_mechanization") {
		t.Error("upgrade should unlock at threshold")
	}
}

func TestUpgradeGatingCash(t *testing.T) {
	g := NewGame()
	setOwned(t, g, "newsstand", 5)
	grantCash(t, g, 167) // cost is 168

	if g.CanBuyUpgrade("newsstand_mechanization") {
		t.Error("upgrade should not be purchasable without the cash")
	}
	grantCash(t, g, 168)
	if !g.CanBuyUpgrade("newsstand_mechanization") {
		t.Error("upgrade should be purchasable at exact cost")
	}
}

func TestUpgradePrerequisiteChain(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e9)
	setOwned(t, g, "newsstand", 100) // clears every threshold

	// Second tier blocked until the first is purchased
	if g.CanBuyUpgrade("newsstand_telegraph") {
		t.Error("telegraph tier should require mechanization first")
	}
	if !g.BuyUpgrade("newsstand_mechanization") {
		t.Fatal("first tier should purchase")
	}
	if !g.CanBuyUpgrade("newsstand_telegraph") {
		t.Error("telegraph tier should open after mechanization")
	}
}

func TestBuyUpgradeAppliesMultiplier(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e6)
	setOwned(t, g, "newsstand", 10)

	incomeBefore := g.IncomePerSec()
	cashBefore := g.Cash()
	if !g.BuyUpgrade("newsstand_mechanization") {
		t.Fatal("purchase should succeed")
	}

	if !almostEqual(g.Cash(), cashBefore-168, 1e-9) {
		t.Errorf("cash = %f, want %f", g.Cash(), cashBefore-168)
	}
	if got := g.Holding("newsstand").Multiplier; !almostEqual(got, 1.35, 1e-12) {
		t.Errorf("multiplier = %f, want 1.35", got)
	}
	if !almostEqual(g.IncomePerSec(), incomeBefore*1.35, 1e-9) {
		t.Errorf("income = %f, want %f", g.IncomePerSec(), incomeBefore*1.35)
	}
	if !g.HasUpgrade("newsstand_mechanization") {
		t.Error("upgrade should be marked purchased")
	}
}

func TestBuyUpgradeIsOneShot(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e6)
	setOwned(t, g, "newsstand", 10)

	if !g.BuyUpgrade("newsstand_mechanization") {
		t.Fatal("first purchase should succeed")
	}
	cash := g.Cash()
	if g.BuyUpgrade("newsstand_mechanization") {
		t.Error("second purchase of the same upgrade should fail")
	}
	if g.Cash() != cash {
		t.Error("failed repurchase must not debit cash")
	}
	if got := g.Holding("newsstand").Multiplier; !almostEqual(got, 1.35, 1e-12) {
		t.Errorf("multiplier double-applied: %f", got)
	}
}

func TestBuyUpgradeIneligibleNoOp(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e6)
	// Threshold not met
	if g.BuyUpgrade("newsstand_mechanization") {
		t.Error("locked upgrade should not purchase")
	}
	if g.Cash() != 1e6 {
		t.Error("state must be untouched after ineligible purchase")
	}
	if g.BuyUpgrade("no_such_upgrade") {
		t.Error("unknown upgrade should not purchase")
	}
}

func TestClickUpgrade(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e6)

	// Gated on the reference business's owned count
	setOwned(t, g, ClickReferenceBusinessID, 15)
	if g.CanBuyUpgrade("city_marketing") {
		t.Error("click upgrade should be locked below 16 owned")
	}
	setOwned(t, g, ClickReferenceBusinessID, 16)
	if !g.BuyUpgrade("city_marketing") {
		t.Fatal("click upgrade should purchase at 16 owned")
	}
	if !almostEqual(g.ClickPower(), 3, 1e-12) {
		t.Errorf("click power = %f, want 3", g.ClickPower())
	}
	// Holdings untouched by a click upgrade
	if got := g.Holding(ClickReferenceBusinessID).Multiplier; got != 1 {
		t.Errorf("click upgrade should not touch holding multiplier, got %f", got)
	}
}

func TestBranchIDs(t *testing.T) {
	ids := BranchIDs()
	if len(ids) != len(BusinessCatalog)+1 {
		t.Fatalf("expected %d branches, got %d", len(BusinessCatalog)+1, len(ids))
	}
	if ids[len(ids)-1] != CivicBranchID {
		t.Errorf("last branch = %s, want %s", ids[len(ids)-1], CivicBranchID)
	}
}

func TestUpgradesForBranchOrdering(t *testing.T) {
	ups := UpgradesForBranch("steel")
	if len(ups) != len(TechTiers) {
		t.Fatalf("expected %d upgrades, got %d", len(TechTiers), len(ups))
	}
	for i := 1; i < len(ups); i++ {
		if ups[i].Threshold <= ups[i-1].Threshold {
			t.Errorf("branch not ordered by threshold at %d", i)
		}
	}

	civic := UpgradesForBranch(CivicBranchID)
	if len(civic) != 1 || civic[0].ID != "city_marketing" {
		t.Errorf("civic branch = %+v", civic)
	}
}

func TestVisibleUpgradeWindow(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e9)
	setOwned(t, g, "newsstand", 100)

	// Collapsed: frontier tier plus the next one
	ids := g.VisibleUpgradeIDs("newsstand", false)
	if len(ids) != 2 || ids[0] != "newsstand_mechanization" || ids[1] != "newsstand_telegraph" {
		t.Fatalf("initial window = %v", ids)
	}

	g.BuyUpgrade("newsstand_mechanization")
	g.BuyUpgrade("newsstand_telegraph")

	ids = g.VisibleUpgradeIDs("newsstand", false)
	if len(ids) != 2 || ids[0] != "newsstand_telegraph" || ids[1] != "newsstand_trusts" {
		t.Fatalf("window after two purchases = %v", ids)
	}

	// Expanded: everything
	ids = g.VisibleUpgradeIDs("newsstand", true)
	if len(ids) != len(TechTiers) {
		t.Errorf("expanded window = %d upgrades, want %d", len(ids), len(TechTiers))
	}
}

func TestVisibleUpgradeWindowAtEnd(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e12)
	setOwned(t, g, "newsstand", 100)
	for _, tier := range TechTiers {
		if !g.BuyUpgrade("newsstand_" + tier.Key) {
			t.Fatalf("tier %s should purchase", tier.Key)
		}
	}

	ids := g.VisibleUpgradeIDs("newsstand", false)
	if len(ids) != 1 || ids[0] != "newsstand_continental" {
		t.Errorf("completed branch window = %v", ids)
	}
}

func TestUpgradeStatuses(t *testing.T) {
	g := NewGame()
	grantCash(t, g, 1e9)
	setOwned(t, g, "newsstand", 5)

	byID := make(map[string]UpgradeStatus)
	for _, st := range g.UpgradeStatuses() {
		byID[st.ID] = st
	}

	first := byID["newsstand_mechanization"]
	if !first.Unlocked || !first.PrereqMet || !first.Purchasable || first.Purchased {
		t.Errorf("first tier status = %+v", first)
	}
	second := byID["newsstand_telegraph"]
	if second.Unlocked || second.PrereqMet || second.Purchasable {
		t.Errorf("second tier status = %+v", second)
	}
}
