package main

import "sort"

// unlockCount returns the owned count that gates an upgrade: the owning
// business's holding, or the reference business for global click upgrades.
// Caller holds mu.
func (g *Game) unlockCount(u UpgradeDef) int {
	if u.ClickUpgrade {
		return g.businesses[ClickReferenceBusinessID].Owned
	}
	if u.BusinessID == "" {
		return 0
	}
	return g.businesses[u.BusinessID].Owned
}

// hasPrerequisite reports whether an upgrade's prerequisite (if any) has been
// purchased. Caller holds mu.
func (g *Game) hasPrerequisite(u UpgradeDef) bool {
	if u.PrerequisiteID == "" {
		return true
	}
	return g.upgrades[u.PrerequisiteID]
}

// isUpgradeUnlocked combines the threshold and prerequisite predicates.
// Caller holds mu.
func (g *Game) isUpgradeUnlocked(u UpgradeDef) bool {
	return g.unlockCount(u) >= u.Threshold && g.hasPrerequisite(u)
}

// CanBuyUpgrade reports whether an upgrade is currently purchasable:
// unlocked, prerequisite satisfied, not already owned, and affordable
func (g *Game) CanBuyUpgrade(upgradeID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := UpgradeByID[upgradeID]
	if !ok {
		return false
	}
	return g.canBuyUpgrade(u)
}

func (g *Game) canBuyUpgrade(u UpgradeDef) bool {
	if g.upgrades[u.ID] {
		return false
	}
	return g.isUpgradeUnlocked(u) && g.cash >= u.Cost
}

// BuyUpgrade purchases an upgrade: debits its cost, marks it purchased, and
// applies the multiplier to the owning business or to click power. Ineligible
// purchases are silent no-ops that leave state untouched.
func (g *Game) BuyUpgrade(upgradeID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := UpgradeByID[upgradeID]
	if !ok || !g.canBuyUpgrade(u) {
		return false
	}

	g.cash -= u.Cost
	g.upgrades[u.ID] = true

	if u.ClickUpgrade {
		g.clickPower *= u.Multiplier
	} else {
		g.businesses[u.BusinessID].Multiplier *= u.Multiplier
	}

	g.recalc()
	return true
}

// UpgradesForBranch returns the ordered upgrade sequence for one tech-tree
// branch: a business ID, or CivicBranchID for the global click upgrades.
func UpgradesForBranch(branchID string) []UpgradeDef {
	var out []UpgradeDef
	for _, u := range UpgradeCatalog {
		if branchID == CivicBranchID {
			if u.BusinessID == "" {
				out = append(out, u)
			}
		} else if u.BusinessID == branchID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// CivicBranchID groups the global upgrades into their own display branch
const CivicBranchID = "civic"

// BranchIDs returns every tech-tree branch in display order
func BranchIDs() []string {
	ids := make([]string, 0, len(BusinessCatalog)+1)
	for _, def := range BusinessCatalog {
		ids = append(ids, def.ID)
	}
	return append(ids, CivicBranchID)
}

// VisibleUpgradeIDs implements the progressive-disclosure window for one
// branch. Expanded mode exposes the whole sequence. Collapsed mode exposes
// only the current frontier tier (highest purchased, or the first tier if
// none purchased) plus the tier immediately after it.
func (g *Game) VisibleUpgradeIDs(branchID string, expanded bool) []string {
	upgrades := UpgradesForBranch(branchID)
	if len(upgrades) == 0 {
		return nil
	}

	ids := make([]string, 0, len(upgrades))
	if expanded {
		for _, u := range upgrades {
			ids = append(ids, u.ID)
		}
		return ids
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	frontier := 0
	for i, u := range upgrades {
		if g.upgrades[u.ID] {
			frontier = i
		}
	}

	ids = append(ids, upgrades[frontier].ID)
	if frontier+1 < len(upgrades) {
		ids = append(ids, upgrades[frontier+1].ID)
	}
	return ids
}

// UpgradeStatus is the per-upgrade view consumed by the rendering layer
type UpgradeStatus struct {
	ID          string `json:"id"`
	Purchased   bool   `json:"purchased"`
	Unlocked    bool   `json:"unlocked"`
	PrereqMet   bool   `json:"prereqMet"`
	Purchasable bool   `json:"purchasable"`
}

// UpgradeStatuses returns the status of every upgrade in catalog order
func (g *Game) UpgradeStatuses() []UpgradeStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]UpgradeStatus, 0, len(UpgradeCatalog))
	for _, u := range UpgradeCatalog {
		out = append(out, UpgradeStatus{
			ID:          u.ID,
			Purchased:   g.upgrades[u.ID],
			Unlocked:    g.isUpgradeUnlocked(u),
			PrereqMet:   g.hasPrerequisite(u),
			Purchasable: g.canBuyUpgrade(u),
		})
	}
	return out
}
