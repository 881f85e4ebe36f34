package main

import (
	"fmt"
	"math"
	"strconv"
)

// Price curve and prestige tuning constants
const (
	PriceGrowth                  = 1.13
	PrestigeThreshold            = 1000000.0
	IncorporationThresholdGrowth = 3.0
	InfluenceBonusPerPoint       = 0.03
	BaseClickPower               = 1.0
	MinHoldingMultiplier         = 0.01
	MinClickPower                = 0.1
)

// Buy modes for bulk purchases
const (
	BuyMode1       = "1"
	BuyMode10      = "10"
	BuyMode100     = "100"
	BuyModeMax     = "max"
	DefaultBuyMode = BuyMode1
)

// BuyModes is the full set of valid buy-mode tokens
var BuyModes = []string{BuyMode1, BuyMode10, BuyMode100, BuyModeMax}

// ValidBuyMode reports whether mode is a known buy-mode token
func ValidBuyMode(mode string) bool {
	for _, m := range BuyModes {
		if m == mode {
			return true
		}
	}
	return false
}

// BusinessDef is the static definition of one purchasable business type
type BusinessDef struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	BasePrice  float64 `json:"basePrice"`
	BaseIncome float64 `json:"baseIncome"` // per second per unit
	Icon       string  `json:"icon"`
	Color      string  `json:"color"` // chart color for the rendering layer
}

// BusinessCatalog is the full list of business types, ordered by base price
var BusinessCatalog = []BusinessDef{
	{ID: "newsstand", Name: "Newsstand", BasePrice: 12, BaseIncome: 0.14, Icon: "assets/icons/newsstand.svg", Color: "#6f4e2a"},
	{ID: "textile", Name: "Textile Mill", BasePrice: 95, BaseIncome: 0.95, Icon: "assets/icons/textile.svg", Color: "#90703f"},
	{ID: "steel", Name: "Steelworks", BasePrice: 720, BaseIncome: 7.2, Icon: "assets/icons/steel.svg", Color: "#5e676d"},
	{ID: "rail", Name: "Rail Line", BasePrice: 5200, BaseIncome: 52, Icon: "assets/icons/rail.svg", Color: "#8a5f2a"},
	{ID: "oil", Name: "Oil Refinery", BasePrice: 36000, BaseIncome: 300, Icon: "assets/icons/oil.svg", Color: "#2e2e2e"},
	{ID: "bank", Name: "Bank/Trust", BasePrice: 220000, BaseIncome: 1850, Icon: "assets/icons/bank.svg", Color: "#b08a3c"},
}

// BusinessByID provides O(1) lookup by business ID
var BusinessByID map[string]BusinessDef

// TechTierDef describes one rung of the per-business tech tree.
// Threshold is the owned count that unlocks the tier; CostFactor scales the
// business base price into the upgrade cost.
type TechTierDef struct {
	Key        string
	Name       string
	Threshold  int
	Multiplier float64
	CostFactor float64
}

// TechTiers is the ordered tier ladder shared by every business
var TechTiers = []TechTierDef{
	{Key: "mechanization", Name: "Mechanized Works", Threshold: 5, Multiplier: 1.35, CostFactor: 14},
	{Key: "telegraph", Name: "Telegraph Dispatch", Threshold: 14, Multiplier: 1.6, CostFactor: 60},
	{Key: "trusts", Name: "Vertical Trust Charters", Threshold: 28, Multiplier: 1.9, CostFactor: 240},
	{Key: "electrification", Name: "Urban Electrification", Threshold: 46, Multiplier: 2.3, CostFactor: 920},
	{Key: "continental", Name: "Continental Syndicate", Threshold: 70, Multiplier: 2.8, CostFactor: 3600},
}

// businessTierNames seeds flavor names per business, indexed by tier order
var businessTierNames = map[string][]string{
	"newsstand": {
		"Street-Corner Broadsheets",
		"Telegraph Bulletin Feed",
		"Sunday Edition Network",
		"Rotary Press Fleet",
		"National News Syndicate",
	},
	"textile": {
		"Power Loom Arrays",
		"Cotton Exchange Contracts",
		"Dyeworks Standardization",
		"Automated Spindle Floors",
		"Continental Cloth Combine",
	},
	"steel": {
		"Open-Hearth Furnaces",
		"Rail Beam Rolling Mill",
		"Ore Freight Agreements",
		"Pneumatic Converter Lines",
		"National Steel Trust",
	},
	"rail": {
		"Standard Gauge Overhaul",
		"Timed Junction Dispatch",
		"Freight Corridor Rights",
		"Sleeping Car Expansion",
		"Transcontinental Merger",
	},
	"oil": {
		"Kerosene Fraction Towers",
		"Pipeline Easement Rights",
		"Barrel Depot Network",
		"Thermal Cracking Yards",
		"National Refining Cartel",
	},
	"bank": {
		"Clearing House Accords",
		"Municipal Bond Desk",
		"Industrial Loan Pool",
		"Interstate Credit Bureau",
		"Federal Trust Consolidation",
	},
}

// UpgradeDef is the static definition of a one-time upgrade purchase.
// BusinessID is empty for global click-power upgrades; those unlock on the
// owned count of the reference business instead.
type UpgradeDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Desc           string  `json:"desc"`
	BusinessID     string  `json:"businessId,omitempty"`
	Threshold      int     `json:"threshold"`
	Multiplier     float64 `json:"multiplier"`
	Cost           float64 `json:"cost"`
	ClickUpgrade   bool    `json:"clickUpgrade,omitempty"`
	PrerequisiteID string  `json:"prerequisiteId,omitempty"`
	Icon           string  `json:"icon"`
}

// ClickReferenceBusinessID is the business whose owned count gates click upgrades
const ClickReferenceBusinessID = "newsstand"

// UpgradeCatalog is the generated flat list of all upgrades
var UpgradeCatalog []UpgradeDef

// UpgradeByID provides O(1) lookup by upgrade ID
var UpgradeByID map[string]UpgradeDef

// buildUpgradeCatalog crosses every business with the tier ladder, producing
// one upgrade per (business, tier) with a strict linear prerequisite chain,
// plus the global click upgrade. IDs are deterministic: "<bizID>_<tierKey>".
func buildUpgradeCatalog() []UpgradeDef {
	upgrades := make([]UpgradeDef, 0, len(BusinessCatalog)*len(TechTiers)+1)

	for _, biz := range BusinessCatalog {
		for i, tier := range TechTiers {
			name := fmt.Sprintf("%s %s", biz.Name, tier.Name)
			if names, ok := businessTierNames[biz.ID]; ok && i < len(names) {
				name = names[i]
			}
			prereq := ""
			if i > 0 {
				prereq = biz.ID + "_" + TechTiers[i-1].Key
			}
			mult := math.Round(tier.Multiplier*100) / 100
			upgrades = append(upgrades, UpgradeDef{
				ID:             biz.ID + "_" + tier.Key,
				Name:           name,
				Desc:           fmt.Sprintf("%s output is multiplied by %gx.", biz.Name, mult),
				BusinessID:     biz.ID,
				Threshold:      tier.Threshold,
				Multiplier:     mult,
				Cost:           math.Round(biz.BasePrice * tier.CostFactor),
				PrerequisiteID: prereq,
				Icon:           biz.Icon,
			})
		}
	}

	upgrades = append(upgrades, UpgradeDef{
		ID:           "city_marketing",
		Name:         "Citywide Campaign",
		Desc:         "Manual clicks are 3x stronger.",
		Threshold:    16,
		Multiplier:   3,
		Cost:         6000,
		ClickUpgrade: true,
		Icon:         "assets/icons/upgrade-campaign.svg",
	})

	return upgrades
}

func init() {
	BusinessByID = make(map[string]BusinessDef, len(BusinessCatalog))
	for _, def := range BusinessCatalog {
		BusinessByID[def.ID] = def
	}

	UpgradeCatalog = buildUpgradeCatalog()
	UpgradeByID = make(map[string]UpgradeDef, len(UpgradeCatalog))
	for _, u := range UpgradeCatalog {
		UpgradeByID[u.ID] = u
	}
}

// BusinessPrice returns the price of the next unit given the owned count
func BusinessPrice(basePrice float64, owned int) float64 {
	return basePrice * math.Pow(PriceGrowth, float64(owned))
}

// BusinessIncome returns income per second for a holding
func BusinessIncome(def BusinessDef, owned int, multiplier float64) float64 {
	return def.BaseIncome * float64(owned) * multiplier
}

// BulkCost returns the total cost of buying quantity consecutive units
// starting at the given owned count. Closed-form geometric series so "buy max"
// never loops; must agree with summing BusinessPrice over the range.
func BulkCost(basePrice float64, owned, quantity int) float64 {
	if quantity <= 0 {
		return 0
	}

	firstPrice := BusinessPrice(basePrice, owned)
	if PriceGrowth == 1 {
		return firstPrice * float64(quantity)
	}

	return firstPrice * (math.Pow(PriceGrowth, float64(quantity)) - 1) / (PriceGrowth - 1)
}

// MaxAffordable returns the largest quantity q such that
// BulkCost(basePrice, owned, q) <= cash. Inverts the geometric series with a
// logarithm rather than looping unit by unit.
func MaxAffordable(basePrice float64, owned int, cash float64) int {
	if cash <= 0 {
		return 0
	}

	firstPrice := BusinessPrice(basePrice, owned)
	if firstPrice > cash {
		return 0
	}

	if PriceGrowth == 1 {
		return int(math.Floor(cash / firstPrice))
	}

	scaled := cash * (PriceGrowth - 1) / firstPrice
	raw := math.Log(1+scaled) / math.Log(PriceGrowth)
	q := int(math.Floor(raw))
	if q < 0 {
		return 0
	}
	return q
}

// PurchasePlan is a resolved bulk purchase: a concrete quantity and its total
// cost. Quantity 0 means "cannot afford" and is not an error.
type PurchasePlan struct {
	Quantity  int     `json:"quantity"`
	TotalCost float64 `json:"totalCost"`
	Label     string  `json:"label"`
}

// ResolvePurchasePlan maps a buy-mode token to a concrete purchase plan for
// the given business state
func ResolvePurchasePlan(def BusinessDef, owned int, cash float64, mode string) PurchasePlan {
	var quantity int
	if mode == BuyModeMax {
		quantity = MaxAffordable(def.BasePrice, owned, cash)
	} else {
		n, err := strconv.Atoi(mode)
		if err != nil {
			n = 0
		}
		quantity = n
	}

	if quantity <= 0 {
		label := mode + "x"
		if mode == BuyModeMax {
			label = "Max"
		}
		return PurchasePlan{Label: label}
	}

	label := fmt.Sprintf("%dx", quantity)
	if mode == BuyModeMax {
		label = fmt.Sprintf("Max (%dx)", quantity)
	}
	return PurchasePlan{
		Quantity:  quantity,
		TotalCost: BulkCost(def.BasePrice, owned, quantity),
		Label:     label,
	}
}
