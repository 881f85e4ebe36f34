package main

import "encoding/json"

// Client -> Server message types
const (
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"   // resume with an existing token
	MsgGuest       = "guest"  // play without an account
	MsgClick       = "click"
	MsgBuy         = "buy"    // buy a business
	MsgUpgrade     = "upgrade"
	MsgMode        = "mode"   // change buy mode
	MsgIncorporate = "incorporate"
	MsgReset       = "reset"  // hard reset, wipes prestige too
	MsgExport      = "export" // request serialized save
	MsgImport      = "import" // replace state from serialized save
	MsgBranch      = "branch" // expand/collapse an upgrade branch
)

// Server -> Client message types
const (
	MsgAuthOK   = "auth_ok"
	MsgState    = "state"
	MsgOffline  = "offline"
	MsgExported = "exported"
	MsgPrestige = "prestige"
	MsgError    = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// RegisterMsg creates a new account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an existing account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session with a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// BuyMsg buys at the current buy mode's quantity
type BuyMsg struct {
	ID string `json:"id"`
}

// UpgradeMsg purchases an upgrade by ID
type UpgradeMsg struct {
	ID string `json:"id"`
}

// ModeMsg switches the bulk purchase mode
type ModeMsg struct {
	Mode string `json:"mode"`
}

// ImportMsg carries a serialized save pasted by the player
type ImportMsg struct {
	Data string `json:"data"`
}

// BranchMsg toggles visibility of an upgrade branch
type BranchMsg struct {
	ID       string `json:"id"`
	Expanded bool   `json:"expanded"`
}

// ExportedMsg returns the serialized save to the client
type ExportedMsg struct {
	Data string `json:"data"`
}

// PrestigeMsg reports the outcome of an incorporation
type PrestigeMsg struct {
	Gain           int `json:"gain"`
	Influence      int `json:"influence"`
	Incorporations int `json:"incorporations"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// BusinessView is broadcast per business each state tick
type BusinessView struct {
	ID         string  `json:"id"`
	Name       string  `json:"n"`
	Owned      int     `json:"o"`
	Price      float64 `json:"p"`   // next single-unit price
	PlanQty    int     `json:"pq"`  // quantity at the current buy mode
	PlanCost   float64 `json:"pc"`
	PlanLabel  string  `json:"pl"`
	Income     float64 `json:"i"`
	Roi        float64 `json:"r"`
	Affordable bool    `json:"a"`
	Color      string  `json:"c"`
}

// UpgradeView is broadcast per visible upgrade
type UpgradeView struct {
	ID          string  `json:"id"`
	Name        string  `json:"n"`
	Desc        string  `json:"ds"`
	Cost        float64 `json:"c"`
	Icon        string  `json:"ic"`
	Purchased   bool    `json:"pd"`
	Unlocked    bool    `json:"ul"`
	PrereqMet   bool    `json:"pm"`
	Purchasable bool    `json:"pb"`
}

// BranchView groups the visible slice of one upgrade branch
type BranchView struct {
	ID       string        `json:"id"`
	Expanded bool          `json:"e"`
	Total    int           `json:"tot"`
	Upgrades []UpgradeView `json:"u"`
}

// StateView is the full state broadcast
type StateView struct {
	Cash             float64         `json:"c"`
	IncomePerSec     float64         `json:"ips"`
	NetWorth         float64         `json:"nw"`
	LifetimeEarnings float64         `json:"le"`
	ClickPower       float64         `json:"cp"` // influence multiplier applied
	Multiplier       float64         `json:"m"`  // global influence multiplier
	Influence        int             `json:"inf"`
	Incorporations   int             `json:"inc"`
	Threshold        float64         `json:"th"`
	CanIncorporate   bool            `json:"ci"`
	InfluenceGain    int             `json:"ig"`
	BuyMode          string          `json:"bm"`
	Businesses       []BusinessView  `json:"b"`
	Branches         []BranchView    `json:"br"`
	Shares           []BusinessShare `json:"sh"`
	History          []float64       `json:"h"`
	Tick             uint64          `json:"tick"`
}

// buildStateView assembles the broadcast snapshot for one session. The
// expanded set is per-session UI state, not game state.
func buildStateView(g *Game, expanded map[string]bool, tick uint64) StateView {
	cash := g.Cash()
	mode := g.BuyMode()

	businesses := make([]BusinessView, 0, len(BusinessCatalog))
	for _, def := range BusinessCatalog {
		h := g.Holding(def.ID)
		plan := ResolvePurchasePlan(def, h.Owned, cash, mode)
		businesses = append(businesses, BusinessView{
			ID:         def.ID,
			Name:       def.Name,
			Owned:      h.Owned,
			Price:      BusinessPrice(def.BasePrice, h.Owned),
			PlanQty:    plan.Quantity,
			PlanCost:   plan.TotalCost,
			PlanLabel:  plan.Label,
			Income:     BusinessIncome(def, h.Owned, h.Multiplier) * g.InfluenceMultiplier(),
			Roi:        g.RoiRatio(def.ID),
			Affordable: plan.Quantity > 0 && plan.TotalCost <= cash,
			Color:      def.Color,
		})
	}

	statuses := make(map[string]UpgradeStatus)
	for _, st := range g.UpgradeStatuses() {
		statuses[st.ID] = st
	}

	branches := make([]BranchView, 0, len(BranchIDs()))
	for _, branchID := range BranchIDs() {
		bv := BranchView{
			ID:       branchID,
			Expanded: expanded[branchID],
			Total:    len(UpgradesForBranch(branchID)),
		}
		for _, id := range g.VisibleUpgradeIDs(branchID, expanded[branchID]) {
			def := UpgradeByID[id]
			st := statuses[id]
			bv.Upgrades = append(bv.Upgrades, UpgradeView{
				ID:          def.ID,
				Name:        def.Name,
				Desc:        def.Desc,
				Cost:        def.Cost,
				Icon:        def.Icon,
				Purchased:   st.Purchased,
				Unlocked:    st.Unlocked,
				PrereqMet:   st.PrereqMet,
				Purchasable: st.Purchasable,
			})
		}
		branches = append(branches, bv)
	}

	return StateView{
		Cash:             cash,
		IncomePerSec:     g.IncomePerSec(),
		NetWorth:         g.NetWorth(),
		LifetimeEarnings: g.LifetimeEarnings(),
		ClickPower:       g.EffectiveClickPower(),
		Multiplier:       g.InfluenceMultiplier(),
		Influence:        g.Influence(),
		Incorporations:   g.Incorporations(),
		Threshold:        g.IncorporationThreshold(),
		CanIncorporate:   g.CanIncorporate(),
		InfluenceGain:    g.InfluenceGain(),
		BuyMode:          mode,
		Businesses:       businesses,
		Branches:         branches,
		Shares:           g.IncomeByBusiness(),
		History:          g.History(),
		Tick:             tick,
	}
}
