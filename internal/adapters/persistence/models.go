package persistence

import "time"

// PlayerModel represents the players table.
// Credits are NOT persisted - always fetched fresh from the API.
type PlayerModel struct {
	ID              int    `gorm:"column:id;primaryKey;autoIncrement"`
	AgentSymbol     string `gorm:"column:agent_symbol;unique;not null"`
	Token           string `gorm:"column:token;not null"`
	StartingFaction string `gorm:"column:starting_faction"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (PlayerModel) TableName() string { return "players" }

// SystemModel represents the systems table.
type SystemModel struct {
	SystemSymbol string    `gorm:"column:system_symbol;primaryKey"`
	SectorSymbol string    `gorm:"column:sector_symbol"`
	Type         string    `gorm:"column:type"`
	X            float64   `gorm:"column:x;not null"`
	Y            float64   `gorm:"column:y;not null"`
	SyncedAt     time.Time `gorm:"column:synced_at"`
}

func (SystemModel) TableName() string { return "systems" }

// WaypointModel represents the waypoints table - relational columns for the
// fields strategies query directly (distance, traits), plus a JSON blob for
// the full snapshot returned by the remote API.
type WaypointModel struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey"`
	SystemSymbol   string    `gorm:"column:system_symbol;not null;index"`
	Type           string    `gorm:"column:type;not null"`
	X              float64   `gorm:"column:x;not null"`
	Y              float64   `gorm:"column:y;not null"`
	Traits         string    `gorm:"column:traits;type:text"`            // JSON array of trait symbols
	HasFuel        int       `gorm:"column:has_fuel;not null;default:0"` // 0 or 1 (SQLite compatible)
	Orbitals       string    `gorm:"column:orbitals;type:text"`          // JSON array of orbital symbols
	Snapshot       string    `gorm:"column:snapshot;type:text"`          // full API payload, JSON blob
	SyncedAt       time.Time `gorm:"column:synced_at"`
}

func (WaypointModel) TableName() string { return "waypoints" }

// MarketTradeModel represents the market_trade table - one row per
// (waypoint, good) combination, refreshed on every SYSTEM.fetch_market.
type MarketTradeModel struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey;size:64"`
	TradeSymbol    string    `gorm:"column:trade_symbol;primaryKey;size:64"`
	Supply         *string   `gorm:"column:supply;size:32"`
	Activity       *string   `gorm:"column:activity;size:32"`
	PurchasePrice  int       `gorm:"column:purchase_price;not null"`
	SellPrice      int       `gorm:"column:sell_price;not null"`
	TradeVolume    int       `gorm:"column:trade_volume;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;index"`
}

func (MarketTradeModel) TableName() string { return "market_trade" }

// ShipyardTradeModel represents the shipyard_trade table - one row per
// (waypoint, ship type), refreshed on every SYSTEM.shipyard.
type ShipyardTradeModel struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey;size:64"`
	ShipType       string    `gorm:"column:ship_type;primaryKey;size:64"`
	PurchasePrice  int       `gorm:"column:purchase_price;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (ShipyardTradeModel) TableName() string { return "shipyard_trade" }

// SurveyModel represents the survey table, keyed by (asteroid_waypoint, signature).
type SurveyModel struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey;size:64"`
	Signature      string    `gorm:"column:signature;primaryKey;size:64"`
	Size           string    `gorm:"column:size;size:32"`
	Deposits       string    `gorm:"column:deposits;type:text"` // JSON array of resource symbols
	Expiration     string    `gorm:"column:expiration;not null"` // ISO8601
	Snapshot       string    `gorm:"column:snapshot;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (SurveyModel) TableName() string { return "survey" }

// ShipModel records assignment state for a ship that is merged with live
// API ship data - persisted across restarts so an idle/assigned distinction
// survives the process exiting.
type ShipModel struct {
	ShipSymbol string    `gorm:"column:ship_symbol;primaryKey"`
	PlayerID   int       `gorm:"column:player_id;not null;index"`
	Role       string    `gorm:"column:role"` // free-form: strategy name owning this ship, or "" if idle
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (ShipModel) TableName() string { return "ship" }

// ContractModel represents the contract table.
type ContractModel struct {
	ID                 string `gorm:"column:id;primaryKey;not null"`
	PlayerID           int    `gorm:"column:player_id;index;not null"`
	FactionSymbol      string `gorm:"column:faction_symbol;not null"`
	Type               string `gorm:"column:type;not null"`
	Accepted           bool   `gorm:"column:accepted;not null"`
	Fulfilled          bool   `gorm:"column:fulfilled;not null"`
	DeadlineToAccept   string `gorm:"column:deadline_to_accept;not null"`
	Deadline           string `gorm:"column:deadline;not null"`
	PaymentOnAccepted  int    `gorm:"column:payment_on_accepted;not null"`
	PaymentOnFulfilled int    `gorm:"column:payment_on_fulfilled;not null"`
	DeliveriesJSON     string `gorm:"column:deliveries_json;type:text;not null"`
	LastUpdated        string `gorm:"column:last_updated;not null"` // ISO timestamp
}

func (ContractModel) TableName() string { return "contract" }

// TradeTransactionModel represents the trade_transaction table - a ledger
// row per buy/sell/refuel the worker executes, for post-hoc profit analysis.
type TradeTransactionModel struct {
	ID            int       `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID      int       `gorm:"column:player_id;not null;index"`
	ShipSymbol    string    `gorm:"column:ship_symbol;not null;index"`
	TradeSymbol   string    `gorm:"column:trade_symbol;size:64"`
	TransactionType string  `gorm:"column:transaction_type;size:32;not null"` // PURCHASE, SELL, REFUEL
	Units         int       `gorm:"column:units;not null"`
	PricePerUnit  int       `gorm:"column:price_per_unit;not null"`
	TotalPrice    int       `gorm:"column:total_price;not null"`
	WaypointSymbol string   `gorm:"column:waypoint_symbol;size:64"`
	Timestamp     time.Time `gorm:"column:timestamp;not null;index"`
}

func (TradeTransactionModel) TableName() string { return "trade_transaction" }
