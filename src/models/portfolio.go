package models

// HoldingSummary represents one symbol in the aggregated portfolio view.
// LivePrice, UnrealizedPL and PLPercent are presentation-only values derived
// from an out-of-band price lookup; they are never persisted.
type HoldingSummary struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	NetQuantity  float64 `json:"net_qty"`
	AvgBuyCost   float64 `json:"avg_buy"`
	LivePrice    float64 `json:"live_price"`
	UnrealizedPL float64 `json:"unrealized_pl"`
	PLPercent    float64 `json:"pl_pct"`
	RealizedPL   float64 `json:"realized_pl"`
}

// PortfolioSummary is the full output of one aggregation run: per-symbol
// holdings sorted by code plus portfolio-wide totals. It is rebuilt from the
// flat trade history on every run and has no independent persistence.
type PortfolioSummary struct {
	Holdings        []HoldingSummary `json:"holdings"`
	TotalRealized   float64          `json:"total_realized"`
	TotalUnrealized float64          `json:"total_unrealized"`
	TotalChange     float64          `json:"total_change"`
	ROIPercent      float64          `json:"roi_pct"`
}
