package dto

// DiscoveryRequest is the lead-discovery payload. Target distinguishes
// "omitted" (nil, defaulted server-side) from an explicit non-positive value,
// which is rejected.
type DiscoveryRequest struct {
	UserID      string   `json:"user_id,omitempty"`
	Emails      []string `json:"emails"`
	CompanyInfo string   `json:"company_info"`
	Goal        string   `json:"goal"`
	Target      *int     `json:"target,omitempty"`
}

// Profile is one enriched lead in a discovery response. Identity fields the
// sources could not fill serialize as null.
type Profile struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Title       *string  `json:"title"`
	Company     *string  `json:"company"`
	LinkedIn    *string  `json:"linkedin"`
	XHandle     *string  `json:"x_handle"`
	Phone       *string  `json:"phone"`
	PublicLinks []string `json:"public_links"`
	Message     string   `json:"message"`
	Source      string   `json:"source"`
	Score       float64  `json:"score"`
}

// DiscoveryResponse carries the ranked profiles plus provenance counters.
type DiscoveryResponse struct {
	Profiles   []Profile `json:"profiles"`
	TotalFound int       `json:"total_found"`
	Returned   int       `json:"returned"`
	UserID     string    `json:"user_id,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// StrategyView is the introspection shape of one generated search strategy.
type StrategyView struct {
	Channel      string  `json:"channel"`
	Query        string  `json:"query"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale,omitempty"`
	NetworkAware bool    `json:"network_aware"`
}

// StrategiesResponse lists the strategies planned for a goal without
// dispatching them.
type StrategiesResponse struct {
	Goal       string         `json:"goal"`
	UserID     string         `json:"user_id,omitempty"`
	Strategies []StrategyView `json:"strategies"`
}
