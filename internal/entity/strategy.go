package entity

// Strategy is one executable search instruction for a single channel.
type Strategy struct {
	Channel      Channel `json:"channel"`
	Query        string  `json:"query"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale,omitempty"`
	NetworkAware bool    `json:"network_aware,omitempty"`
}
