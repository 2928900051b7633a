package entity

// Channel identifies a discovery source.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
	ChannelX        Channel = "x"
	ChannelWeb      Channel = "web"
)

// Channels lists every discovery channel in reliability order.
var Channels = []Channel{ChannelEmail, ChannelLinkedIn, ChannelX, ChannelWeb}

// Field names a merge-managed identity attribute of a candidate.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldTitle    Field = "title"
	FieldCompany  Field = "company"
	FieldLinkedIn Field = "linkedin"
	FieldXHandle  Field = "x_handle"
	FieldPhone    Field = "phone"
)

// IdentityFields lists the fields considered for completeness scoring and
// confidence-based merging.
var IdentityFields = []Field{
	FieldName, FieldEmail, FieldTitle, FieldCompany,
	FieldLinkedIn, FieldXHandle, FieldPhone,
}

// Candidate is a single raw result produced by one scout call. Empty strings
// mean the provider did not supply the field.
type Candidate struct {
	Name        string  `json:"name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Title       string  `json:"title,omitempty"`
	Company     string  `json:"company,omitempty"`
	LinkedIn    string  `json:"linkedin,omitempty"`
	XHandle     string  `json:"x_handle,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	PublicLinks []string `json:"public_links,omitempty"`

	Source     string            `json:"source"`
	Channel    Channel           `json:"channel"`
	Synthetic  bool              `json:"synthetic,omitempty"`
	Confidence map[Field]float64 `json:"confidence,omitempty"`

	// Carried over from the strategy that produced the call.
	StrategyConfidence float64 `json:"strategy_confidence,omitempty"`
	NetworkAware       bool    `json:"network_aware,omitempty"`
}

// Get returns the candidate's value for a managed field.
func (c Candidate) Get(f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldEmail:
		return c.Email
	case FieldTitle:
		return c.Title
	case FieldCompany:
		return c.Company
	case FieldLinkedIn:
		return c.LinkedIn
	case FieldXHandle:
		return c.XHandle
	case FieldPhone:
		return c.Phone
	}
	return ""
}

// FieldConfidence returns the provider's confidence for a field, zero when
// the provider did not state one.
func (c Candidate) FieldConfidence(f Field) float64 {
	if c.Confidence == nil {
		return 0
	}
	return c.Confidence[f]
}

// Empty reports whether every identity field is blank. Public links alone do
// not identify a person, so a links-only candidate still counts as empty.
func (c Candidate) Empty() bool {
	for _, f := range IdentityFields {
		if c.Get(f) != "" {
			return false
		}
	}
	return true
}

// Lead is a deduplicated, merged profile ready for ranking.
type Lead struct {
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Title       string   `json:"title,omitempty"`
	Company     string   `json:"company,omitempty"`
	LinkedIn    string   `json:"linkedin,omitempty"`
	XHandle     string   `json:"x_handle,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	PublicLinks []string `json:"public_links,omitempty"`

	// Source names the channel of the strongest contributor, with a _mock
	// suffix when that contributor was synthetic.
	Source   string    `json:"source"`
	Channels []Channel `json:"channels,omitempty"`
	Score    float64   `json:"score"`

	Confidence             map[Field]float64 `json:"-"`
	BestStrategyConfidence float64           `json:"-"`
	NetworkAware           bool              `json:"-"`
	Synthetic              bool              `json:"-"`
}

// Set stores a managed field value on the lead.
func (l *Lead) Set(f Field, v string) {
	switch f {
	case FieldName:
		l.Name = v
	case FieldEmail:
		l.Email = v
	case FieldTitle:
		l.Title = v
	case FieldCompany:
		l.Company = v
	case FieldLinkedIn:
		l.LinkedIn = v
	case FieldXHandle:
		l.XHandle = v
	case FieldPhone:
		l.Phone = v
	}
}

// Get returns the lead's value for a managed field.
func (l *Lead) Get(f Field) string {
	switch f {
	case FieldName:
		return l.Name
	case FieldEmail:
		return l.Email
	case FieldTitle:
		return l.Title
	case FieldCompany:
		return l.Company
	case FieldLinkedIn:
		return l.LinkedIn
	case FieldXHandle:
		return l.XHandle
	case FieldPhone:
		return l.Phone
	}
	return ""
}

// HasChannel reports whether a channel already contributed to the lead.
func (l *Lead) HasChannel(ch Channel) bool {
	for _, c := range l.Channels {
		if c == ch {
			return true
		}
	}
	return false
}
