// Package identity normalizes the contact fields used to deduplicate lead
// candidates across discovery channels.
package identity

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "US"
)

// Exact query keys dropped alongside the utm_ prefix family.
var trackingKeys = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"ref":    {},
	"trk":    {},
}

// NormalizeEmail lowercases, trims and IDNA-encodes an address. It returns
// the empty string for anything that does not look like an email.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	parts := strings.SplitN(email, "@", 2)
	domain := parts[1]
	if !isDomainValid(domain) {
		return ""
	}
	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return ""
	}
	return parts[0] + "@" + asciiDomain
}

// CanonicalProfileURL reduces a professional-network profile URL to its
// dedup key form: lowercased host without a www prefix, path without the
// trailing slash, no scheme, no fragment, tracking parameters removed.
func CanonicalProfileURL(raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return ""
	}
	stripTracking(u)
	u.Fragment = ""
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// ProfileURL returns the display form of a profile URL: the canonical key
// with https restored. Empty input stays empty.
func ProfileURL(raw string) string {
	key := CanonicalProfileURL(raw)
	if key == "" {
		return ""
	}
	return "https://" + key
}

// NormalizeHandle strips a leading @ and lowercases a social handle. Handles
// containing whitespace are rejected.
func NormalizeHandle(raw string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimPrefix(h, "@")
	h = strings.ToLower(h)
	if h == "" || strings.ContainsAny(h, " \t\n") {
		return ""
	}
	return h
}

// SanitizeLink normalizes a public link to an absolute https URL with
// tracking parameters removed. Unparseable input yields the empty string.
func SanitizeLink(raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return ""
	}
	stripTracking(u)
	return u.String()
}

// NormalizePhone parses a phone number against a default region and formats
// it E.164. Invalid numbers yield the empty string.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// Keys derives the candidate's dedup keys, strongest first. Each key is
// prefixed with its tier so keys from different tiers never collide.
func Keys(c entity.Candidate) []string {
	keys := make([]string, 0, 3)
	if email := NormalizeEmail(c.Email); email != "" {
		keys = append(keys, "email:"+email)
	}
	if profile := CanonicalProfileURL(c.LinkedIn); profile != "" {
		keys = append(keys, "profile:"+profile)
	}
	if handle := NormalizeHandle(c.XHandle); handle != "" {
		keys = append(keys, "handle:"+handle)
	}
	return keys
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	u.Scheme = "https"
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		lower := strings.ToLower(key)
		if _, drop := trackingKeys[lower]; drop || strings.HasPrefix(lower, trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}
