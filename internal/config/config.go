package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// QuotaConfig is a shared-credential call ceiling over a calendar window.
type QuotaConfig struct {
	Ceiling int
	Window  string // "daily" or "monthly"
}

// OAuthConfig holds one platform's application credentials.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether the platform can run an OAuth flow.
func (o OAuthConfig) Configured() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.RedirectURL != ""
}

// RankWeights groups the lead scoring weights.
type RankWeights struct {
	Goal         float64
	Reliability  float64
	Completeness float64
	Network      float64
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port        string
	DatabaseURL string
	LogDebug    bool
	LogPretty   bool

	JWTSecret    string
	StateTTL     time.Duration
	TokenSealKey string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	PDLAPIKey       string
	PhoneRegion     string
	GoogleCSEAPIKey string
	GoogleCSEID     string
	TwitterBearer   string
	PhantomAPIKey   string
	PhantomAgentID  string

	OAuthX        OAuthConfig
	OAuthLinkedIn OAuthConfig

	ScoutTimeout        time.Duration
	DiscoveryDeadline   time.Duration
	RetryBackoff        time.Duration
	DispatchConcurrency int

	Quotas       map[string]QuotaConfig
	ChannelModes map[string]string
	NetworkBoost float64
	RankWeights  RankWeights

	DefaultTarget      int
	MaxTarget          int
	RateLimitDiscovery RateLimitConfig
}

// Load reads configuration from environment variables and applies sane
// defaults. The service starts with zero configuration: every provider
// credential is optional and missing ones route to the synthetic tier.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogDebug:    parseBool(getEnv("LOG_DEBUG", "false")),
		LogPretty:   parseBool(getEnv("LOG_PRETTY", "false")),

		JWTSecret:    getEnv("JWT_SECRET", "dev-secret"),
		StateTTL:     parseDuration(getEnv("OAUTH_STATE_TTL", "10m"), 10*time.Minute),
		TokenSealKey: os.Getenv("TOKEN_SEAL_KEY"),

		LLMProvider:  os.Getenv("LLM_PROVIDER"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		PDLAPIKey:       os.Getenv("PDL_API_KEY"),
		PhoneRegion:     getEnv("PHONE_REGION", "US"),
		GoogleCSEAPIKey: os.Getenv("GOOGLE_CSE_API_KEY"),
		GoogleCSEID:     os.Getenv("GOOGLE_CSE_ID"),
		TwitterBearer:   os.Getenv("TWITTER_BEARER_TOKEN"),
		PhantomAPIKey:   os.Getenv("PHANTOMBUSTER_API_KEY"),
		PhantomAgentID:  os.Getenv("PHANTOMBUSTER_AGENT_ID"),

		OAuthX: OAuthConfig{
			ClientID:     os.Getenv("X_CLIENT_ID"),
			ClientSecret: os.Getenv("X_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("X_REDIRECT_URL"),
		},
		OAuthLinkedIn: OAuthConfig{
			ClientID:     os.Getenv("LINKEDIN_CLIENT_ID"),
			ClientSecret: os.Getenv("LINKEDIN_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("LINKEDIN_REDIRECT_URL"),
		},

		ScoutTimeout:        parseDuration(getEnv("SCOUT_TIMEOUT", "10s"), 10*time.Second),
		DiscoveryDeadline:   parseDuration(getEnv("DISCOVERY_DEADLINE", "30s"), 30*time.Second),
		RetryBackoff:        parseDuration(getEnv("RETRY_BACKOFF", "500ms"), 500*time.Millisecond),
		DispatchConcurrency: parseInt(getEnv("DISPATCH_CONCURRENCY", "8"), 8),

		NetworkBoost: parseFloat(getEnv("NETWORK_BOOST", "0.10"), 0.10),
		RankWeights: RankWeights{
			Goal:         parseFloat(getEnv("RANK_WEIGHT_GOAL", "0.40"), 0.40),
			Reliability:  parseFloat(getEnv("RANK_WEIGHT_RELIABILITY", "0.30"), 0.30),
			Completeness: parseFloat(getEnv("RANK_WEIGHT_COMPLETENESS", "0.25"), 0.25),
			Network:      parseFloat(getEnv("RANK_WEIGHT_NETWORK", "0.05"), 0.05),
		},

		DefaultTarget: parseInt(getEnv("DEFAULT_TARGET", "5"), 5),
		MaxTarget:     parseInt(getEnv("MAX_TARGET", "100"), 100),
	}

	quotas := map[string]QuotaConfig{}
	for channel, fallback := range map[string]string{
		"email":    "1000/month",
		"linkedin": "50/day",
		"x":        "1500/month",
		"web":      "100/day",
	} {
		key := "QUOTA_" + strings.ToUpper(channel)
		q, err := parseQuota(getEnv(key, fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", key, err)
		}
		quotas[channel] = q
	}
	cfg.Quotas = quotas

	modes := map[string]string{}
	for channel, fallback := range map[string]string{
		"email":    "shared",
		"linkedin": "hybrid",
		"x":        "hybrid",
		"web":      "shared",
	} {
		mode := strings.ToLower(getEnv("CHANNEL_MODE_"+strings.ToUpper(channel), fallback))
		if mode != "shared" && mode != "hybrid" {
			return nil, fmt.Errorf("invalid CHANNEL_MODE_%s value: %q", strings.ToUpper(channel), mode)
		}
		modes[channel] = mode
	}
	cfg.ChannelModes = modes

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_DISCOVERY", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_DISCOVERY value: %w", err)
	}
	cfg.RateLimitDiscovery = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func parseQuota(value string) (QuotaConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return QuotaConfig{}, fmt.Errorf("expected format <ceiling>/<window>, got %q", value)
	}

	ceiling, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || ceiling < 0 {
		return QuotaConfig{}, fmt.Errorf("invalid ceiling: %v", parts[0])
	}

	window := strings.ToLower(strings.TrimSpace(parts[1]))
	switch window {
	case "day", "daily":
		window = "daily"
	case "month", "monthly":
		window = "monthly"
	default:
		return QuotaConfig{}, fmt.Errorf("unsupported window: %s", window)
	}

	return QuotaConfig{Ceiling: ceiling, Window: window}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(input string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

func parseBool(input string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return b
}
