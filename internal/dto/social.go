package dto

// SocialTokenPayload carries one platform's credential in a manual connect
// request. ExpiresIn is seconds from now; zero means the token does not
// expire.
type SocialTokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Handle       string `json:"handle,omitempty"`
}

// ConnectSocialProfilesRequest attaches personal credentials without the
// OAuth redirect flow. Platform keys are channel names ("x", "linkedin").
type ConnectSocialProfilesRequest struct {
	UserID    string                        `json:"user_id"`
	Platforms map[string]SocialTokenPayload `json:"platforms"`
}
