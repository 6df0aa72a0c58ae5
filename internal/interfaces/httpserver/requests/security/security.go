package security

// ValidateTokenRequest carries one emergency access token to validate.
type ValidateTokenRequest struct {
	Token  string `json:"token" binding:"required"`
	Origin string `json:"origin"`
}

// LoginCheckRequest asks whether an identity is currently blocked.
type LoginCheckRequest struct {
	Identity string `json:"identity" binding:"required"`
}

// LoginAttemptRequest records the outcome of a login attempt made at the
// identity provider. Only failures feed the rate limiter.
type LoginAttemptRequest struct {
	Identity string `json:"identity" binding:"required"`
	Success  bool   `json:"success"`
}
