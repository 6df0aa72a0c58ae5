package security

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/application/audit"
	"leadchat-server/services/routing-api/internal/domain/security"
	"leadchat-server/services/routing-api/internal/infrastructure/metrics"
	securityrequests "leadchat-server/services/routing-api/internal/interfaces/httpserver/requests/security"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/responses"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// SecurityRoute exposes the emergency token validator and the login rate
// limiter. Both are called by the identity provider before this service's own
// auth applies, so they live on the public surface.
type SecurityRoute struct {
	validator *security.TokenValidator
	limiter   *security.LoginRateLimiter
	auditor   *audit.Logger
}

func NewSecurityRoute(validator *security.TokenValidator, limiter *security.LoginRateLimiter, auditor *audit.Logger) *SecurityRoute {
	return &SecurityRoute{
		validator: validator,
		limiter:   limiter,
		auditor:   auditor,
	}
}

func (route *SecurityRoute) RegisterRouter(router gin.IRouter) {
	sec := router.Group("/security")
	sec.POST("/tokens/validate", route.validateToken)
	sec.POST("/login-attempts/check", route.checkLoginAttempts)
	sec.POST("/login-attempts", route.recordLoginAttempt)
}

// validateToken godoc
// @Summary Validate an emergency access token
// @Description Check an emergency token against today's expected value. A malformed or expired token yields valid=false with status 200; the endpoint never distinguishes why a token failed.
// @Tags Security API
// @Accept json
// @Produce json
// @Param request body securityrequests.ValidateTokenRequest true "Token to validate"
// @Success 200 {object} map[string]bool "Validation verdict"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Router /v1/security/tokens/validate [post]
func (route *SecurityRoute) validateToken(reqCtx *gin.Context) {
	var req securityrequests.ValidateTokenRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "1b2eef8c-da1d-4dfa-ec8e-db4c5d6e7f88")
		return
	}

	origin := req.Origin
	if origin == "" {
		origin = reqCtx.ClientIP()
	}

	valid := route.validator.Validate(reqCtx.Request.Context(), req.Token, origin)
	metrics.RecordTokenValidation(valid)
	reqCtx.JSON(http.StatusOK, gin.H{"valid": valid})
}

// checkLoginAttempts godoc
// @Summary Check login rate limiting for an identity
// @Description Report whether an identity is blocked by recent failed logins. The check is read-only; it never mutates the failure window.
// @Tags Security API
// @Accept json
// @Produce json
// @Param request body securityrequests.LoginCheckRequest true "Identity to check"
// @Success 200 {object} security.CheckResult "Rate-limit verdict"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/security/login-attempts/check [post]
func (route *SecurityRoute) checkLoginAttempts(reqCtx *gin.Context) {
	var req securityrequests.LoginCheckRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "2c3ffa9d-eb2e-4ea0-fd9f-ec5d6e7f8a99")
		return
	}

	result, err := route.limiter.Check(reqCtx.Request.Context(), req.Identity)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to check login attempts")
		return
	}

	metrics.RecordLoginCheck(result.Blocked)
	reqCtx.JSON(http.StatusOK, result)
}

// recordLoginAttempt godoc
// @Summary Record a login attempt outcome
// @Description Record the outcome of a login attempt made at the identity provider. Failed attempts feed the rate limiter's window; successes are ignored.
// @Tags Security API
// @Accept json
// @Produce json
// @Param request body securityrequests.LoginAttemptRequest true "Attempt outcome"
// @Success 204 "Attempt recorded"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Router /v1/security/login-attempts [post]
func (route *SecurityRoute) recordLoginAttempt(reqCtx *gin.Context) {
	var req securityrequests.LoginAttemptRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "3d40ab0e-fc3f-4fb1-ae0a-fd6e7f8a9b00")
		return
	}

	if !req.Success {
		route.auditor.RecordLoginFailure(reqCtx.Request.Context(), req.Identity, reqCtx.ClientIP(), reqCtx.Request.UserAgent())
	}
	reqCtx.Status(http.StatusNoContent)
}
