package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/server/middleware"
	"expiry-backend/internal/shared/server/respond"
)

const providerGuidance = "SMS delivery is not configured. Set SMS_PROVIDER, AWS_REGION and AWS credentials, or use SMS_PROVIDER=log in development."

type Handler struct {
	Svc      *Service
	Verifier middleware.TokenVerifier
	// Limiter throttles code requests and verifications per mobile number;
	// nil disables it.
	Limiter   *middleware.RateLimiter
	PerNumber middleware.RateLimitRule
}

func NewHandler(svc *Service, verifier middleware.TokenVerifier) *Handler {
	return &Handler{Svc: svc, Verifier: verifier}
}

// RegisterRoutes attaches the OTP and sign-out routes. They are served without
// a session, so the group must be listed as public in the auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/otp/request", h.requestCode)
	rg.POST("/auth/otp/verify", h.verifyCode)
	rg.POST("/auth/signout", h.signOut)
}

type requestCodeBody struct {
	MobileNumber string `json:"mobileNumber"`
}

type verifyCodeBody struct {
	MobileNumber string `json:"mobileNumber"`
	Code         string `json:"code"`
}

func (h *Handler) requestCode(c *gin.Context) {
	var body requestCodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	mobile := NormalizeMobile(body.MobileNumber)
	if !ValidMobile(mobile) {
		respond.Error(c, http.StatusBadRequest, "invalid_number", "enter a valid mobile number", nil)
		return
	}
	if h.Limiter != nil {
		if ok, retryAfter := h.Limiter.Allow("otp|"+mobile, h.PerNumber); !ok {
			middleware.TooManyRequests(c, retryAfter)
			return
		}
	}

	sentTo, err := h.Svc.RequestCode(c.Request.Context(), mobile)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"mobileNumber": sentTo})
}

func (h *Handler) verifyCode(c *gin.Context) {
	var body verifyCodeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	if h.Limiter != nil {
		if mobile := NormalizeMobile(body.MobileNumber); ValidMobile(mobile) {
			if ok, retryAfter := h.Limiter.Allow("otp-verify|"+mobile, h.PerNumber); !ok {
				middleware.TooManyRequests(c, retryAfter)
				return
			}
		}
	}
	session, err := h.Svc.VerifyCode(c.Request.Context(), body.MobileNumber, body.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("userId", session.User.ID)
	respond.OK(c, session)
}

func (h *Handler) signOut(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if token != "" && h.Verifier != nil {
		if claims, err := h.Verifier.Verify(token); err == nil && claims.ExpiresAt != nil {
			h.Svc.SignOut(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
		}
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidNumber):
		respond.Error(c, http.StatusBadRequest, "invalid_number", "enter a valid mobile number", nil)
	case errors.Is(err, ErrInvalidCode):
		respond.Error(c, http.StatusUnauthorized, "invalid_code", "the code is incorrect", nil)
	case errors.Is(err, ErrCodeExpired):
		respond.Error(c, http.StatusUnauthorized, "code_expired", "the code has expired, request a new one", nil)
	case errors.Is(err, ErrProviderNotConfigured):
		respond.Internal(c, http.StatusServiceUnavailable, "provider_not_configured", providerGuidance, err)
	case errors.Is(err, ErrProvider):
		respond.Internal(c, http.StatusBadGateway, "provider_error", "could not send the verification code", err)
	default:
		respond.Internal(c, http.StatusInternalServerError, "store_error", "something went wrong, try again", err)
	}
}
