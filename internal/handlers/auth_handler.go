package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
	"meugestor/internal/services"
)

// SessionIssuer signs dashboard session tokens.
type SessionIssuer interface {
	Issue(user *models.User) (string, error)
}

// AuthHandler exchanges WhatsApp login links for dashboard sessions.
type AuthHandler struct {
	tokenService services.AuthTokenServicer
	sessions     SessionIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokenService services.AuthTokenServicer, sessions SessionIssuer) *AuthHandler {
	return &AuthHandler{tokenService: tokenService, sessions: sessions}
}

// VerifyTokenResponse is returned for a valid login link.
type VerifyTokenResponse struct {
	PhoneNumber string `json:"phone_number"`
	UserID      string `json:"user_id"`
	Token       string `json:"token"`
}

// VerifyToken consumes a one-time login token
// @Summary     Verify a login link
// @Description Consume a single-use token sent over WhatsApp and start a dashboard session
// @Tags        auth
// @Produce     json
// @Param       token path string true "One-time token"
// @Success     200 {object} VerifyTokenResponse "Session started"
// @Failure     404 {object} ErrorResponse "Invalid or expired token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/verify/{token} [get]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	user, err := h.tokenService.VerifyToken(c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.sessions.Issue(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, VerifyTokenResponse{
		PhoneNumber: services.DisplayPhone(user.PhoneNumber),
		UserID:      user.ID,
		Token:       session,
	})
}
