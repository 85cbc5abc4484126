package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/models"
)

const (
	authTokenBytes      = 16
	DefaultAuthTokenTTL = 5 * time.Minute
)

// authTokenService handles single-use dashboard login tokens.
type authTokenService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewAuthTokenService creates a new AuthTokenServicer.
func NewAuthTokenService(db *gorm.DB, ttl time.Duration) AuthTokenServicer {
	if ttl <= 0 {
		ttl = DefaultAuthTokenTTL
	}
	return &authTokenService{db: db, ttl: ttl, now: time.Now}
}

// IssueToken creates a token for userID valid for the configured TTL
func (s *authTokenService) IssueToken(userID string) (*models.AuthToken, error) {
	value, err := generateToken(authTokenBytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token := &models.AuthToken{
		Token:     value,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.db.Create(token).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return token, nil
}

// VerifyToken consumes token and returns its user. The token is deleted
// whether it was still valid or not.
func (s *authTokenService) VerifyToken(token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}

	var authToken models.AuthToken
	if err := s.db.Preload("User").Where("token = ?", token).First(&authToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := s.db.Unscoped().Where("id = ?", authToken.ID).Delete(&models.AuthToken{})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	// a concurrent verification consumed it first
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrInvalidToken
	}

	if authToken.Expired(s.now()) || authToken.User.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return &authToken.User, nil
}

// generateToken returns n random bytes, base64url-encoded without padding.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
