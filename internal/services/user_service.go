package services

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	apperrors "meugestor/internal/errors"
	"meugestor/internal/logger"
	"meugestor/internal/models"
)

// WhatsAppSuffix is appended to bare numbers to form a WhatsApp JID.
const WhatsAppSuffix = "@s.whatsapp.net"

const brazilCountryCode = "55"

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// NormalizePhone turns dashboard input ("(11) 99999-9999", "5511999999999",
// a full JID) into the JID stored on users.
func NormalizePhone(raw string) (string, error) {
	if i := strings.IndexByte(raw, '@'); i >= 0 {
		raw = raw[:i]
	}
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", apperrors.ErrInvalidPhone
	}
	if !strings.HasPrefix(digits, brazilCountryCode) {
		digits = brazilCountryCode + digits
	}
	return digits + WhatsAppSuffix, nil
}

// DisplayPhone strips the JID suffix.
func DisplayPhone(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// GetOrCreateByPhone returns the user for a JID, creating it on first contact.
func (s *userService) GetOrCreateByPhone(phone string) (*models.User, error) {
	if phone == "" {
		return nil, apperrors.ErrInvalidPhone
	}

	user, err := s.GetUserByPhone(phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{PhoneNumber: phone}
	if err := s.db.Create(user).Error; err != nil {
		// a concurrent message from the same sender may have won the insert
		if existing, lookupErr := s.GetUserByPhone(phone); lookupErr == nil {
			return existing, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("created user", "user_id", user.ID, "phone", phone)
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByPhone retrieves a user by JID
func (s *userService) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// RecordActivity bumps the message counter and last-seen time.
func (s *userService) RecordActivity(userID string, at time.Time) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_message_at": at.UTC(),
		"message_count":   gorm.Expr("message_count + 1"),
	})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
