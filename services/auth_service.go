package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/utils"

	"gorm.io/gorm"
)

const resetTokenTTL = 15 * time.Minute

type AuthService struct {
	db     *gorm.DB
	secret []byte
	mail   Mailer
}

func NewAuthService(db *gorm.DB, jwtSecret string, mail Mailer) *AuthService {
	return &AuthService{db: db, secret: []byte(jwtSecret), mail: mail}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *AuthService) RegisterUser(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = normalizeEmail(email)
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:            email,
		Password:         hashed,
		FullName:         strings.TrimSpace(fullName),
		Role:             models.RoleCustomer,
		RemindersEnabled: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// AuthenticateUser checks the password and returns a signed access token.
func (s *AuthService) AuthenticateUser(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrBadCredentials
		}
		return "", nil, err
	}
	if user.Disabled || !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrBadCredentials
	}
	token, err := utils.GenerateJWT(s.secret, user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("disabled = ?", false).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword stores a short reset code and mails it. Unknown emails are
// not reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := utils.GenerateNumericCode(6)
	if err != nil {
		return err
	}
	user.ResetToken = code
	user.ResetTokenExp = time.Now().Add(resetTokenTTL).Unix()
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	if s.mail == nil {
		return nil
	}
	return s.mail.Send(ctx, user.Email, "Password reset code",
		fmt.Sprintf("Your password reset code is: %s\n\nIt expires in 15 minutes.", code))
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		return ErrBadCredentials
	}
	if code == "" || user.ResetToken != code || time.Now().Unix() > user.ResetTokenExp {
		return ErrBadCredentials
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.ResetToken = ""
	user.ResetTokenExp = 0
	return s.db.WithContext(ctx).Save(user).Error
}
