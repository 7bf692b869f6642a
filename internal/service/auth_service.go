package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stockpilot/internal/auth"
	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/mail"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
)

const bcryptCost = 10

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// equaliseTiming burns one bcrypt comparison so unknown usernames cost the same as wrong passwords.
func equaliseTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("stockpilot-dummy-password"), bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	VerifyEmail(ctx context.Context, email, code string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	otpStore   auth.OTPStore
	mailer     mail.Mailer
	log        *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	otpStore auth.OTPStore,
	mailer mail.Mailer,
	log *zap.Logger,
) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		otpStore:   otpStore,
		mailer:     mailer,
		log:        log,
	}
}

// Register creates a user with a hashed password and sends an email verification code.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	taken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperrors.ErrUsernameExists
	}

	taken, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperrors.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration.
			return nil, s.conflictAfterRace(ctx, username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendVerificationCode(ctx, user)
	return user, nil
}

func (s *authService) conflictAfterRace(ctx context.Context, username string) error {
	if taken, err := s.userRepo.ExistsByUsername(ctx, username); err == nil && !taken {
		return apperrors.ErrEmailExists
	}
	return apperrors.ErrUsernameExists
}

// sendVerificationCode never fails registration; problems are only logged.
func (s *authService) sendVerificationCode(ctx context.Context, user *model.User) {
	code, err := s.otpStore.Issue(ctx, user.Email)
	if err != nil {
		s.log.Warn("issue verification code", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.mailer.SendVerificationCode(ctx, user.Email, user.Username, code); err != nil {
		s.log.Warn("send verification code", zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

// Login authenticates a user and returns access and refresh tokens.
// Unknown users, wrong passwords and inactive accounts are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error) {
	user, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, fmt.Errorf("find user: %w", err)
		}
		equaliseTiming(password)
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err = s.jwtService.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return "", apperrors.ErrInvalidRefreshToken
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// VerifyEmail consumes a verification code and marks the matching user verified.
func (s *authService) VerifyEmail(ctx context.Context, email, code string) error {
	email = model.NormalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidVerificationCode
		}
		return fmt.Errorf("find user: %w", err)
	}

	ok, err := s.otpStore.Verify(ctx, email, code)
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	if !ok {
		return apperrors.ErrInvalidVerificationCode
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}
