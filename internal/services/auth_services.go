package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"StorefrontAPI/internal/model"
	"StorefrontAPI/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen  = 8
	VerificationTTL = 24 * time.Hour
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

type AuthService struct {
	Users         UserStore
	Verifications VerificationStore
	Validator     EmailValidator
	Mailer        EmailSender
	Logger        *zap.Logger

	// BaseURL prefixes the verification link sent by mail.
	BaseURL string
	// Cost is the bcrypt work factor.
	Cost int
}

func NewAuthService(u UserStore, v VerificationStore, ev EmailValidator, m EmailSender, baseURL string, logger *zap.Logger) *AuthService {
	return &AuthService{
		Users:         u,
		Verifications: v,
		Validator:     ev,
		Mailer:        m,
		Logger:        logger,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Cost:          bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) validateEmail(ctx context.Context, email string) error {
	if email == "" {
		return Validation("email is required")
	}
	if !emailRegex.MatchString(email) {
		return Validation("invalid email format")
	}
	if s.Validator != nil {
		if err := s.Validator.Validate(ctx, email); err != nil {
			return &Error{Kind: KindValidation, Msg: "email address was rejected", Err: err}
		}
	}
	return nil
}

func (s *AuthService) validatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return Validationf("password too short: must be at least %d characters", MinPasswordLen)
	}
	return nil
}

// Register creates a customer account and mails a verification link.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("name is required")
	}
	if err := s.validateEmail(ctx, email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, Business("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.Users.Create(ctx, email, string(hash), name, model.RoleCustomer)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, Business("Email already registered")
		}
		return nil, err
	}

	s.sendVerification(ctx, id, email)

	return &model.User{ID: id, Email: email, Name: name, Role: model.RoleCustomer}, nil
}

func (s *AuthService) sendVerification(ctx context.Context, userID int64, email string) {
	token := uuid.NewString()
	if err := s.Verifications.Create(ctx, userID, token, time.Now().Add(VerificationTTL)); err != nil {
		s.Logger.Warn("store verification token failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	link := s.BaseURL + "/auth/verify?token=" + url.QueryEscape(token)
	if err := s.Mailer.SendVerificationEmail(ctx, email, link); err != nil {
		s.Logger.Warn("send verification email failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Login authenticates using email + password and returns the user without
// its password hash.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// do not reveal whether email exists
			return nil, &Error{Kind: KindUnauthorized, Msg: "invalid credentials"}
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, &Error{Kind: KindUnauthorized, Msg: "invalid credentials"}
	}
	u.PasswordHash = ""
	return u, nil
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return Validation("token is required")
	}
	userID, err := s.Verifications.GetUserID(ctx, token)
	if err != nil {
		return notFoundAs(err, "verification link is invalid or expired")
	}
	if err := s.Users.SetEmailVerified(ctx, userID); err != nil {
		return err
	}
	return s.Verifications.Delete(ctx, token)
}

// ResendVerification issues a new link for an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, actor *model.Identity) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	u, err := s.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFoundAs(err, "user not found")
	}
	if u.EmailVerified {
		return Business("email already verified")
	}
	s.sendVerification(ctx, u.ID, u.Email)
	return nil
}

func (s *AuthService) Me(ctx context.Context, actor *model.Identity) (*model.User, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, "user not found")
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, actor *model.Identity, name string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Validation("name is required")
	}
	return notFoundAs(s.Users.UpdateName(ctx, actor.UserID, name), "user not found")
}
