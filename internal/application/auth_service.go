package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	repo "github.com/oksasatya/hazard-reporting/internal/domain/repository"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

// OTPProvider is the external phone verification service. It owns challenge state.
type OTPProvider interface {
	RequestCode(ctx context.Context, phone string) (entity.OTPStatus, error)
	CheckCode(ctx context.Context, phone, code string) (entity.OTPStatus, error)
}

// TokenIssuer signs the bearer credential returned with a Session.
type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, time.Time, error)
}

// Session is the client-held proof of login. It never carries the password hash.
type Session struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Phone string      `json:"phone,omitempty"`
	Role  entity.Role `json:"role"`
}

// LoginResult pairs the Session with the credential the client presents on protected calls.
type LoginResult struct {
	Session     Session   `json:"session"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthService struct {
	Users  repo.UserRepository
	OTP    OTPProvider
	Tokens TokenIssuer
	Logger *logrus.Logger
}

func NewAuthService(users repo.UserRepository, otp OTPProvider, tokens TokenIssuer, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, OTP: otp, Tokens: tokens, Logger: logger}
}

// SessionFor builds the client session for u.
func SessionFor(u *entity.User) Session {
	return Session{ID: u.ID, Name: u.DisplayName(), Email: u.Email, Phone: u.Phone, Role: u.Role}
}

// LoginWithCredentials verifies email and password. Unknown emails and wrong passwords
// fail identically.
func (s *AuthService) LoginWithCredentials(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.logUpstream(err, "credential lookup failed", logrus.Fields{"email": entity.NormalizeEmail(email)})
		return nil, upstream(err)
	}
	hash := ""
	if u != nil {
		hash = u.PasswordHash
	}
	if !helpers.CompareHashAndPassword(hash, password) || u == nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// RequestOTP asks the provider to send a code to phone.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) error {
	p, err := entity.NormalizePhone(phone)
	if err != nil {
		return ValidationError(map[string]string{"phone": "must be a valid phone number"})
	}
	status, err := s.OTP.RequestCode(ctx, p)
	if err != nil {
		s.logUpstream(err, "otp request failed", logrus.Fields{"phone": p})
		return &Error{Kind: ErrOtpSendFailed.Kind, Code: ErrOtpSendFailed.Code, Message: ErrOtpSendFailed.Message, Err: err}
	}
	if status != entity.OTPPending {
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{"phone": p, "status": status}).Warn("otp provider did not accept request")
		}
		return ErrOtpSendFailed
	}
	return nil
}

// LoginWithOTP checks code with the provider and logs in the user owning phone.
func (s *AuthService) LoginWithOTP(ctx context.Context, phone, code string) (*LoginResult, error) {
	p, err := entity.NormalizePhone(phone)
	if err != nil {
		return nil, ValidationError(map[string]string{"phone": "must be a valid phone number"})
	}
	status, err := s.OTP.CheckCode(ctx, p, code)
	if err != nil {
		s.logUpstream(err, "otp check failed", logrus.Fields{"phone": p})
		return nil, upstream(err)
	}
	if status != entity.OTPApproved {
		return nil, ErrOtpNotApproved
	}
	u, err := s.Users.GetByPhone(ctx, p)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logUpstream(err, "phone lookup failed", logrus.Fields{"phone": p})
		return nil, upstream(err)
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *entity.User) (*LoginResult, error) {
	tok, exp, err := s.Tokens.GenerateAccessToken(u.ID)
	if err != nil {
		s.logUpstream(err, "generate access token failed", logrus.Fields{"user_id": u.ID})
		return nil, upstream(err)
	}
	return &LoginResult{Session: SessionFor(u), AccessToken: tok, ExpiresAt: exp}, nil
}

func (s *AuthService) logUpstream(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}
