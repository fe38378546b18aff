package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/internal/domain/repository"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

// Identity is the principal resolved for a protected call.
type Identity struct {
	UserID string
	Email  string
	Phone  string
	Role   entity.Role
}

// TokenParser validates a bearer credential and returns its subject.
type TokenParser interface {
	ParseAccessToken(token string) (*helpers.Claims, error)
}

// Gate enforces authentication and role membership before a protected operation runs.
// The credential is re-verified against the user store on every call.
type Gate struct {
	Tokens TokenParser
	Users  repository.UserRepository
	Logger *logrus.Logger
}

func NewGate(tokens TokenParser, users repository.UserRepository, logger *logrus.Logger) *Gate {
	return &Gate{Tokens: tokens, Users: users, Logger: logger}
}

// Authorize resolves credential to an Identity and checks it against allowed.
// An empty allowed set admits any authenticated role.
func (g *Gate) Authorize(ctx context.Context, credential string, allowed entity.RoleSet) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrUnauthorized
	}
	claims, err := g.Tokens.ParseAccessToken(credential)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	u, err := g.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, ErrUnauthorized
		}
		if g.Logger != nil {
			g.Logger.WithError(err).WithField("user_id", claims.UserID).Error("credential lookup failed")
		}
		return Identity{}, upstream(err)
	}
	if !allowed.Allows(u.Role) {
		return Identity{}, ErrForbidden
	}
	return Identity{UserID: u.ID, Email: u.Email, Phone: u.Phone, Role: u.Role}, nil
}

// Protect wraps op so it only runs for a credential whose role is in roles.
func Protect[T any](g *Gate, roles []entity.Role, op func(ctx context.Context, id Identity) (T, error)) func(ctx context.Context, credential string) (T, error) {
	allowed := entity.NewRoleSet(roles...)
	return func(ctx context.Context, credential string) (T, error) {
		id, err := g.Authorize(ctx, credential, allowed)
		if err != nil {
			var zero T
			return zero, err
		}
		return op(ctx, id)
	}
}
