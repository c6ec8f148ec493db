package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roadguard/internal/domain"
	"github.com/spec-kit/roadguard/internal/repository"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

const principalKey = "auth_principal"

const credentialsMessage = "could not validate credentials"

// Gate resolves bearer tokens to users and enforces role policies.
type Gate struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewGate constructs a gate.
func NewGate(tokens *TokenManager, users repository.UserRepository) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// CurrentUser returns the user the bearer token was minted for. A token whose
// user no longer exists is treated as invalid.
func (g *Gate) CurrentUser(ctx context.Context, bearer string) (*domain.User, error) {
	email, err := g.tokens.Verify(bearer)
	if err != nil {
		return nil, apperrors.NewUnauthorized(credentialsMessage)
	}
	user, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(credentialsMessage)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// RequireRole passes user through when policy admits its role.
func (g *Gate) RequireRole(user *domain.User, policy Policy) (*domain.User, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized(credentialsMessage)
	}
	if !policy.Allows(user.Role) {
		return nil, apperrors.NewForbidden("not enough permissions")
	}
	return user, nil
}

// Authenticate enforces a valid bearer token and stores the user on the context.
func (g *Gate) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		bearer, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return apperrors.NewUnauthorized("not authenticated")
		}
		user, err := g.CurrentUser(c.UserContext(), bearer)
		if err != nil {
			return err
		}
		c.Locals(principalKey, user)
		return c.Next()
	}
}

// Require admits only authenticated users whose role satisfies policy.
// It must run after Authenticate.
func (g *Gate) Require(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := PrincipalFromContext(c)
		if _, err := g.RequireRole(user, policy); err != nil {
			return err
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := c.Locals(principalKey).(*domain.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
