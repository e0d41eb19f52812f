package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/jwt"
	"github.com/labstack/echo/v4"
)

const (
	IdentityKey = "_auth_identity"
	ClaimsKey   = "_auth_claims"
)

const (
	MsgNoToken            = "Access denied. No token provided."
	MsgInvalidToken       = "Invalid or expired token"
	MsgUserNotFound       = "User not found"
	MsgAuthRequired       = "Authentication required"
	MsgInsufficientAccess = "Access denied. Insufficient permissions."
)

// Identity is the authenticated account as seen by handlers.
type Identity struct {
	ID       uint        `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Verified bool        `json:"verified"`
}

type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

type AccountFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Account, error)
}

// Authenticate resolves the bearer token to a stored account. Role and
// verification state come from the account row, not the token.
func Authenticate(tokens TokenValidator, accounts AccountFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := jwt.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, MsgNoToken)
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, MsgInvalidToken)
			}

			account, err := accounts.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if apperror.Is(err, apperror.NotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, MsgUserNotFound)
				}
				return err
			}

			c.Set(ClaimsKey, claims)
			c.Set(IdentityKey, &Identity{
				ID:       account.ID,
				Name:     account.Name,
				Email:    account.Email,
				Role:     account.Role,
				Verified: account.Verified,
			})

			return next(c)
		}
	}
}

// Authorize admits only identities holding one of roles. It must run after
// Authenticate.
func Authorize(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := GetIdentity(c)
			if identity == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, MsgAuthRequired)
			}
			if !slices.Contains(roles, identity.Role) {
				return echo.NewHTTPError(http.StatusForbidden, MsgInsufficientAccess)
			}
			return next(c)
		}
	}
}

func GetIdentity(c echo.Context) *Identity {
	if identity, ok := c.Get(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetClaims(c echo.Context) *jwt.Claims {
	if claims, ok := c.Get(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}
