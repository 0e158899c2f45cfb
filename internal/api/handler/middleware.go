package handler

import (
	"context"
	"errors"
	"strings"

	"coindrop/internal/models"
	"coindrop/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ctxKey string

var ctxKeyAuthAccount ctxKey = "AUTH_ACCOUNT"
var ctxKeyAuthAdmin ctxKey = "AUTH_ADMIN"

func Authn(verifier interface {
	ValidateInitData(dataStr string) (*models.AccountFromAuth, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return next(c)
			}

			account, err := verifier.ValidateInitData(token)
			if err != nil {
				// although it's a client error, we don't want to leak details
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthAccount, account)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// AuthnAdmin terminates requests without a valid admin token.
func AuthnAdmin(authentication *services.Authentication) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}

			claims, err := authentication.Validate(token)
			if err != nil || !claims.Admin {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("unauthorized"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthAdmin, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidAccount(ctx context.Context, container *do.Injector) (*models.Account, error) {
	auth, ok := ctx.Value(ctxKeyAuthAccount).(*models.AccountFromAuth)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	ledger, err := do.Invoke[*services.ServiceLedger](container)
	if err != nil {
		return nil, err
	}

	return ledger.FindOrCreateAccount(ctx, auth)
}

func ResolveAdminClaims(ctx context.Context) (*services.CustomClaims, error) {
	claims, ok := ctx.Value(ctxKeyAuthAdmin).(*services.CustomClaims)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	return claims, nil
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.Split(header, "Bearer")
	if len(parts) != 2 {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
