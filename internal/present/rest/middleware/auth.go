package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/soscomida/soscomida/internal/domain"
)

var tracer = otel.Tracer("auth")

// Authenticator resolves a bearer token to an actor.
type Authenticator interface {
	AuthJwt(ctx context.Context, token string) (domain.Actor, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// IdentifyIdentity attaches the caller's actor to the request context when a
// valid bearer token is present. Requests without one pass through
// anonymously; handlers decide whether that is acceptable.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			actor, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				goto skipCheckAuthorization
			}
			actor.Origin = c.RealIP()

			ctx = context.WithValue(ctx, domain.ActorCtxKey, actor)
			span.SetAttributes(
				attribute.String("RequesterId", actor.ID),
				attribute.String("RequesterRole", string(actor.Role)),
			)
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ActorFrom returns the actor IdentifyIdentity stored, if any.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(domain.ActorCtxKey).(domain.Actor)
	return actor, ok
}
