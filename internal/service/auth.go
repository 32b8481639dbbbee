package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/usecase"
)

var tracer = otel.Tracer("service")

// AuthService turns bearer tokens issued by the identity provider into
// actors. Principals are cached briefly since roles change rarely.
type AuthService struct {
	secret     []byte
	issuer     string
	principals usecase.PrincipalRepository
	cache      *cache.Cache
}

func NewAuthService(
	secret string,
	issuer string,
	principalTTL time.Duration,
	principals usecase.PrincipalRepository,
) *AuthService {
	return &AuthService{
		secret:     []byte(secret),
		issuer:     issuer,
		principals: principals,
		cache:      cache.New(principalTTL, 2*principalTTL),
	}
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (domain.Actor, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return domain.Actor{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		err := fmt.Errorf("invalid subject")
		span.RecordError(err)
		return domain.Actor{}, err
	}

	principal, err := s.principal(ctx, claims.Subject)
	if err != nil {
		span.RecordError(err)
		return domain.Actor{}, err
	}
	if !principal.Role.Valid() {
		err := fmt.Errorf("principal %s has unknown role %q", principal.ID, principal.Role)
		span.RecordError(err)
		return domain.Actor{}, err
	}

	span.SetAttributes(
		attribute.String("principal.id", principal.ID),
		attribute.String("principal.role", string(principal.Role)),
	)
	return domain.Actor{ID: principal.ID, Role: principal.Role}, nil
}

func (s *AuthService) principal(ctx context.Context, id string) (domain.Principal, error) {
	if x, found := s.cache.Get(id); found {
		return x.(domain.Principal), nil
	}
	p, err := s.principals.Get(ctx, id)
	if err != nil {
		return domain.Principal{}, err
	}
	s.cache.Set(id, p, cache.DefaultExpiration)
	return p, nil
}

// Issue signs a token for principalID. The identity provider normally does
// this; the service uses it for local tooling and tests.
func (s *AuthService) Issue(principalID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   principalID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
