package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soscomida/soscomida/internal/domain"
)

type countingPrincipals struct {
	byID  map[string]domain.Principal
	calls int
}

func (c *countingPrincipals) Get(ctx context.Context, id string) (domain.Principal, error) {
	c.calls++
	p, ok := c.byID[id]
	if !ok {
		return domain.Principal{}, domain.NotFoundError{Resource: "principal"}
	}
	return p, nil
}

func (c *countingPrincipals) ListApprovedInstitutions(ctx context.Context) ([]domain.Principal, error) {
	return nil, nil
}

func newAuth() (*AuthService, *countingPrincipals) {
	principals := &countingPrincipals{byID: map[string]domain.Principal{
		"mod-1":  {ID: "mod-1", Role: domain.RoleModerator},
		"weird":  {ID: "weird", Role: domain.Role("admin")},
		"inst-1": {ID: "inst-1", Role: domain.RoleInstitution, ApprovalStatus: domain.ApprovalApproved},
	}}
	return NewAuthService("s3cret", "soscomida-idp", time.Minute, principals), principals
}

func TestAuthJwtRoundTrip(t *testing.T) {
	auth, principals := newAuth()
	ctx := context.Background()

	token, err := auth.Issue("mod-1", time.Hour)
	require.NoError(t, err)

	actor, err := auth.AuthJwt(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "mod-1", Role: domain.RoleModerator}, actor)

	_, err = auth.AuthJwt(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, principals.calls)
}

func TestAuthJwtRejects(t *testing.T) {
	auth, _ := newAuth()
	ctx := context.Background()

	expired, err := auth.Issue("mod-1", -time.Minute)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, expired)
	assert.Error(t, err)

	foreign := NewAuthService("other", "soscomida-idp", time.Minute, &countingPrincipals{})
	forged, err := foreign.Issue("mod-1", time.Hour)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, forged)
	assert.Error(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "mod-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, wrongIssuer)
	assert.Error(t, err)

	unknown, err := auth.Issue("ghost", time.Hour)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, unknown)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	badRole, err := auth.Issue("weird", time.Hour)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, badRole)
	assert.Error(t, err)
}
