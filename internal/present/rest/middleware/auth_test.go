package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/soscomida/soscomida/internal/domain"
)

type staticAuth struct{}

func (staticAuth) AuthJwt(ctx context.Context, token string) (domain.Actor, error) {
	if token == "good" {
		return domain.Actor{ID: "mod-1", Role: domain.RoleModerator}, nil
	}
	return domain.Actor{}, domain.PermissionError{Reason: "bad token"}
}

func TestIdentifyIdentity(t *testing.T) {
	cases := []struct {
		name   string
		header string
		found  bool
	}{
		{"bearer", "Bearer good", true},
		{"anonymous", "", false},
		{"wrong scheme", "Basic good", false},
		{"malformed", "Bearer", false},
		{"rejected token", "Bearer bad", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Real-IP", "10.0.0.7")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			var (
				actor domain.Actor
				ok    bool
			)
			err := NewAuthMiddleware(staticAuth{}).IdentifyIdentity(func(c echo.Context) error {
				actor, ok = ActorFrom(c.Request().Context())
				return nil
			})(c)

			assert.NoError(t, err)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, "mod-1", actor.ID)
				assert.Equal(t, domain.RoleModerator, actor.Role)
				assert.Equal(t, "10.0.0.7", actor.Origin)
			}
		})
	}
}
