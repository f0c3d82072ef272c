package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/gemora/internal/session"
)

func TestResolve(t *testing.T) {
	anon := Identity{}
	admin := Identity{Role: session.RoleAdmin}
	user := Identity{Role: session.RoleUser}

	tests := []struct {
		name    string
		path    string
		id      Identity
		want    string
		outcome Outcome
	}{
		{"anon login", "/login", anon, PathLogin, Allowed},
		{"anon register", "/register", anon, PathRegister, Allowed},
		{"anon root", "/", anon, PathLogin, Unknown},
		{"anon unknown", "/nowhere", anon, PathLogin, Unknown},
		{"anon admin page", "/admin/users", anon, PathLogin, Unauthenticated},
		{"anon admin alias", "/admin", anon, PathLogin, Unauthenticated},
		{"anon user page", "/user/profile", anon, PathLogin, Unauthenticated},

		{"admin on login", "/login", admin, PathAdminDashboard, AlreadySignedIn},
		{"admin on register", "/register", admin, PathAdminDashboard, AlreadySignedIn},
		{"admin alias", "/admin", admin, PathAdminDashboard, Canonical},
		{"admin page", "/admin/listed-gems", admin, PathAdminListedGems, Allowed},
		{"admin on user tree", "/user/profile", admin, PathAdminDashboard, Forbidden},
		{"admin on user alias", "/user", admin, PathAdminDashboard, Forbidden},
		{"admin unknown", "/admin/nowhere", admin, PathAdminDashboard, Unknown},

		{"user on login", "/login", user, PathUserDashboard, AlreadySignedIn},
		{"user alias", "/user", user, PathUserDashboard, Canonical},
		{"user page", "/user/settings", user, PathUserSettings, Allowed},
		{"user on admin tree", "/admin/tickets", user, PathUserDashboard, Forbidden},
		{"user root", "/", user, PathUserDashboard, Unknown},

		{"trailing slash", "/admin/users/", admin, PathAdminUsers, Allowed},
		{"missing slash", "admin/gems", admin, PathAdminGems, Allowed},
		{"empty", "", anon, PathLogin, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := Resolve(tt.path, tt.id)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestHome(t *testing.T) {
	assert.Equal(t, PathAdminDashboard, Home(session.RoleAdmin))
	assert.Equal(t, PathUserDashboard, Home(session.RoleUser))
	assert.Equal(t, PathLogin, Home(""))
}

func TestIdentityOf(t *testing.T) {
	assert.Equal(t, Identity{Role: session.RoleAdmin}, IdentityOf(session.Session{Token: "t", Role: session.RoleAdmin}))
	assert.False(t, IdentityOf(session.Session{Token: "t"}).Authenticated())
	assert.False(t, IdentityOf(session.Session{Role: session.RoleUser}).Authenticated())
}
