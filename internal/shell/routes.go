package shell

import (
	"strings"

	"github.com/felixgeelhaar/gemora/internal/session"
)

// Route paths of the portal.
const (
	PathLogin    = "/login"
	PathRegister = "/register"

	PathAdmin           = "/admin"
	PathAdminDashboard  = "/admin/dashboard"
	PathAdminUsers      = "/admin/users"
	PathAdminGems       = "/admin/gems"
	PathAdminListedGems = "/admin/listed-gems"
	PathAdminTickets    = "/admin/tickets"
	PathAdminSettings   = "/admin/settings"

	PathUser          = "/user"
	PathUserDashboard = "/user/dashboard"
	PathUserProfile   = "/user/profile"
	PathUserSettings  = "/user/settings"
)

var (
	publicRoutes = []string{PathLogin, PathRegister}
	adminRoutes  = []string{
		PathAdminDashboard, PathAdminUsers, PathAdminGems,
		PathAdminListedGems, PathAdminTickets, PathAdminSettings,
	}
	userRoutes = []string{PathUserDashboard, PathUserProfile, PathUserSettings}
)

// Identity is who the shell believes is signed in.
type Identity struct {
	Role session.Role
}

// Authenticated reports whether a role is held.
func (i Identity) Authenticated() bool {
	return i.Role != ""
}

// IdentityOf derives the identity from a session. A half session has none.
func IdentityOf(s session.Session) Identity {
	if !s.Valid() {
		return Identity{}
	}
	return Identity{Role: s.Role}
}

// Home returns the landing path for role.
func Home(role session.Role) string {
	switch role {
	case session.RoleAdmin:
		return PathAdminDashboard
	case session.RoleUser:
		return PathUserDashboard
	default:
		return PathLogin
	}
}

// Outcome says why Resolve produced its target.
type Outcome int

const (
	// Allowed means the path is rendered as asked.
	Allowed Outcome = iota
	// Canonical means the path was an alias such as "/admin".
	Canonical
	// Unauthenticated means a private path was asked for without a session.
	Unauthenticated
	// Forbidden means the path belongs to another role's tree.
	Forbidden
	// AlreadySignedIn means a public path was asked for with a session.
	AlreadySignedIn
	// Unknown means the path is not in the route tree.
	Unknown
)

// Resolve maps a requested path to the path the shell renders for id.
func Resolve(path string, id Identity) (string, Outcome) {
	path = normalize(path)

	switch path {
	case PathAdmin:
		if target, outcome := Resolve(PathAdminDashboard, id); outcome != Allowed {
			return target, outcome
		}
		return PathAdminDashboard, Canonical
	case PathUser:
		if target, outcome := Resolve(PathUserDashboard, id); outcome != Allowed {
			return target, outcome
		}
		return PathUserDashboard, Canonical
	}

	var owner session.Role
	switch {
	case contains(publicRoutes, path):
		if id.Authenticated() {
			return Home(id.Role), AlreadySignedIn
		}
		return path, Allowed
	case contains(adminRoutes, path):
		owner = session.RoleAdmin
	case contains(userRoutes, path):
		owner = session.RoleUser
	default:
		if id.Authenticated() {
			return Home(id.Role), Unknown
		}
		return PathLogin, Unknown
	}

	if !id.Authenticated() {
		return PathLogin, Unauthenticated
	}
	if id.Role != owner {
		return Home(id.Role), Forbidden
	}
	return path, Allowed
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
