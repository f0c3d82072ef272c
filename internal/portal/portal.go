// Package portal wraps the administrator and user endpoints of the Gemora
// backend. Every call goes through the shared gateway client, so a 401 from
// any of them signs the user out.
package portal

import (
	"context"
	"strconv"

	"github.com/felixgeelhaar/gemora/internal/gateway"
)

// Services bundles the feature services over one client.
type Services struct {
	Users   *Users
	Gems    *Gems
	Tickets *Tickets
	Profile *Profile
}

// New creates all feature services.
func New(client *gateway.Client) *Services {
	return &Services{
		Users:   &Users{client: client},
		Gems:    &Gems{client: client},
		Tickets: &Tickets{client: client},
		Profile: &Profile{client: client},
	}
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// fetch decodes a successful response into a new T.
func fetch[T any](op string, resp *gateway.Response, err error, fallback string) (T, error) {
	var out T
	if err != nil {
		return out, failure(op, err, fallback)
	}
	if err := resp.Decode(&out); err != nil {
		return out, &Error{Op: op, Message: fallback, Cause: err}
	}
	return out, nil
}

// Users is the administrator user management API.
type Users struct {
	client *gateway.Client
}

// List returns every registered user.
func (u *Users) List(ctx context.Context) ([]User, error) {
	resp, err := u.client.Get(ctx, "/admin/users", nil)
	return fetch[[]User]("users.list", resp, err, MsgFetchUsers)
}

// Get returns one user including identity document URLs.
func (u *Users) Get(ctx context.Context, userID int64) (*User, error) {
	resp, err := u.client.Get(ctx, "/admin/users/"+id(userID), nil)
	return fetch[*User]("users.get", resp, err, MsgFetchUser)
}

// Update changes a user's name or contact number.
func (u *Users) Update(ctx context.Context, userID int64, upd UserUpdate) (*User, error) {
	resp, err := u.client.Put(ctx, "/admin/users/"+id(userID), upd, nil)
	return fetch[*User]("users.update", resp, err, MsgUpdateUser)
}

// Delete removes a user.
func (u *Users) Delete(ctx context.Context, userID int64) error {
	if _, err := u.client.Delete(ctx, "/admin/users/"+id(userID), nil); err != nil {
		return failure("users.delete", err, MsgDeleteUser)
	}
	return nil
}

// Search finds users by name or email.
func (u *Users) Search(ctx context.Context, query string) ([]User, error) {
	resp, err := u.client.Get(ctx, "/users/search", &gateway.RequestOptions{
		Query: map[string][]string{"q": {query}},
	})
	return fetch[[]User]("users.search", resp, err, MsgSearchUsers)
}
