package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/gateway"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/session"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

func newServices(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Services, *session.Store, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(b))
		calls = append(calls, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(b)})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store := session.NewStore(session.NewMemoryStorage(), session.WithLogger(log.Discard()))
	require.NoError(t, store.Set(session.Session{Token: "tok", Role: session.RoleAdmin}))
	client := gateway.New(gateway.Config{BaseURL: srv.URL + "/api"}, store, gateway.WithLogger(log.Discard()))
	return New(client), store, &calls
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestUsers(t *testing.T) {
	svc, _, calls := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users":
			reply(w, http.StatusOK, []User{{ID: 1, Name: "A", Email: "a@b.com", Role: "ADMIN"}, {ID: 2, Name: "U", Role: "USER"}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/users/2":
			reply(w, http.StatusOK, User{ID: 2, Name: "U", Role: "USER", IDFrontImageURL: "/f.png"})
		case r.Method == http.MethodPut && r.URL.Path == "/api/admin/users/2":
			var upd UserUpdate
			_ = json.NewDecoder(r.Body).Decode(&upd)
			reply(w, http.StatusOK, User{ID: 2, Name: upd.Name, ContactNumber: upd.ContactNumber, Role: "USER"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/admin/users/2":
			reply(w, http.StatusOK, map[string]string{"message": "deleted"})
		case r.URL.Path == "/api/users/search":
			reply(w, http.StatusOK, []User{{ID: 2, Name: r.URL.Query().Get("q")}})
		default:
			reply(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		}
	})
	ctx := context.Background()

	users, err := svc.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	u, err := svc.Users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "/f.png", u.IDFrontImageURL)

	u, err = svc.Users.Update(ctx, 2, UserUpdate{Name: "New", ContactNumber: "0771234567"})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.JSONEq(t, `{"name":"New","contactNumber":"0771234567"}`, (*calls)[2].body)

	require.NoError(t, svc.Users.Delete(ctx, 2))

	found, err := svc.Users.Search(ctx, "nimal perera")
	require.NoError(t, err)
	assert.Equal(t, "nimal perera", found[0].Name)
	assert.Equal(t, "q=nimal+perera", (*calls)[4].query)

	_, err = svc.Users.Get(ctx, 99)
	require.Error(t, err)
	assert.Equal(t, "User not found", err.Error())
	assert.Equal(t, errors.ErrCodeHTTPNotFound, errors.CodeOf(err))
}

func TestGems(t *testing.T) {
	svc, _, calls := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/gems/pending":
			reply(w, http.StatusOK, []Gem{{ID: 7, Name: "Blue Sapphire", Status: GemPending}})
		case "/api/admin/gems/approved":
			reply(w, http.StatusOK, []Gem{{ID: 8, Name: "Ruby", Status: GemApproved, Certificates: []Certificate{{ID: 1, Verified: true}}}})
		case "/api/admin/gems/7/approve":
			reply(w, http.StatusOK, Gem{ID: 7, Status: GemApproved})
		case "/api/admin/gems/7/reject":
			reply(w, http.StatusOK, Gem{ID: 7, Status: GemRejected, RejectionReason: r.URL.Query().Get("reason")})
		case "/api/admin/gems/8":
			w.WriteHeader(http.StatusNoContent)
		default:
			reply(w, http.StatusInternalServerError, nil)
		}
	})
	ctx := context.Background()

	pending, err := svc.Gems.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Blue Sapphire", pending[0].Name)

	approved, err := svc.Gems.Approved(ctx)
	require.NoError(t, err)
	assert.True(t, approved[0].Verified())

	g, err := svc.Gems.Approve(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, GemApproved, g.Status)
	assert.Equal(t, `{}`, (*calls)[2].body)
	assert.Equal(t, http.MethodPut, (*calls)[2].method)

	g, err = svc.Gems.Reject(ctx, 7, "synthetic stone")
	require.NoError(t, err)
	assert.Equal(t, "synthetic stone", g.RejectionReason)

	require.NoError(t, svc.Gems.Delete(ctx, 8))

	err = svc.Gems.Delete(ctx, 9)
	require.Error(t, err)
	assert.Equal(t, MsgDeleteGem, err.Error())

	_, err = svc.Gems.Approve(ctx, 9)
	assert.EqualError(t, err, MsgApproveGem)
}

func TestTickets(t *testing.T) {
	svc, _, calls := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tickets/admin":
			reply(w, http.StatusOK, []Ticket{{ID: 3, Title: "Payment", Status: TicketOpen, Priority: "HIGH"}})
		case "/api/tickets/admin/3/reply":
			var rep TicketReply
			_ = json.NewDecoder(r.Body).Decode(&rep)
			reply(w, http.StatusOK, Ticket{ID: 3, Status: rep.Status, AdminReply: rep.AdminReply})
		default:
			reply(w, http.StatusBadRequest, map[string]string{})
		}
	})
	ctx := context.Background()

	tickets, err := svc.Tickets.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", tickets[0].Priority)

	tk, err := svc.Tickets.Reply(ctx, 3, TicketReply{AdminReply: "Refunded"})
	require.NoError(t, err)
	assert.Equal(t, TicketInProgress, tk.Status)
	assert.JSONEq(t, `{"adminReply":"Refunded","status":"IN_PROGRESS"}`, (*calls)[1].body)

	n := len(*calls)
	_, err = svc.Tickets.Reply(ctx, 3, TicketReply{AdminReply: "x", Status: "DONE"})
	require.Error(t, err)
	assert.Len(t, *calls, n, "invalid status is rejected locally")

	_, err = svc.Tickets.Reply(ctx, 4, TicketReply{AdminReply: "x"})
	assert.EqualError(t, err, MsgSendReply)
}

func TestProfile(t *testing.T) {
	var avatarType string
	svc, _, calls := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/profile":
			if r.Method == http.MethodPut {
				var upd ProfileUpdate
				_ = json.NewDecoder(r.Body).Decode(&upd)
				reply(w, http.StatusOK, User{ID: 5, Name: upd.Name})
				return
			}
			reply(w, http.StatusOK, User{ID: 5, Name: "Me"})
		case "/api/users/avatar":
			_, fh, err := r.FormFile("avatar")
			if err != nil {
				reply(w, http.StatusBadRequest, map[string]string{"message": "avatar missing"})
				return
			}
			avatarType = fh.Header.Get("Content-Type")
			reply(w, http.StatusOK, User{ID: 5, AvatarURL: "/avatars/" + fh.Filename})
		case "/api/users/change-password":
			var pc PasswordChange
			_ = json.NewDecoder(r.Body).Decode(&pc)
			if pc.CurrentPassword != "old-secret" {
				reply(w, http.StatusBadRequest, map[string]string{"message": "Current password is incorrect"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	me, err := svc.Profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Me", me.Name)

	me, err = svc.Profile.Update(ctx, ProfileUpdate{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", me.Name)

	var sent int64
	me, err = svc.Profile.UploadAvatar(ctx, "me.png", "image/png", bytes.NewReader([]byte("png")), func(done, _ int64) { sent = done })
	require.NoError(t, err)
	assert.Equal(t, "/avatars/me.png", me.AvatarURL)
	assert.Equal(t, "image/png", avatarType)
	assert.Positive(t, sent)

	require.NoError(t, svc.Profile.ChangePassword(ctx, "old-secret", "new-secret"))
	assert.JSONEq(t, `{"currentPassword":"old-secret","newPassword":"new-secret"}`, (*calls)[3].body)

	err = svc.Profile.ChangePassword(ctx, "wrong", "new-secret")
	assert.EqualError(t, err, "Current password is incorrect")
}

func TestUnauthorizedSignsOut(t *testing.T) {
	svc, store, _ := newServices(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	})

	_, err := svc.Users.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Token expired", err.Error())
	assert.Equal(t, errors.ErrCodeAuthSessionInvalidated, errors.CodeOf(err))
	assert.False(t, store.IsAuthenticated())
}

func TestNetworkFailureUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := New(gateway.New(gateway.Config{BaseURL: url}, nil, gateway.WithLogger(log.Discard())))
	_, err := svc.Tickets.List(context.Background())
	assert.EqualError(t, err, MsgFetchTickets)
	assert.Equal(t, errors.ErrCodeNetworkNoResponse, errors.CodeOf(err))
}
