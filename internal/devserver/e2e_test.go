package devserver

import (
	"bytes"
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/gemora/internal/auth"
	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/gateway"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/session"
)

type clientStack struct {
	server  *Server
	client  *gateway.Client
	store   *session.Store
	auth    *auth.Service
	portal  *portal.Services
	storage *session.MemoryStorage
}

func newClientStack(t *testing.T) *clientStack {
	t.Helper()
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	storage := session.NewMemoryStorage()
	store := session.NewStore(storage, session.WithLogger(log.Discard()))
	client := gateway.New(gateway.Config{BaseURL: ts.URL + "/api"}, store, gateway.WithLogger(log.Discard()))
	return &clientStack{
		server:  s,
		client:  client,
		store:   store,
		auth:    auth.NewService(client, store, auth.WithLogger(log.Discard())),
		portal:  portal.New(client),
		storage: storage,
	}
}

func TestClientLoginAsAdmin(t *testing.T) {
	cs := newClientStack(t)
	_, _, err := cs.server.data.addUser(portal.User{Name: "A", Email: "a@b.com", Role: roleAdmin}, "secret1")
	require.NoError(t, err)

	res, err := cs.auth.Login(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, res.Role)
	assert.Equal(t, res.Token, cs.auth.Token())
	assert.True(t, cs.auth.IsAdmin())

	users, err := cs.portal.Users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestClientWrongPasswordSurfacesBackendMessage(t *testing.T) {
	cs := newClientStack(t)

	_, err := cs.auth.Login(context.Background(), SeedAdminEmail, "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.False(t, cs.auth.IsAuthenticated())
}

func TestClientRevokedSessionIsInvalidated(t *testing.T) {
	cs := newClientStack(t)
	ctx := context.Background()

	_, err := cs.auth.Login(ctx, SeedAdminEmail, SeedAdminPassword)
	require.NoError(t, err)
	_, cached := cs.store.CachedProfile()
	require.True(t, cached)

	var events atomic.Int32
	cs.client.OnInvalidated(func(inv gateway.Invalidation) {
		assert.Equal(t, "/admin/users", inv.Path)
		events.Add(1)
	})

	id, ok := cs.server.UserID(SeedAdminEmail)
	require.True(t, ok)
	cs.server.Revoke(id)

	_, err = cs.portal.Users.List(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthSessionInvalidated, errors.CodeOf(err))
	assert.Equal(t, int32(1), events.Load())
	assert.False(t, cs.auth.IsAuthenticated())
	assert.Empty(t, cs.auth.Role())
	_, cached = cs.store.CachedProfile()
	assert.False(t, cached)
}

func TestClientUserForbiddenOnAdminRoutes(t *testing.T) {
	cs := newClientStack(t)
	ctx := context.Background()

	_, err := cs.auth.Login(ctx, SeedUserEmail, SeedUserPassword)
	require.NoError(t, err)
	assert.True(t, cs.auth.IsUser())

	_, err = cs.portal.Gems.Pending(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthForbidden, errors.CodeOf(err))
	assert.True(t, cs.auth.IsAuthenticated(), "a 403 keeps the session")
}

func TestClientRegisterSignsIn(t *testing.T) {
	cs := newClientStack(t)
	ctx := context.Background()

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	res, err := cs.auth.Register(ctx, &auth.RegisterForm{
		Name:            "Kamal Silva",
		Email:           "kamal@example.lk",
		ContactNumber:   "0712345678",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		IDFrontImage:    &auth.Image{FileName: "front.png", ContentType: "image/png", Data: png},
		SelfieImage:     &auth.Image{FileName: "me.png", ContentType: "image/png", Data: png},
	})
	require.NoError(t, err)
	assert.Equal(t, session.RoleUser, res.Role)

	me, err := cs.portal.Profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kamal@example.lk", me.Email)
	assert.NotEmpty(t, me.IDFrontImageURL)
	assert.NotEmpty(t, me.SelfieImageURL)
	assert.Empty(t, me.IDBackImageURL)

	require.NoError(t, cs.auth.Logout())
	_, err = cs.auth.Register(ctx, &auth.RegisterForm{
		Name:            "Kamal Again",
		Email:           "kamal@example.lk",
		ContactNumber:   "0712345678",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, "Email is already registered", err.Error())
}

func TestClientProfileFlow(t *testing.T) {
	cs := newClientStack(t)
	ctx := context.Background()

	_, err := cs.auth.Login(ctx, SeedUserEmail, SeedUserPassword)
	require.NoError(t, err)

	updated, err := cs.portal.Profile.Update(ctx, portal.ProfileUpdate{Name: "Nimal P."})
	require.NoError(t, err)
	assert.Equal(t, "Nimal P.", updated.Name)
	assert.Equal(t, "0771234567", updated.ContactNumber)

	var last atomic.Int64
	avatar, err := cs.portal.Profile.UploadAvatar(ctx, "me.jpg", "image/jpeg",
		bytes.NewReader(bytes.Repeat([]byte{0xff}, 4096)), func(done, total int64) { last.Store(done) })
	require.NoError(t, err)
	assert.Contains(t, avatar.AvatarURL, ".jpg")
	assert.Positive(t, last.Load())

	err = cs.portal.Profile.ChangePassword(ctx, "bad", "secret9")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", err.Error())

	require.NoError(t, cs.portal.Profile.ChangePassword(ctx, SeedUserPassword, "secret9"))

	_, err = cs.portal.Profile.Get(ctx)
	assert.Equal(t, errors.ErrCodeAuthSessionInvalidated, errors.CodeOf(err))
	assert.False(t, cs.auth.IsAuthenticated())
}

func TestClientAdminModeration(t *testing.T) {
	cs := newClientStack(t)
	ctx := context.Background()

	_, err := cs.auth.Login(ctx, SeedAdminEmail, SeedAdminPassword)
	require.NoError(t, err)

	pending, err := cs.portal.Gems.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.True(t, pending[0].Verified())

	approved, err := cs.portal.Gems.Approve(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, portal.GemApproved, approved.Status)

	rejected, err := cs.portal.Gems.Reject(ctx, pending[1].ID, "Missing certificate")
	require.NoError(t, err)
	assert.Equal(t, "Missing certificate", rejected.RejectionReason)

	_, err = cs.portal.Gems.Approve(ctx, pending[1].ID)
	require.Error(t, err)
	assert.Equal(t, "Gem is not pending review", err.Error())

	tickets, err := cs.portal.Tickets.List(ctx)
	require.NoError(t, err)
	reply, err := cs.portal.Tickets.Reply(ctx, tickets[0].ID, portal.TicketReply{AdminReply: "Fixed"})
	require.NoError(t, err)
	assert.Equal(t, portal.TicketInProgress, reply.Status)

	found, err := cs.portal.Users.Search(ctx, "gemora.lk")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, cs.portal.Gems.Delete(ctx, pending[1].ID))
	err = cs.portal.Gems.Delete(ctx, pending[1].ID)
	assert.Equal(t, errors.ErrCodeHTTPNotFound, errors.CodeOf(err))
}
