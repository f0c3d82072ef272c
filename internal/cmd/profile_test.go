package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/gemora/internal/devserver"
	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/portal"
)

func userCLI(t *testing.T) *cli {
	c := newCLI(t)
	c.login(devserver.SeedUserEmail, devserver.SeedUserPassword)
	return c
}

func TestProfileShow(t *testing.T) {
	c := userCLI(t)

	me := decode[portal.User](t, c.run("profile", "show", "-f", "json"))
	assert.Equal(t, devserver.SeedUserEmail, me.Email)
	assert.Equal(t, "Nimal Perera", me.Name)

	cached := decode[portal.User](t, c.run("profile", "show", "--cached", "-f", "json"))
	assert.Equal(t, me.ID, cached.ID)

	text := c.run("profile", "show")
	require.NoError(t, text.err)
	assert.Contains(t, text.stdout, "0771234567")
}

func TestProfileShow_AdminUsesSettingsPage(t *testing.T) {
	c := adminCLI(t)

	me := decode[portal.User](t, c.run("profile", "show", "-f", "json"))
	assert.Equal(t, devserver.SeedAdminEmail, me.Email)
}

func TestProfileUpdate(t *testing.T) {
	c := userCLI(t)

	updated := decode[portal.User](t, c.run("profile", "update", "--name", "Nimal P.", "-f", "json"))
	assert.Equal(t, "Nimal P.", updated.Name)
	assert.Equal(t, "0771234567", updated.ContactNumber)

	none := c.run("profile", "update")
	require.Error(t, none.err)
	assert.Equal(t, errors.ErrCodeValidationRequired, errors.CodeOf(none.err))
}

func TestProfileAvatar(t *testing.T) {
	c := userCLI(t)

	path := filepath.Join(t.TempDir(), "me.png")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 2048)...)
	require.NoError(t, os.WriteFile(path, png, 0o600))

	res := c.run("profile", "avatar", path, "-f", "json")
	user := decode[portal.User](t, res)
	assert.Contains(t, user.AvatarURL, "/uploads/avatars/")
	assert.Contains(t, user.AvatarURL, ".png")
	assert.Contains(t, res.stderr, "100%")
	assert.Contains(t, res.stderr, "Avatar updated")

	quiet := c.run("profile", "avatar", path, "-q", "-f", "json")
	require.NoError(t, quiet.err)
	assert.NotContains(t, quiet.stderr, "Uploading")

	text := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o600))
	bad := c.run("profile", "avatar", text)
	require.Error(t, bad.err)
	assert.Equal(t, errors.ErrCodeValidationFileType, errors.CodeOf(bad.err))

	big := filepath.Join(t.TempDir(), "big.png")
	require.NoError(t, os.WriteFile(big, append(png, make([]byte, 5<<20)...), 0o600))
	tooBig := c.run("profile", "avatar", big)
	require.Error(t, tooBig.err)
	assert.Equal(t, "File size must be less than 5MB", tooBig.err.Error())
}

func TestProfilePassword(t *testing.T) {
	c := userCLI(t)

	short := c.run("profile", "password", "--current", devserver.SeedUserPassword, "--new", "abc")
	require.Error(t, short.err)
	assert.Equal(t, errors.ErrCodeValidationPassword, errors.CodeOf(short.err))

	wrong := c.run("profile", "password", "--current", "not-it", "--new", "newpass1")
	require.Error(t, wrong.err)
	assert.Equal(t, "Current password is incorrect", wrong.err.Error())

	missing := c.run("profile", "password", "--new", "newpass1")
	require.Error(t, missing.err)
	assert.Equal(t, errors.ErrCodeValidationRequired, errors.CodeOf(missing.err))

	ok := c.run("profile", "password", "--current", devserver.SeedUserPassword, "--new", "newpass1")
	require.NoError(t, ok.err, ok.stderr)
	assert.Contains(t, ok.stderr, "Password changed")

	// Existing tokens are revoked by the password change.
	after := c.run("profile", "show")
	require.Error(t, after.err)
	assert.Equal(t, errors.ErrCodeAuthSessionInvalidated, errors.CodeOf(after.err))

	c.login(devserver.SeedUserEmail, "newpass1")
}

func TestProfile_RequiresLogin(t *testing.T) {
	c := newCLI(t)

	res := c.run("profile", "show")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeAuthNotAuthenticated, errors.CodeOf(res.err))
}
