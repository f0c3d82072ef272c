package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/auth"
	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/session"
	"github.com/felixgeelhaar/gemora/internal/shell"
	"github.com/felixgeelhaar/gemora/internal/tui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and edit your own account",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Long: `Show your profile as the backend returns it. With --cached the profile
stored at login is shown without contacting the backend.`,
	Args: cobra.NoArgs,
	RunE: runProfileShow,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change your name or contact number",
	Args:  cobra.NoArgs,
	RunE:  runProfileUpdate,
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar <image>",
	Short: "Upload a new avatar image",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAvatar,
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	Long: `Change your password. Missing values are prompted for on a terminal.

The backend revokes existing tokens on a password change, so log in again
afterwards.`,
	Args: cobra.NoArgs,
	RunE: runProfilePassword,
}

var (
	profileCached bool
	profileUpdate portal.ProfileUpdate

	currentPassword string
	newPassword     string
)

func init() {
	profileShowCmd.Flags().BoolVar(&profileCached, "cached", false, "show the profile stored at login")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.Name, "name", "", "new name")
	profileUpdateCmd.Flags().StringVar(&profileUpdate.ContactNumber, "contact", "", "new contact number")
	profilePasswordCmd.Flags().StringVar(&currentPassword, "current", "", "current password")
	profilePasswordCmd.Flags().StringVar(&newPassword, "new", "", "new password, at least 6 characters")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileAvatarCmd)
	profileCmd.AddCommand(profilePasswordCmd)
	rootCmd.AddCommand(profileCmd)
}

// profilePage is where the signed-in role edits its own account.
func profilePage(e *env) string {
	if e.store.Role() == session.RoleAdmin {
		return shell.PathAdminSettings
	}
	return shell.PathUserProfile
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(profilePage(e)); err != nil {
		return err
	}

	if profileCached {
		raw, ok := e.store.CachedProfile()
		if !ok {
			return errors.New(errors.ErrCodeStoreRead, "no profile cached for this session").
				WithSuggestion("Run 'gemora profile show' without --cached")
		}
		var user portal.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return errors.Wrap(errors.ErrCodeStoreRead, "cached profile is unreadable", err)
		}
		return e.emit(&user, userDetail(&user))
	}

	user, err := e.portal.Profile.Get(cmd.Context())
	if err != nil {
		return e.failed(err)
	}
	return e.emit(user, userDetail(user))
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	if profileUpdate.Name == "" && profileUpdate.ContactNumber == "" {
		return errors.New(errors.ErrCodeValidationRequired, "nothing to update").
			WithSuggestion("Pass --name or --contact")
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(profilePage(e)); err != nil {
		return err
	}
	user, err := e.portal.Profile.Update(cmd.Context(), profileUpdate)
	if err != nil {
		return e.failed(err)
	}
	e.status("✓ Profile updated")
	return e.emit(user, userDetail(user))
}

func runProfileAvatar(cmd *cobra.Command, args []string) error {
	img, err := auth.LoadImage(args[0])
	if err != nil {
		return err
	}
	if err := auth.ValidateImage("avatar", img); err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(profilePage(e)); err != nil {
		return err
	}

	progress := func(done, total int64) {
		if e.ctx.Quiet || total <= 0 {
			return
		}
		fmt.Fprintf(e.stderr, "\rUploading %s: %3d%%", img.FileName, done*100/total)
		if done >= total {
			fmt.Fprintln(e.stderr)
		}
	}
	user, err := e.portal.Profile.UploadAvatar(cmd.Context(), img.FileName, img.ContentType, bytes.NewReader(img.Data), progress)
	if err != nil {
		return e.failed(err)
	}
	e.status("✓ Avatar updated")
	return e.emit(user, userDetail(user))
}

func runProfilePassword(cmd *cobra.Command, args []string) error {
	current, next := currentPassword, newPassword
	var err error
	if current == "" && tui.ShouldPrompt() {
		if current, err = tui.AskSecret("Current password"); err != nil {
			return err
		}
	}
	if next == "" && tui.ShouldPrompt() {
		if next, err = tui.Ask(tui.Prompt{
			Title:  "New password",
			Secret: true,
			Validate: func(s string) error {
				if len(s) < 6 {
					return fmt.Errorf("Password must be at least 6 characters")
				}
				return nil
			},
		}); err != nil {
			return err
		}
	}
	if current == "" || next == "" {
		return errors.New(errors.ErrCodeValidationRequired, "current and new password are required").
			WithSuggestion("Pass --current and --new")
	}
	if len(next) < 6 {
		return errors.New(errors.ErrCodeValidationPassword, "Password must be at least 6 characters")
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(profilePage(e)); err != nil {
		return err
	}
	if err := e.portal.Profile.ChangePassword(cmd.Context(), current, next); err != nil {
		return e.failed(err)
	}
	e.status("✓ Password changed")
	return nil
}
