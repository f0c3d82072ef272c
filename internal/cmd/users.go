package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/shell"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage portal users (admin)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a user with identity documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersGet,
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a user's name or contact number",
	Long: `Change a user's name or contact number. Fields without a flag are left as is.

Example:
  gemora users update 2 --contact 0779876543`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersUpdate,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

var usersSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find users by name or email",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUsersSearch,
}

var (
	userUpdate portal.UserUpdate
	userYes    bool
)

func init() {
	usersUpdateCmd.Flags().StringVar(&userUpdate.Name, "name", "", "new name")
	usersUpdateCmd.Flags().StringVar(&userUpdate.ContactNumber, "contact", "", "new contact number")
	usersDeleteCmd.Flags().BoolVarP(&userYes, "yes", "y", false, "do not ask for confirmation")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersGetCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersSearchCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminUsers); err != nil {
		return err
	}
	users, err := e.portal.Users.List(cmd.Context())
	if err != nil {
		return e.failed(err)
	}
	return e.emit(users, userTable(users))
}

func runUsersGet(cmd *cobra.Command, args []string) error {
	userID, err := parseID("user", args[0])
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminUsers); err != nil {
		return err
	}
	user, err := e.portal.Users.Get(cmd.Context(), userID)
	if err != nil {
		return e.failed(err)
	}
	return e.emit(user, userDetail(user))
}

func runUsersUpdate(cmd *cobra.Command, args []string) error {
	userID, err := parseID("user", args[0])
	if err != nil {
		return err
	}
	if userUpdate.Name == "" && userUpdate.ContactNumber == "" {
		return errors.New(errors.ErrCodeValidationRequired, "nothing to update").
			WithSuggestion("Pass --name or --contact")
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminUsers); err != nil {
		return err
	}
	user, err := e.portal.Users.Update(cmd.Context(), userID, userUpdate)
	if err != nil {
		return e.failed(err)
	}
	e.status("✓ User %d updated", user.ID)
	return e.emit(user, userDetail(user))
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	userID, err := parseID("user", args[0])
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminUsers); err != nil {
		return err
	}
	if err := e.confirm(userYes, fmt.Sprintf("Delete user %d?", userID)); err != nil {
		return err
	}
	if err := e.portal.Users.Delete(cmd.Context(), userID); err != nil {
		return e.failed(err)
	}
	e.status("✓ User %d deleted", userID)
	return nil
}

func runUsersSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New(errors.ErrCodeValidationRequired, "search query is empty")
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminUsers); err != nil {
		return err
	}
	users, err := e.portal.Users.Search(cmd.Context(), query)
	if err != nil {
		return e.failed(err)
	}
	return e.emit(users, userTable(users))
}
