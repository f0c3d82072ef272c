package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/shell"
)

var gemsCmd = &cobra.Command{
	Use:   "gems",
	Short: "Moderate gem listings (admin)",
	Long: `Review pending gem listings and manage the approved ones.

Examples:
  gemora gems pending
  gemora gems approve 3
  gemora gems reject 4 --reason "Certificate could not be verified"
  gemora gems approved --format json`,
}

var gemsPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List listings waiting for review",
	Args:  cobra.NoArgs,
	RunE:  runGemsPending,
}

var gemsApprovedCmd = &cobra.Command{
	Use:     "approved",
	Aliases: []string{"listed"},
	Short:   "List live listings",
	Args:    cobra.NoArgs,
	RunE:    runGemsApproved,
}

var gemsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Publish a pending listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runGemsApprove,
}

var gemsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Decline a pending listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runGemsReject,
}

var gemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runGemsDelete,
}

var (
	rejectReason string
	gemYes       bool
)

func init() {
	gemsRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "reason shown to the seller")
	gemsDeleteCmd.Flags().BoolVarP(&gemYes, "yes", "y", false, "do not ask for confirmation")

	gemsCmd.AddCommand(gemsPendingCmd)
	gemsCmd.AddCommand(gemsApprovedCmd)
	gemsCmd.AddCommand(gemsApproveCmd)
	gemsCmd.AddCommand(gemsRejectCmd)
	gemsCmd.AddCommand(gemsDeleteCmd)
	rootCmd.AddCommand(gemsCmd)
}

func runGemsPending(cmd *cobra.Command, args []string) error {
	return listGems(cmd, shell.PathAdminGems, "No gems waiting for review.", func(e *env) ([]portal.Gem, error) {
		return e.portal.Gems.Pending(cmd.Context())
	})
}

func runGemsApproved(cmd *cobra.Command, args []string) error {
	return listGems(cmd, shell.PathAdminListedGems, "No approved gems.", func(e *env) ([]portal.Gem, error) {
		return e.portal.Gems.Approved(cmd.Context())
	})
}

func listGems(cmd *cobra.Command, page, empty string, list func(*env) ([]portal.Gem, error)) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(page); err != nil {
		return err
	}
	gems, err := list(e)
	if err != nil {
		return e.failed(err)
	}
	return e.emit(gems, gemTable(gems, empty))
}

func runGemsApprove(cmd *cobra.Command, args []string) error {
	return moderateGem(cmd, args[0], "approved", func(e *env, gemID int64) (*portal.Gem, error) {
		return e.portal.Gems.Approve(cmd.Context(), gemID)
	})
}

func runGemsReject(cmd *cobra.Command, args []string) error {
	return moderateGem(cmd, args[0], "rejected", func(e *env, gemID int64) (*portal.Gem, error) {
		return e.portal.Gems.Reject(cmd.Context(), gemID, rejectReason)
	})
}

func moderateGem(cmd *cobra.Command, arg, verb string, apply func(*env, int64) (*portal.Gem, error)) error {
	gemID, err := parseID("gem", arg)
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminGems); err != nil {
		return err
	}
	gem, err := apply(e, gemID)
	if err != nil {
		return e.failed(err)
	}
	e.status("✓ Gem %d %s", gemID, verb)
	return e.emit(gem, gemTable([]portal.Gem{*gem}, ""))
}

func runGemsDelete(cmd *cobra.Command, args []string) error {
	gemID, err := parseID("gem", args[0])
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminListedGems); err != nil {
		return err
	}
	if err := e.confirm(gemYes, fmt.Sprintf("Delete gem %d?", gemID)); err != nil {
		return err
	}
	if err := e.portal.Gems.Delete(cmd.Context(), gemID); err != nil {
		return e.failed(err)
	}
	e.status("✓ Gem %d deleted", gemID)
	return nil
}
