package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/portal"
	"github.com/felixgeelhaar/gemora/internal/shell"
	"github.com/felixgeelhaar/gemora/internal/tui"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Answer support tickets (admin)",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List support tickets",
	Args:  cobra.NoArgs,
	RunE:  runTicketsList,
}

var ticketsReplyCmd = &cobra.Command{
	Use:   "reply <id>",
	Short: "Reply to a ticket and set its status",
	Long: `Reply to a ticket. Without --status you are asked for one on a terminal;
otherwise the status defaults to IN_PROGRESS.

Valid statuses: ` + strings.Join(portal.TicketStatuses(), ", ") + `

Example:
  gemora tickets reply 7 --message "Refund issued" --status RESOLVED`,
	Args: cobra.ExactArgs(1),
	RunE: runTicketsReply,
}

var ticketReply portal.TicketReply

func init() {
	ticketsReplyCmd.Flags().StringVarP(&ticketReply.AdminReply, "message", "m", "", "reply text")
	ticketsReplyCmd.Flags().StringVar(&ticketReply.Status, "status", "", "new status (default IN_PROGRESS)")

	ticketsCmd.AddCommand(ticketsListCmd)
	ticketsCmd.AddCommand(ticketsReplyCmd)
	rootCmd.AddCommand(ticketsCmd)
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminTickets); err != nil {
		return err
	}
	tickets, err := e.portal.Tickets.List(cmd.Context())
	if err != nil {
		return e.failed(err)
	}
	return e.emit(tickets, ticketTable(tickets))
}

func runTicketsReply(cmd *cobra.Command, args []string) error {
	ticketID, err := parseID("ticket", args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(ticketReply.AdminReply) == "" {
		return errors.New(errors.ErrCodeValidationRequired, "reply message is required").
			WithSuggestion("Pass --message")
	}
	reply := ticketReply
	if reply.Status == "" && tui.ShouldPrompt() {
		if reply.Status, err = tui.Choose("New status", portal.TicketStatuses()); err != nil {
			return err
		}
	}
	reply.Status = strings.ToUpper(reply.Status)

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.guard(shell.PathAdminTickets); err != nil {
		return err
	}
	ticket, err := e.portal.Tickets.Reply(cmd.Context(), ticketID, reply)
	if err != nil {
		return e.failed(err)
	}
	e.status("✓ Replied to ticket %d (%s)", ticket.ID, ticket.Status)
	return e.emit(ticket, ticketTable([]portal.Ticket{*ticket}))
}
