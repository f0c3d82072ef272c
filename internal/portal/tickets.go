package portal

import (
	"context"
	"slices"

	"github.com/felixgeelhaar/gemora/internal/gateway"
)

// Tickets is the support desk API.
type Tickets struct {
	client *gateway.Client
}

// List returns every ticket.
func (t *Tickets) List(ctx context.Context) ([]Ticket, error) {
	resp, err := t.client.Get(ctx, "/tickets/admin", nil)
	return fetch[[]Ticket]("tickets.list", resp, err, MsgFetchTickets)
}

// Reply answers a ticket and moves it to reply.Status. An empty status
// defaults to IN_PROGRESS.
func (t *Tickets) Reply(ctx context.Context, ticketID int64, reply TicketReply) (*Ticket, error) {
	if reply.Status == "" {
		reply.Status = TicketInProgress
	}
	if !slices.Contains(TicketStatuses(), reply.Status) {
		return nil, &Error{Op: "tickets.reply", Message: MsgInvalidTicketArg + ": " + reply.Status}
	}
	resp, err := t.client.Put(ctx, "/tickets/admin/"+id(ticketID)+"/reply", reply, nil)
	return fetch[*Ticket]("tickets.reply", resp, err, MsgSendReply)
}
