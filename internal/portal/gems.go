package portal

import (
	"context"
	"net/url"

	"github.com/felixgeelhaar/gemora/internal/gateway"
)

// Gems is the listing moderation API.
type Gems struct {
	client *gateway.Client
}

// Pending returns listings waiting for review.
func (g *Gems) Pending(ctx context.Context) ([]Gem, error) {
	resp, err := g.client.Get(ctx, "/admin/gems/pending", nil)
	return fetch[[]Gem]("gems.pending", resp, err, MsgFetchPending)
}

// Approved returns the live listings.
func (g *Gems) Approved(ctx context.Context) ([]Gem, error) {
	resp, err := g.client.Get(ctx, "/admin/gems/approved", nil)
	return fetch[[]Gem]("gems.approved", resp, err, MsgFetchApproved)
}

// Approve publishes a pending listing.
func (g *Gems) Approve(ctx context.Context, gemID int64) (*Gem, error) {
	resp, err := g.client.Put(ctx, "/admin/gems/"+id(gemID)+"/approve", nil, nil)
	return fetch[*Gem]("gems.approve", resp, err, MsgApproveGem)
}

// Reject declines a pending listing. The reason travels as a query parameter.
func (g *Gems) Reject(ctx context.Context, gemID int64, reason string) (*Gem, error) {
	var opts *gateway.RequestOptions
	if reason != "" {
		opts = &gateway.RequestOptions{Query: url.Values{"reason": {reason}}}
	}
	resp, err := g.client.Put(ctx, "/admin/gems/"+id(gemID)+"/reject", nil, opts)
	return fetch[*Gem]("gems.reject", resp, err, MsgRejectGem)
}

// Delete removes a listing.
func (g *Gems) Delete(ctx context.Context, gemID int64) error {
	if _, err := g.client.Delete(ctx, "/admin/gems/"+id(gemID), nil); err != nil {
		return failure("gems.delete", err, MsgDeleteGem)
	}
	return nil
}
