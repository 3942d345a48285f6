package guiapi

import (
	"context"

	"github.com/aretw0/guiapi/pkg/dispatch"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/session"
)

// StoredCall describes one action submitted against a persisted page.
type StoredCall struct {
	PageID   string
	Markup   string // initial markup when the page does not exist yet
	Endpoint string
	Action   string
	Args     any
}

// CallStored loads the page, submits the action, applies the results and
// saves the page again, all while holding the page lock. The page is only
// saved when the submission succeeded.
func CallStored(ctx context.Context, sessions *session.Manager, call StoredCall, opts ...Option) (dispatch.Outcome, *page.Snapshot, error) {
	var (
		out   dispatch.Outcome
		saved *page.Snapshot
	)
	err := sessions.Update(ctx, call.PageID, call.Markup, func(ctx context.Context, current *page.Snapshot) (*page.Snapshot, error) {
		clientOpts := append(append([]Option{}, opts...), WithSnapshot(current))
		client, err := New(call.Endpoint, "", clientOpts...)
		if err != nil {
			return nil, err
		}
		out, err = client.Call(ctx, call.Action, call.Args)
		if err != nil {
			return nil, err
		}
		saved, err = client.Snapshot()
		return saved, err
	})
	return out, saved, err
}
