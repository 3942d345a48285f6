package ports

import (
	"context"

	"github.com/aretw0/guiapi/pkg/page"
)

// PageStore persists page sessions between CLI invocations or server requests.
type PageStore interface {
	// Save persists the snapshot under its page id.
	Save(ctx context.Context, pageID string, snapshot *page.Snapshot) error

	// Load retrieves a snapshot.
	// Returns domain.ErrPageNotFound if the page does not exist.
	Load(ctx context.Context, pageID string) (*page.Snapshot, error)

	// Delete removes a page. Deleting a missing page is not an error.
	Delete(ctx context.Context, pageID string) error

	// List returns the ids of stored pages.
	List(ctx context.Context) ([]string, error)
}
