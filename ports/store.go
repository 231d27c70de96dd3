package ports

import (
	"context"

	"github.com/solrisk/mwabridge/core"
)

// SessionStore persists the wallet session across process runs.
type SessionStore interface {
	// Load reads the persisted session. found is false when none exists.
	Load(ctx context.Context) (session core.WalletSession, found bool, err error)

	// Save replaces the persisted session wholesale.
	Save(ctx context.Context, session core.WalletSession) error

	// Delete removes the persisted session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context) error
}
