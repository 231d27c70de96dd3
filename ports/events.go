package ports

import (
	"context"

	"github.com/solrisk/mwabridge/core"
)

// SessionEvents broadcasts session transitions so collaborators (route
// guards, the chat identity layer) can react without polling. A cleared
// session is broadcast with an empty address.
type SessionEvents interface {
	PublishSessionChanged(ctx context.Context, session core.WalletSession) error
}
