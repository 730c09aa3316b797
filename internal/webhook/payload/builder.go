package payload

import (
	"context"
	"encoding/json"

	"github.com/flexprice/ledger/internal/api/dto"
)

// PayloadBuilder interface for building event-specific payloads
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventType string, snapshot *dto.EventSnapshot) (json.RawMessage, error)
}
