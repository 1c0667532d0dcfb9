// README: Notifier port. Delivery is fire-and-forget; failures are logged by callers.
package notify

import (
	"context"

	"fleetdispatch/internal/types"
)

const (
	TargetAdmin    = "admin"
	TargetDriver   = "driver"
	TargetCustomer = "customer"
)

type Notification struct {
	TargetType string            `json:"target_type"`
	TargetID   types.ID          `json:"target_id"`
	Message    string            `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
