// README: Log-only notifier used when no broker is configured.
package notify

import (
	"context"
	"log"
)

type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	log.Printf("notify target=%s:%s msg=%q", n.TargetType, n.TargetID, n.Message)
	return nil
}
