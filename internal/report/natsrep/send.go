package natsrep

import (
	"encoding/json"
	"log/slog"
)

// send publishes the message as JSON. Delivery failures are logged, not
// surfaced; progress streaming never fails the run itself.
func (n *natsReporter) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal run event", "error", err)
		return
	}
	if err := n.nc.Publish(n.subject, b); err != nil {
		slog.Error("failed to publish run event", "subject", n.subject, "error", err)
	}
}
