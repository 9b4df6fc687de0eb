package natsrep

import (
	"github.com/nats-io/nats.go"
)

// New creates a NATS reporter that publishes run events to the given subject.
func New(nc *nats.Conn, runID string, subject string) *natsReporter {
	return &natsReporter{
		nc:      nc,
		subject: subject,
		runID:   runID,
	}
}
