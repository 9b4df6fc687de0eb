package sqsrep

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// New creates an SQS reporter that publishes run events to the given queue.
// Constructed only when a queue URL is configured.
func New(runID string, queueUrl string) (*sqsReporter, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &sqsReporter{
		sqsClient: sqs.NewFromConfig(cfg),
		queueUrl:  queueUrl,
		runID:     runID,
	}, nil
}
