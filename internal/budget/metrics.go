package budget

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// NewStatsd returns a DogStatsD client for addr with the "guardian."
// namespace, or a no-op client when addr is empty.
func NewStatsd(addr string, tags ...string) (statsd.ClientInterface, error) {
	if addr == "" {
		return &statsd.NoOpClient{}, nil
	}

	client, err := statsd.New(addr,
		statsd.WithNamespace("guardian."),
		statsd.WithTags(tags),
	)
	if err != nil {
		return nil, fmt.Errorf("budget: statsd client for %s: %w", addr, err)
	}

	return client, nil
}
