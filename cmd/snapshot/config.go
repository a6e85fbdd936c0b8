package snapshot

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	EventFeedURL       string        `envconfig:"EVENT_FEED_URL"` // websocket feed, empty disables it
	SubscribeURL       string        `envconfig:"SUBSCRIBE_URL"`  // trading engine base url, empty disables re-subscription
	SubscribeTimeout   time.Duration `envconfig:"SUBSCRIBE_TIMEOUT" default:"5s"`
	TimestampPrecision string        `envconfig:"TIMESTAMP_PRECISION" default:"microsecond"` // "second" matches the legacy timestamp(0) columns
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
