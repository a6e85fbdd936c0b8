package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	FeedReconnectMin     time.Duration `envconfig:"FEED_RECONNECT_MIN" default:"1s"`
	FeedReconnectMax     time.Duration `envconfig:"FEED_RECONNECT_MAX" default:"30s"`
	FeedHandshakeTimeout time.Duration `envconfig:"FEED_HANDSHAKE_TIMEOUT" default:"15s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
