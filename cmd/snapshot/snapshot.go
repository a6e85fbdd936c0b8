package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"snapshotengine/src/connectors"
	"snapshotengine/src/executors"
	"snapshotengine/src/ingest"
	"snapshotengine/src/repository"
	"snapshotengine/src/server"
)

// Snapshot runs the snapshot engine: every event source feeds one runner that
// writes account, position, greeks and trade state to DB.
type Snapshot struct {
	Log    *logger.Entry
	DB     *gorm.DB
	Config *Config
}

func (s *Snapshot) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	return s.Run(ctx)
}

// Run blocks until ctx is cancelled or one of the components fails.
func (s *Snapshot) Run(ctx context.Context) error {
	if s.Config == nil {
		s.Config = GetConfig()
	}
	if s.Log == nil {
		s.Log = logger.WithField("cmd", "snapshot")
	}

	store := repository.NewStateStore(s.DB).WithPrecision(s.Config.TimestampPrecision)
	ledger := repository.NewTradeLedger(s.DB).WithPrecision(s.Config.TimestampPrecision)

	var hooks []ingest.PositionHook
	if s.Config.SubscribeURL != "" {
		subscriber := connectors.NewHTTPSubscriber(s.Config.SubscribeURL, s.Config.SubscribeTimeout)
		hooks = append(hooks, ingest.NewResubscribeHook(s.Log.WithField("component", "ResubscribeHook"), subscriber))
	} else {
		s.Log.Warn("SUBSCRIBE_URL not set, positions will not trigger market data subscriptions")
	}

	dispatcher := ingest.NewDispatcher(s.Log.WithField("component", "Dispatcher"), store, ledger, hooks...)
	runner := executors.NewRunner(s.Log.WithField("component", "Runner"), dispatcher, executors.GetConfig().QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 3)
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	start("runner", runner.Run)

	if s.Config.EventFeedURL != "" {
		feed := connectors.NewEventFeed(s.Log.WithField("component", "EventFeed"), s.Config.EventFeedURL, runner, connectors.GetConfig())
		start("event feed", feed.Run)
	}

	serverConfig := server.GetConfig()
	start("server", func(ctx context.Context) error {
		return server.StartServer(ctx, serverConfig, server.NewRouter(runner))
	})

	s.Log.WithField("port", serverConfig.Port).Info("snapshot engine running")
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
