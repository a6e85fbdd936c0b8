package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"snapshotengine/src/ingest"
)

const subscribePath = "/subscribe"

// HTTPSubscriber forwards market data subscription requests to the trading
// engine. Requests are sent once; a failed request is the caller's to report.
type HTTPSubscriber struct {
	http *resty.Client
}

func NewHTTPSubscriber(baseURL string, timeout time.Duration) *HTTPSubscriber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")

	return &HTTPSubscriber{http: httpClient}
}

func (s *HTTPSubscriber) Subscribe(ctx context.Context, req ingest.SubscriptionRequest) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", req.RequestID).
		SetBody(req).
		Post(subscribePath)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", req.VtSymbol(), err)
	}

	if resp.IsError() {
		return fmt.Errorf("subscribe %s: HTTP %d: %s", req.VtSymbol(), resp.StatusCode(), string(resp.Body()))
	}

	logger.WithFields(map[string]interface{}{
		"vt_symbol":  req.VtSymbol(),
		"request_id": req.RequestID,
	}).Debug("subscription accepted")
	return nil
}
