package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"snapshotengine/src/executors"
	"snapshotengine/src/ingest"
	"snapshotengine/src/model"
)

const maxEventSize = 1 << 20

// EventSubmitter applies one decoded event and reports its outcome.
type EventSubmitter interface {
	Submit(ctx context.Context, evt ingest.Event) error
}

type response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewRouter(submitter EventSubmitter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck write error")
		}
	})

	r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, response{Status: "rejected", Error: err.Error()})
			return
		}

		evt, err := ingest.DecodeEnvelope(raw)
		if err == nil {
			if evt.ID == "" {
				evt.ID = middleware.GetReqID(r.Context())
			}
			err = submitter.Submit(r.Context(), evt)
		}

		status, accepted := statusFor(err)
		body := response{Status: "accepted"}
		if !accepted {
			body.Status = "rejected"
		}
		if err != nil {
			body.Error = err.Error()
		}
		writeJSON(w, status, body)
	})

	return r
}

// statusFor maps an ingestion outcome to an HTTP status and reports whether
// anything of the event was stored. Dropped batch members and failed
// subscription requests do not undo what was stored.
func statusFor(err error) (int, bool) {
	var partial *ingest.DroppedError
	switch {
	case err == nil:
		return http.StatusAccepted, true
	case errors.Is(err, model.ErrStorageUnavailable), errors.Is(err, executors.ErrRunnerStopped):
		return http.StatusServiceUnavailable, false
	case errors.Is(err, model.ErrDuplicateTrade):
		return http.StatusConflict, false
	case errors.As(err, &partial) && partial.Applied > 0:
		return http.StatusAccepted, true
	case errors.Is(err, model.ErrMalformedPayload):
		return http.StatusBadRequest, false
	case errors.Is(err, model.ErrSideEffectFailure):
		return http.StatusAccepted, true
	default:
		return http.StatusInternalServerError, false
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("response write error")
	}
}

// StartServer serves handler on config.Port until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, config *Config, handler http.Handler) error {
	addr := ":" + config.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
		return err
	}
	return nil
}
