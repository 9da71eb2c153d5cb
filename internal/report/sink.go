package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

// BlobStore is the durable storage the records are published to.
type BlobStore interface {
	Upload(ctx context.Context, container, blob string, data []byte) error
	// Download returns an error matching domain.ErrBlobNotFound when the
	// blob or its container does not exist.
	Download(ctx context.Context, container, blob string) ([]byte, error)
}

// Target names a record's local working copy and its published location.
type Target struct {
	LocalPath string
	Container string
	Blob      string
}

// Sink writes a batch to the historical and recent records and publishes both.
type Sink struct {
	store       BlobStore
	history     Target
	recent      Target
	syncHistory bool
	logger      logrus.FieldLogger
}

// NewSink creates a Sink. With syncHistory set the published historical record
// is downloaded over the local copy before new rows are appended, and the
// historical record is left alone for the run when that download fails.
func NewSink(store BlobStore, history, recent Target, syncHistory bool, logger logrus.FieldLogger) *Sink {
	return &Sink{
		store:       store,
		history:     history,
		recent:      recent,
		syncHistory: syncHistory,
		logger:      logger,
	}
}

// Deliver persists and publishes the batch. The two records are handled
// independently: a failure on one never prevents work on the other. All
// failures are logged and returned joined.
func (s *Sink) Deliver(ctx context.Context, batch domain.RunBatch) error {
	var errs []error
	var syncErr error
	if s.syncHistory {
		syncErr = s.pullHistory(ctx)
	}

	if syncErr != nil {
		err := &domain.PublishError{Container: s.history.Container, Blob: s.history.Blob, Err: syncErr}
		s.logger.WithError(err).Error("History sync failed, the historic CSV file was not updated")
		errs = append(errs, err)
	} else if err := AppendHistory(s.history.LocalPath, batch); err != nil {
		s.logger.WithError(err).Error("Could not write the historic CSV file")
		errs = append(errs, err)
	} else {
		s.logger.WithField("path", s.history.LocalPath).Info("The historic CSV file was written successfully")
		errs = append(errs, s.publish(ctx, s.history))
	}

	if err := WriteRecent(s.recent.LocalPath, batch); err != nil {
		s.logger.WithError(err).Error("Could not write the recent data CSV file")
		errs = append(errs, err)
	} else {
		s.logger.WithField("path", s.recent.LocalPath).Info("The recent data CSV file was written successfully")
		errs = append(errs, s.publish(ctx, s.recent))
	}

	return errors.Join(errs...)
}

func (s *Sink) publish(ctx context.Context, target Target) error {
	log := s.logger.WithFields(logrus.Fields{"container": target.Container, "blob": target.Blob})

	data, err := os.ReadFile(target.LocalPath)
	if err != nil {
		err = fmt.Errorf("read %s: %w", target.LocalPath, err)
		log.WithError(err).Error("Upload skipped")
		return err
	}

	if err := s.store.Upload(ctx, target.Container, target.Blob, data); err != nil {
		var publishErr *domain.PublishError
		if errors.As(err, &publishErr) {
			log = log.WithFields(logrus.Fields{
				"requestId":  publishErr.RequestID,
				"statusCode": publishErr.StatusCode,
				"errorCode":  publishErr.ErrorCode,
			})
		}
		log.WithError(err).Error("uploadFile failed")
		return err
	}
	log.WithField("bytes", len(data)).Info("Uploading the file succeeded")
	return nil
}

// pullHistory replaces the local historical copy with the published one.
// A missing blob leaves the local copy in place. Any other failure is returned
// so the caller does not publish a history that lost the remote rows.
func (s *Sink) pullHistory(ctx context.Context) error {
	log := s.logger.WithFields(logrus.Fields{"container": s.history.Container, "blob": s.history.Blob})

	data, err := s.store.Download(ctx, s.history.Container, s.history.Blob)
	switch {
	case errors.Is(err, domain.ErrBlobNotFound):
		log.Info("No published history yet, using the local file")
		return nil
	case err != nil:
		return fmt.Errorf("download history: %w", err)
	}

	// Appended rows must start on their own line.
	if n := len(data); n > 0 && data[n-1] != '\n' {
		data = append(data, '\n')
	}
	if err := os.MkdirAll(filepath.Dir(s.history.LocalPath), 0o755); err != nil {
		return fmt.Errorf("prepare history directory: %w", err)
	}
	if err := os.WriteFile(s.history.LocalPath, data, 0o644); err != nil {
		return fmt.Errorf("store downloaded history: %w", err)
	}
	log.WithField("bytes", len(data)).Info("History downloaded")
	return nil
}
