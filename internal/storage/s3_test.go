package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

func setupS3Store(t *testing.T, handler http.HandlerFunc) *S3Store {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewS3Store(context.Background(), S3Config{
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return store
}

func s3ErrorBody(code string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func TestS3Store_Upload(t *testing.T) {
	store := setupS3Store(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/ghissuescsv/githubissues.csv", r.URL.Path)
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, store.Upload(context.Background(), "ghissuescsv", "githubissues.csv", []byte("Date\n")))
}

func TestS3Store_Upload_Failure(t *testing.T) {
	store := setupS3Store(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("x-amz-request-id", "req-s3")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, s3ErrorBody("AccessDenied"))
	})

	err := store.Upload(context.Background(), "newghissuecsv", "mostRecentGithubIssues.csv", []byte("x"))

	var publishErr *domain.PublishError
	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, http.StatusForbidden, publishErr.StatusCode)
	assert.Equal(t, "req-s3", publishErr.RequestID)
	assert.Equal(t, "AccessDenied", publishErr.ErrorCode)
}

func TestS3Store_Download(t *testing.T) {
	t.Run("existing object", func(t *testing.T) {
		store := setupS3Store(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "Date,Issues\n")
		})

		data, err := store.Download(context.Background(), "ghissuescsv", "githubissues.csv")
		require.NoError(t, err)
		assert.Equal(t, "Date,Issues\n", string(data))
	})

	t.Run("missing object", func(t *testing.T) {
		store := setupS3Store(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, s3ErrorBody("NoSuchKey"))
		})

		_, err := store.Download(context.Background(), "ghissuescsv", "githubissues.csv")
		assert.True(t, errors.Is(err, domain.ErrBlobNotFound))
	})
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "azure"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Backend: "ftp"})
	assert.Error(t, err)

	store, err := Open(context.Background(), Config{Backend: "S3", S3: S3Config{Region: "eu-west-1"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("storage connection string is required")
	store := Unavailable{Err: cause}

	err := store.Upload(context.Background(), "ghissuescsv", "githubissues.csv", nil)
	assert.ErrorIs(t, err, domain.ErrPublish)
	assert.ErrorIs(t, err, cause)

	_, err = store.Download(context.Background(), "ghissuescsv", "githubissues.csv")
	assert.ErrorIs(t, err, cause)
}
