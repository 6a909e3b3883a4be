package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter keeps its buffer in a named field so io.Copy cannot bypass
// Write through a promoted WriteString.
type fakeWriter struct {
	buf      bytes.Buffer
	closed   bool
	writeErr error
	closeErr error
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type recorder struct {
	object      string
	contentType string
	writer      *fakeWriter
}

func (r *recorder) open(_ context.Context, object, contentType string) io.WriteCloser {
	r.object = object
	r.contentType = contentType
	return r.writer
}

func TestPutObjectUploads(t *testing.T) {
	t.Parallel()
	rec := &recorder{writer: &fakeWriter{}}
	store, err := newBlobStore(Config{Bucket: "results", Prefix: "/municipales/"}, rec.open)
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "lyon.xlsx", "application/vnd.ms-excel", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "gs://results/municipales/lyon.xlsx", uri)
	assert.Equal(t, "municipales/lyon.xlsx", rec.object)
	assert.Equal(t, "application/vnd.ms-excel", rec.contentType)
	assert.Equal(t, "payload", rec.writer.buf.String())
	assert.True(t, rec.writer.closed)
}

func TestPutObjectErrors(t *testing.T) {
	t.Parallel()

	_, err := newBlobStore(Config{}, nil)
	require.Error(t, err)

	_, err = New(nil, Config{Bucket: "results"})
	require.Error(t, err)

	failing := &recorder{writer: &fakeWriter{writeErr: errors.New("quota exceeded")}}
	store, err := newBlobStore(Config{Bucket: "results"}, failing.open)
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "lyon.xlsx", "", strings.NewReader("payload"))
	require.ErrorContains(t, err, "quota exceeded")
	assert.True(t, failing.writer.closed)

	closing := &recorder{writer: &fakeWriter{closeErr: errors.New("precondition failed")}}
	store, err = newBlobStore(Config{Bucket: "results"}, closing.open)
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "lyon.xlsx", "", strings.NewReader("payload"))
	require.ErrorContains(t, err, "precondition failed")

	_, err = store.PutObject(context.Background(), " ", "", strings.NewReader("payload"))
	require.Error(t, err)
}
