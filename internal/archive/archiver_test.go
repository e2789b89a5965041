package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emRival/GASHub/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogLister struct {
	logs    []models.RequestLog
	err     error
	queries []struct{ from, to time.Time }
}

func (f *fakeLogLister) ListLogsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.RequestLog, error) {
	f.queries = append(f.queries, struct{ from, to time.Time }{from, to})
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RequestLog
	for _, entry := range f.logs {
		if !entry.CreatedAt.Before(from) && entry.CreatedAt.Before(to) {
			out = append(out, entry)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeUploader struct {
	uploads map[string]string
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, _ := io.ReadAll(body)
	if f.uploads == nil {
		f.uploads = make(map[string]string)
	}
	f.uploads[key] = string(data)
	return nil
}

func newArchiver(lister *fakeLogLister, uploader *fakeUploader, minAge time.Duration) *Archiver {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger, lister, uploader, time.Hour, minAge)
}

func TestRunOnceUploadsAgedLogs(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	lister := &fakeLogLister{logs: []models.RequestLog{
		{ID: "l1", ResponseStatus: 200, CreatedAt: old},
		{ID: "l2", ResponseStatus: 404, CreatedAt: old.Add(time.Minute)},
		{ID: "fresh", ResponseStatus: 200, CreatedAt: time.Now()},
	}}
	uploader := &fakeUploader{}
	a := newArchiver(lister, uploader, time.Hour)

	require.NoError(t, a.runOnce(context.Background()))
	require.Len(t, uploader.uploads, 1)

	for key, content := range uploader.uploads {
		assert.True(t, strings.HasPrefix(key, "logs/"))
		assert.True(t, strings.HasSuffix(key, ".csv"))
		assert.Contains(t, content, "l1")
		assert.Contains(t, content, "l2")
		assert.NotContains(t, content, "fresh", "entries younger than minAge stay out")
	}
}

func TestRunOnceAdvancesWatermark(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	lister := &fakeLogLister{logs: []models.RequestLog{
		{ID: "l1", ResponseStatus: 200, CreatedAt: old},
	}}
	uploader := &fakeUploader{}
	a := newArchiver(lister, uploader, time.Hour)

	require.NoError(t, a.runOnce(context.Background()))
	require.NoError(t, a.runOnce(context.Background()))

	assert.Len(t, uploader.uploads, 1, "an archived window is not re-exported")
	require.Len(t, lister.queries, 2)
	assert.False(t, lister.queries[1].from.Before(lister.queries[0].to),
		"the second window must start where the first ended")
}

func TestRunOnceEmptyWindowSkipsUpload(t *testing.T) {
	lister := &fakeLogLister{}
	uploader := &fakeUploader{}
	a := newArchiver(lister, uploader, time.Hour)

	require.NoError(t, a.runOnce(context.Background()))
	assert.Empty(t, uploader.uploads)
}

func TestRunOnceKeepsWatermarkOnUploadFailure(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	lister := &fakeLogLister{logs: []models.RequestLog{
		{ID: "l1", ResponseStatus: 200, CreatedAt: old},
	}}
	uploader := &fakeUploader{err: errors.New("s3 unavailable")}
	a := newArchiver(lister, uploader, time.Hour)

	require.Error(t, a.runOnce(context.Background()))

	uploader.err = nil
	require.NoError(t, a.runOnce(context.Background()))
	require.Len(t, uploader.uploads, 1, "the failed window is retried on the next run")
	for _, content := range uploader.uploads {
		assert.Contains(t, content, "l1")
	}
}

func TestRunOnceListFailurePropagates(t *testing.T) {
	lister := &fakeLogLister{err: errors.New("db down")}
	a := newArchiver(lister, &fakeUploader{}, time.Hour)

	err := a.runOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing logs")
}
