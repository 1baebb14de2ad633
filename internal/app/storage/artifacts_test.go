package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of S3 calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	switch {
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>artifacts</Name><IsTruncated>false</IsTruncated>`)
		for k, v := range f.objects {
			if strings.HasPrefix(k, prefix) {
				b.WriteString("<Contents><Key>" + k + "</Key><Size>" + strconv.Itoa(len(v)) + "</Size></Contents>")
			}
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestStore(t *testing.T) (*MinioArtifactStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	endpoint := strings.TrimPrefix(server.URL, "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Secure: false,
		Region: "us-east-1",
	})
	require.NoError(t, err)

	return NewMinioArtifactStoreWithClient(client, "artifacts", 15*time.Minute), fake
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "transcriptions/job-1/transcription.pdf", ObjectKey("job-1", "transcription.pdf"))
	assert.Equal(t, "transcriptions/job-1/transcription.txt", ObjectKey("job-1", "../../transcription.txt"))
}

func TestPut(t *testing.T) {
	store, fake := newTestStore(t)

	artifact, err := store.Put(context.Background(), "job-1", "transcription.txt", "text/plain; charset=utf-8", []byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "transcriptions/job-1/transcription.txt", artifact.Key)
	assert.Equal(t, int64(11), artifact.Size)
	assert.Contains(t, fake.objects, artifact.Key)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), artifact.ExpiresAt, time.Minute)

	link, err := url.Parse(artifact.URL)
	require.NoError(t, err)
	assert.Equal(t, "/artifacts/transcriptions/job-1/transcription.txt", link.Path)
	assert.NotEmpty(t, link.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "900", link.Query().Get("X-Amz-Expires"))
	assert.Contains(t, link.Query().Get("response-content-disposition"), "transcription.txt")
}

func TestDeleteJob(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "job-1", "transcription.pdf", "application/pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "job-1", "transcription.txt", "text/plain", []byte("text"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "job-2", "transcription.txt", "text/plain", []byte("other"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteJob(ctx, "job-1"))

	assert.ElementsMatch(t, []string{
		"transcriptions/job-1/transcription.pdf",
		"transcriptions/job-1/transcription.txt",
	}, fake.deleted)
	assert.Contains(t, fake.objects, "transcriptions/job-2/transcription.txt")
}
