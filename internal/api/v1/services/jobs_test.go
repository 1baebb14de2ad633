package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-scribe/internal/api/errors"
	"whisper-scribe/internal/api/v1/dto"
	"whisper-scribe/internal/app/api"
	"whisper-scribe/internal/app/audio"
	"whisper-scribe/internal/app/storage"
	"whisper-scribe/internal/app/testutil"
	"whisper-scribe/internal/app/transcription"
)

const mib = int64(1024 * 1024)

// fortyMinutes splits into two chunks at a 24MiB budget.
var fortyMinutes = audio.Source{Format: "mp3", DurationMs: 2_400_000, RawByteLength: 30 * mib, SampleRate: 44100, Channels: 2, SampleWidth: 2}

type fakeProber struct {
	src audio.Source
}

func (p fakeProber) Probe(_ context.Context, path string) (audio.Source, error) {
	src := p.src
	src.Path = path
	return src, nil
}

type fakeArtifactStore struct {
	mu      sync.Mutex
	puts    []string
	deleted []string
	objects map[string][]string

	// beforePut runs outside the lock ahead of every Put.
	beforePut func()
}

func (f *fakeArtifactStore) Put(ctx context.Context, jobID, name, contentType string, data []byte) (*storage.Artifact, error) {
	if f.beforePut != nil {
		f.beforePut()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := storage.ObjectKey(jobID, name)
	f.puts = append(f.puts, key)
	if f.objects == nil {
		f.objects = make(map[string][]string)
	}
	f.objects[jobID] = append(f.objects[jobID], key)
	return &storage.Artifact{Key: key, Name: name, ContentType: contentType, Size: int64(len(data)), URL: "https://files.example.com/" + key}, nil
}

func (f *fakeArtifactStore) DeleteJob(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, jobID)
	delete(f.objects, jobID)
	return nil
}

func (f *fakeArtifactStore) stored(jobID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.objects[jobID]...)
}

func newTestService(t *testing.T, transcriber api.Transcriber, config JobServiceConfig) *JobService {
	t.Helper()

	splitter := audio.NewSplitter("ffmpeg", &testutil.FakeRunner{}, audio.WithScratchRoot(t.TempDir()))
	orch := transcription.NewOrchestrator(fakeProber{src: fortyMinutes}, splitter, transcriber,
		transcription.Limits{FileLimitBytes: 100, ChunkBudgetBytes: 24 * mib, RatePerMinute: audio.DefaultRatePerMinute},
		nil, nil)

	if config.UploadDir == "" {
		config.UploadDir = t.TempDir()
	}
	svc := NewJobService(orch, config)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return svc
}

func saveUpload(t *testing.T, svc *JobService, name string) string {
	t.Helper()
	path, err := svc.SaveUpload(name, 200, bytes.NewReader(make([]byte, 200)))
	require.NoError(t, err)
	return path
}

func waitDone(t *testing.T, svc *JobService, id string) {
	t.Helper()
	select {
	case <-svc.Done(id):
	case <-time.After(5 * time.Second):
		t.Fatalf("job %s did not finish", id)
	}
}

// blockingTranscriber holds the first call until release is closed.
func blockingTranscriber() (*testutil.ScriptedTranscriber, chan struct{}) {
	release := make(chan struct{})
	return &testutil.ScriptedTranscriber{
		BeforeCall: func(n int, _ string) {
			if n == 0 {
				<-release
			}
		},
	}, release
}

func assertAPIErrorKind(t *testing.T, err error, kind errors.ErrorKind) {
	t.Helper()
	var apiErr *errors.APIError
	require.True(t, stderrors.As(err, &apiErr), "expected an API error, got %v", err)
	assert.Equal(t, kind, apiErr.Kind)
}

func TestJobCompletes(t *testing.T) {
	transcriber := &testutil.ScriptedTranscriber{Responses: []string{"hello there.", "general kenobi."}}
	history := testutil.NewMockTranscriptionDAO()
	svc := newTestService(t, transcriber, JobServiceConfig{History: history})

	path := saveUpload(t, svc, "lecture.mp3")
	started := svc.Start("lecture.mp3", path)
	assert.Equal(t, dto.StatusRunning, started.Status)
	assert.NotEmpty(t, started.ID)

	waitDone(t, svc, started.ID)

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, job.Status)
	assert.Equal(t, "hello there. general kenobi.", job.Text)
	assert.Equal(t, 2, job.Chunks)
	assert.Equal(t, dto.ProgressResponse{Done: 2, Total: 2}, job.Progress)
	assert.InDelta(t, 2400.0, job.DurationSeconds, 1e-9)
	assert.InDelta(t, 0.24, job.CostUSD, 1e-12)
	require.NotNil(t, job.Stats)
	assert.Equal(t, 4, job.Stats.Words)
	assert.NotNil(t, job.FinishedAt)
	assert.Empty(t, job.Error)
	assert.Zero(t, svc.ActiveJobs())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "upload must be removed once the job ends")

	recorded := history.Recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, started.ID, recorded[0].JobID)
	assert.Equal(t, "lecture.mp3", recorded[0].FileName)
	assert.Equal(t, dto.StatusCompleted, recorded[0].Status)
	assert.Equal(t, 4, recorded[0].Words)
	assert.Equal(t, 2, recorded[0].Chunks)

	pdf, err := svc.Download(started.ID, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "transcription.pdf", pdf.FileName)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))

	txt, err := svc.Download(started.ID, FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "transcription.txt", txt.FileName)
	assert.Equal(t, "hello there. general kenobi.", string(txt.Data))

	_, err = svc.Download(started.ID, "docx")
	assertAPIErrorKind(t, err, errors.KindValidation)
}

func TestCancelRunningJob(t *testing.T) {
	transcriber, release := blockingTranscriber()
	history := testutil.NewMockTranscriptionDAO()
	svc := newTestService(t, transcriber, JobServiceConfig{History: history})

	started := svc.Start("talk.wav", saveUpload(t, svc, "talk.wav"))
	require.Eventually(t, func() bool { return transcriber.CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, svc.ActiveJobs())

	resp, err := svc.Cancel(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusRunning, resp.Status, "the chunk in flight is allowed to finish")

	close(release)
	waitDone(t, svc, started.ID)

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCancelled, job.Status)
	assert.Empty(t, job.Text)
	assert.Contains(t, job.Error, "cancelled")
	assert.InDelta(t, 0.24, job.CostUSD, 1e-12)
	assert.Equal(t, 1, transcriber.CallCount())

	_, err = svc.Cancel(started.ID)
	assertAPIErrorKind(t, err, errors.KindConflict)

	_, err = svc.Download(started.ID, FormatPDF)
	assertAPIErrorKind(t, err, errors.KindConflict)

	recorded := history.Recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, dto.StatusCancelled, recorded[0].Status)
}

func TestJobFailure(t *testing.T) {
	transcriber := &testutil.ScriptedTranscriber{Errors: map[int]error{1: stderrors.New("connection reset by peer")}}
	svc := newTestService(t, transcriber, JobServiceConfig{})

	started := svc.Start("talk.m4a", saveUpload(t, svc, "talk.m4a"))
	waitDone(t, svc, started.ID)

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "remote transcription failed")
	assert.Contains(t, job.Error, "chunk 2 of 2")
	assert.Empty(t, job.Text)
	assert.Nil(t, job.Stats)
}

func TestHistoryFailureDoesNotFailJob(t *testing.T) {
	history := testutil.NewMockTranscriptionDAO()
	history.RecordErr = stderrors.New("disk full")
	svc := newTestService(t, &testutil.ScriptedTranscriber{}, JobServiceConfig{History: history})

	started := svc.Start("talk.mp3", saveUpload(t, svc, "talk.mp3"))
	waitDone(t, svc, started.ID)

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, job.Status)
}

func TestUnknownJob(t *testing.T) {
	svc := newTestService(t, &testutil.ScriptedTranscriber{}, JobServiceConfig{})

	_, err := svc.Get("missing")
	assertAPIErrorKind(t, err, errors.KindNotFound)

	_, err = svc.Cancel("missing")
	assertAPIErrorKind(t, err, errors.KindNotFound)

	_, err = svc.Download("missing", FormatPDF)
	assertAPIErrorKind(t, err, errors.KindNotFound)

	err = svc.Delete(context.Background(), "missing")
	assertAPIErrorKind(t, err, errors.KindNotFound)

	select {
	case <-svc.Done("missing"):
	default:
		t.Fatal("Done of an unknown job must be closed")
	}
}

func TestArtifactsStoredAndDeleted(t *testing.T) {
	store := &fakeArtifactStore{}
	svc := newTestService(t, &testutil.ScriptedTranscriber{}, JobServiceConfig{Artifacts: store})

	started := svc.Start("memo.webm", saveUpload(t, svc, "memo.webm"))
	waitDone(t, svc, started.ID)

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	require.Len(t, job.Artifacts, 2)
	assert.Equal(t, "transcription.pdf", job.Artifacts[FormatPDF].Name)
	assert.Equal(t, storage.ObjectKey(started.ID, "transcription.txt"), job.Artifacts[FormatTXT].Key)
	assert.True(t, strings.HasPrefix(job.Artifacts[FormatPDF].URL, "https://files.example.com/"))

	require.NoError(t, svc.Delete(context.Background(), started.ID))
	assert.Equal(t, []string{started.ID}, store.deleted)
	assert.Empty(t, store.stored(started.ID))

	_, err = svc.Get(started.ID)
	assertAPIErrorKind(t, err, errors.KindNotFound)
}

func TestDeleteWhileArtifactsUpload(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store := &fakeArtifactStore{beforePut: func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}}
	svc := newTestService(t, &testutil.ScriptedTranscriber{}, JobServiceConfig{Artifacts: store})

	started := svc.Start("memo.mp3", saveUpload(t, svc, "memo.mp3"))
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("artifact upload did not start")
	}

	done := svc.Done(started.ID)
	require.NoError(t, svc.Delete(context.Background(), started.ID))
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
	assert.Len(t, store.puts, 2)
	assert.Empty(t, store.stored(started.ID), "reports uploaded after delete must be removed")
}

func TestDeleteRunningJob(t *testing.T) {
	transcriber, release := blockingTranscriber()
	svc := newTestService(t, transcriber, JobServiceConfig{})

	started := svc.Start("talk.mp3", saveUpload(t, svc, "talk.mp3"))
	require.Eventually(t, func() bool { return transcriber.CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	done := svc.Done(started.ID)
	require.NoError(t, svc.Delete(context.Background(), started.ID))
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deleted job did not stop")
	}
	assert.Equal(t, 1, transcriber.CallCount(), "no chunk is sent after delete")
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, &testutil.ScriptedTranscriber{}, JobServiceConfig{UploadDir: dir, MaxUploadBytes: 100})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := svc.SaveUpload("notes.pdf", 10, bytes.NewReader(make([]byte, 10)))
		assertAPIErrorKind(t, err, errors.KindValidation)
	})

	t.Run("declared size over the limit", func(t *testing.T) {
		_, err := svc.SaveUpload("talk.mp3", 200, bytes.NewReader(make([]byte, 200)))
		assertAPIErrorKind(t, err, errors.KindTooLarge)
	})

	t.Run("body larger than declared", func(t *testing.T) {
		_, err := svc.SaveUpload("talk.mp3", 10, bytes.NewReader(make([]byte, 200)))
		assertAPIErrorKind(t, err, errors.KindTooLarge)
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not be left behind")

	t.Run("accepted", func(t *testing.T) {
		path, err := svc.SaveUpload(`C:\Users\me\Talk.MP3`, 100, bytes.NewReader(make([]byte, 100)))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(path, ".MP3"))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, int64(100), info.Size())
	})
}

func TestEstimate(t *testing.T) {
	svc := newTestService(t, &testutil.ScriptedTranscriber{}, JobServiceConfig{})
	path := saveUpload(t, svc, "talk.mp3")

	est, err := svc.Estimate(context.Background(), "talk.mp3", path)
	require.NoError(t, err)
	assert.Equal(t, "talk.mp3", est.FileName)
	assert.Equal(t, "mp3", est.Format)
	assert.InDelta(t, 2400.0, est.DurationSeconds, 1e-9)
	assert.InDelta(t, 40.0, est.DurationMinutes, 1e-9)
	assert.InDelta(t, 0.24, est.CostUSD, 1e-12)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestShutdownCancelsJobs(t *testing.T) {
	transcriber, release := blockingTranscriber()
	svc := newTestService(t, transcriber, JobServiceConfig{})

	started := svc.Start("talk.mp3", saveUpload(t, svc, "talk.mp3"))
	require.Eventually(t, func() bool { return transcriber.CallCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	errs := make(chan error, 1)
	go func() { errs <- svc.Shutdown(context.Background()) }()
	require.Eventually(t, func() bool { return svc.baseCtx.Err() != nil }, 5*time.Second, 5*time.Millisecond)
	close(release)

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCancelled, job.Status)
}

func TestShutdownKeepsArtifactsOfFinishingJob(t *testing.T) {
	release := make(chan struct{})
	transcriber := &testutil.ScriptedTranscriber{
		BeforeCall: func(n int, _ string) {
			if n == 1 {
				<-release
			}
		},
	}
	store := &fakeArtifactStore{}
	svc := newTestService(t, transcriber, JobServiceConfig{Artifacts: store})

	started := svc.Start("talk.mp3", saveUpload(t, svc, "talk.mp3"))
	require.Eventually(t, func() bool { return transcriber.CallCount() == 2 }, 5*time.Second, 5*time.Millisecond)

	errs := make(chan error, 1)
	go func() { errs <- svc.Shutdown(context.Background()) }()
	require.Eventually(t, func() bool { return svc.baseCtx.Err() != nil }, 5*time.Second, 5*time.Millisecond)
	close(release)

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}

	job, err := svc.Get(started.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, job.Status, "the last chunk was already in flight")
	assert.Len(t, job.Artifacts, 2)
	assert.Len(t, store.stored(started.ID), 2)
}
