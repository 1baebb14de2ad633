package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whisper-scribe/internal/api/errors"
	"whisper-scribe/internal/api/v1/dto"
	"whisper-scribe/internal/app/audio"
	apperrors "whisper-scribe/internal/app/errors"
	"whisper-scribe/internal/app/logging"
	"whisper-scribe/internal/app/metrics"
	"whisper-scribe/internal/app/model"
	"whisper-scribe/internal/app/report"
	"whisper-scribe/internal/app/repository"
	"whisper-scribe/internal/app/storage"
	"whisper-scribe/internal/app/transcription"
	"whisper-scribe/internal/app/util/files"
)

// Pipeline is the part of the orchestrator the HTTP front end drives.
type Pipeline interface {
	Transcribe(ctx context.Context, path string, opts ...transcription.RunOption) (*transcription.Result, error)
	Estimate(ctx context.Context, path string) (audio.Source, audio.CostEstimate, error)
}

// Report formats offered for download.
const (
	FormatPDF = "pdf"
	FormatTXT = "txt"
)

// artifactTimeout bounds the uploads of one finished job.
const artifactTimeout = 30 * time.Second

var reportFiles = map[string]struct {
	name        string
	contentType string
}{
	FormatPDF: {name: "transcription.pdf", contentType: "application/pdf"},
	FormatTXT: {name: "transcription.txt", contentType: "text/plain; charset=utf-8"},
}

// Download is a finished report ready to be served.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

type job struct {
	id         string
	fileName   string
	uploadPath string
	createdAt  time.Time

	status     string
	done       int
	total      int
	duration   float64
	cost       float64
	chunks     int
	text       string
	stats      *report.Stats
	errMessage string
	reports    map[string][]byte
	artifacts  map[string]*storage.Artifact
	finishedAt *time.Time

	cancel   context.CancelFunc
	finished chan struct{}
}

// JobServiceConfig holds the optional collaborators of a JobService.
type JobServiceConfig struct {
	UploadDir      string
	MaxUploadBytes int64
	History        repository.TranscriptionDAO
	Artifacts      storage.ArtifactStore
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// JobService runs one background transcription per upload and keeps its
// state in memory until the job is deleted.
type JobService struct {
	pipeline Pipeline
	config   JobServiceConfig
	logger   *zap.Logger

	baseCtx    context.Context
	cancelBase context.CancelFunc
	wg         sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*job
}

// NewJobService creates a job service. An empty upload dir means os.TempDir.
func NewJobService(pipeline Pipeline, config JobServiceConfig) *JobService {
	if config.UploadDir == "" {
		config.UploadDir = os.TempDir()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		pipeline:   pipeline,
		config:     config,
		logger:     logging.OrNop(config.Logger),
		baseCtx:    ctx,
		cancelBase: cancel,
		jobs:       make(map[string]*job),
	}
}

// SaveUpload validates and stores an uploaded file, returning its path.
func (s *JobService) SaveUpload(fileName string, size int64, r io.Reader) (string, error) {
	name := files.CleanFileName(fileName)
	if name == "" || !files.IsSupportedAudio(name) {
		return "", errors.NewValidationError("Unsupported file type", map[string]string{
			"file": fmt.Sprintf("must have one of the extensions %v", files.SupportedExtensions),
		})
	}
	if limit := s.config.MaxUploadBytes; limit > 0 && size > limit {
		return "", errors.NewTooLargeError(limit)
	}

	if err := files.EnsureDir(s.config.UploadDir); err != nil {
		return "", err
	}
	out, err := os.CreateTemp(s.config.UploadDir, "upload-*"+filepath.Ext(name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	src := r
	if limit := s.config.MaxUploadBytes; limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(out, src)
	if err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if limit := s.config.MaxUploadBytes; limit > 0 && written > limit {
		os.Remove(out.Name())
		return "", errors.NewTooLargeError(limit)
	}
	return out.Name(), nil
}

// Start registers a job for the stored upload and begins transcribing it.
func (s *JobService) Start(fileName, uploadPath string) *dto.JobResponse {
	ctx, cancel := context.WithCancel(s.baseCtx)
	j := &job{
		id:         uuid.NewString(),
		fileName:   files.CleanFileName(fileName),
		uploadPath: uploadPath,
		createdAt:  time.Now().UTC(),
		status:     dto.StatusRunning,
		cancel:     cancel,
		finished:   make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[j.id] = j
	resp := j.response()
	s.mu.Unlock()

	s.config.Metrics.JobStarted()
	s.wg.Add(1)
	go s.run(ctx, j)

	s.logger.Info("transcription job started", zap.String("job_id", j.id), zap.String("file", j.fileName))
	return resp
}

func (s *JobService) run(ctx context.Context, j *job) {
	defer s.wg.Done()
	defer close(j.finished)
	defer j.cancel()
	defer s.config.Metrics.JobDone()
	defer func() {
		if err := os.Remove(j.uploadPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove upload", zap.String("job_id", j.id), zap.Error(err))
		}
	}()

	result, err := s.pipeline.Transcribe(ctx, j.uploadPath,
		transcription.WithEstimate(func(_ audio.Source, est audio.CostEstimate) {
			s.mu.Lock()
			j.duration = est.DurationSeconds
			j.cost = est.CostUSD
			s.mu.Unlock()
		}),
		transcription.WithProgress(func(done, total int) {
			s.mu.Lock()
			j.done, j.total = done, total
			s.mu.Unlock()
		}),
	)

	var (
		reports   map[string][]byte
		artifacts map[string]*storage.Artifact
		stats     *report.Stats
	)
	if err == nil {
		st := report.ComputeStats(result.Text, result.DurationSeconds, result.CostUSD)
		stats = &st
		reports, err = buildReports(result.Text)
		if err == nil {
			artifacts = s.storeArtifacts(j.id, reports)
		}
	}

	now := time.Now().UTC()
	s.mu.Lock()
	switch {
	case err == nil:
		j.status = dto.StatusCompleted
		j.text = result.Text
		j.chunks = result.Chunks
		j.stats = stats
		j.reports = reports
		j.artifacts = artifacts
	case stderrors.Is(err, apperrors.ErrCancelled):
		j.status = dto.StatusCancelled
		j.errMessage = err.Error()
	default:
		j.status = dto.StatusFailed
		j.errMessage = err.Error()
	}
	if result != nil {
		j.duration = result.DurationSeconds
		j.cost = result.CostUSD
		j.chunks = result.Chunks
	}
	j.finishedAt = &now
	entry := j.historyEntry()
	_, registered := s.jobs[j.id]
	s.mu.Unlock()

	// A job deleted while its reports were uploading would otherwise leave
	// them behind.
	if !registered && len(artifacts) > 0 {
		s.deleteArtifacts(j.id)
	}

	s.recordHistory(entry)
	s.logger.Info("transcription job finished",
		zap.String("job_id", j.id),
		zap.String("status", entry.Status),
		zap.Error(err),
	)
}

func buildReports(text string) (map[string][]byte, error) {
	pdf, err := report.ToPDF(text)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{
		FormatPDF: pdf,
		FormatTXT: report.ToText(text),
	}, nil
}

// storeArtifacts uploads the reports when an artifact store is configured.
// Failures are logged: the reports stay downloadable from memory.
func (s *JobService) storeArtifacts(jobID string, reports map[string][]byte) map[string]*storage.Artifact {
	if s.config.Artifacts == nil {
		return nil
	}

	// Uploads survive Shutdown so jobs finishing during a drain keep their
	// artifacts.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.baseCtx), artifactTimeout)
	defer cancel()

	artifacts := make(map[string]*storage.Artifact, len(reports))
	for format, data := range reports {
		rf := reportFiles[format]
		artifact, err := s.config.Artifacts.Put(ctx, jobID, rf.name, rf.contentType, data)
		if err != nil {
			s.logger.Warn("failed to store artifact",
				zap.String("job_id", jobID),
				zap.String("name", rf.name),
				zap.Error(err),
			)
			continue
		}
		artifacts[format] = artifact
	}
	return artifacts
}

func (s *JobService) deleteArtifacts(jobID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.baseCtx), artifactTimeout)
	defer cancel()
	if err := s.config.Artifacts.DeleteJob(ctx, jobID); err != nil {
		s.logger.Warn("failed to delete artifacts", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *JobService) recordHistory(entry *model.Transcription) {
	if s.config.History == nil {
		return
	}
	if _, err := s.config.History.Record(context.WithoutCancel(s.baseCtx), entry); err != nil {
		s.logger.Warn("failed to record history", zap.String("job_id", entry.JobID), zap.Error(err))
	}
}

// Get returns the current state of a job.
func (s *JobService) Get(id string) (*dto.JobResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.NewNotFoundError("Transcription")
	}
	return j.response(), nil
}

// Cancel asks a running job to stop before its next chunk. The job reaches
// the cancelled state once the chunk in flight returns.
func (s *JobService) Cancel(id string) (*dto.JobResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.NewNotFoundError("Transcription")
	}
	if j.status != dto.StatusRunning {
		return nil, errors.NewConflictError(fmt.Sprintf("Transcription is already %s", j.status))
	}
	j.cancel()
	return j.response(), nil
}

// Delete cancels a job if needed and forgets it along with its artifacts.
// Reports of a job still uploading are removed by the job itself once it
// sees it is no longer registered.
func (s *JobService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	if !ok {
		return errors.NewNotFoundError("Transcription")
	}
	j.cancel()

	if s.config.Artifacts != nil {
		if err := s.config.Artifacts.DeleteJob(ctx, id); err != nil {
			s.logger.Warn("failed to delete artifacts", zap.String("job_id", id), zap.Error(err))
		}
	}
	return nil
}

// Download returns the report of a completed job in the given format.
func (s *JobService) Download(id, format string) (*Download, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, errors.NewNotFoundError("Transcription")
	}
	if j.status != dto.StatusCompleted {
		return nil, errors.NewConflictError(fmt.Sprintf("Transcription is %s, no report available", j.status))
	}

	rf, ok := reportFiles[format]
	if !ok {
		return nil, errors.NewValidationError("Invalid format", map[string]string{"format": "must be one of: pdf txt"})
	}
	return &Download{FileName: rf.name, ContentType: rf.contentType, Data: j.reports[format]}, nil
}

// Estimate prices the stored upload and removes it.
func (s *JobService) Estimate(ctx context.Context, fileName, uploadPath string) (*dto.EstimateResponse, error) {
	defer os.Remove(uploadPath)

	src, est, err := s.pipeline.Estimate(ctx, uploadPath)
	if err != nil {
		return nil, err
	}
	return &dto.EstimateResponse{
		FileName:        files.CleanFileName(fileName),
		Format:          src.Format,
		DurationSeconds: est.DurationSeconds,
		DurationMinutes: est.DurationMinutes(),
		CostUSD:         est.CostUSD,
		SampleRate:      src.SampleRate,
		Channels:        src.Channels,
	}, nil
}

// Done returns a channel closed when the job's goroutine has exited.
func (s *JobService) Done(id string) <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if j, ok := s.jobs[id]; ok {
		return j.finished
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// ActiveJobs returns the number of running jobs.
func (s *JobService) ActiveJobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, j := range s.jobs {
		if j.status == dto.StatusRunning {
			n++
		}
	}
	return n
}

// Shutdown cancels every running job and waits for them to wind down.
func (s *JobService) Shutdown(ctx context.Context) error {
	s.cancelBase()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// response must be called with the service lock held.
func (j *job) response() *dto.JobResponse {
	resp := &dto.JobResponse{
		ID:              j.id,
		FileName:        j.fileName,
		Status:          j.status,
		Progress:        dto.ProgressResponse{Done: j.done, Total: j.total},
		DurationSeconds: j.duration,
		CostUSD:         j.cost,
		Chunks:          j.chunks,
		Text:            j.text,
		Stats:           j.stats,
		Error:           j.errMessage,
		CreatedAt:       j.createdAt,
		FinishedAt:      j.finishedAt,
	}
	if len(j.artifacts) > 0 {
		resp.Artifacts = j.artifacts
	}
	return resp
}

func (j *job) historyEntry() *model.Transcription {
	words := 0
	if j.stats != nil {
		words = j.stats.Words
	}
	return &model.Transcription{
		JobID:           j.id,
		FileName:        j.fileName,
		Status:          j.status,
		DurationSeconds: j.duration,
		CostUSD:         j.cost,
		Chunks:          j.chunks,
		Words:           words,
		ErrorMessage:    j.errMessage,
		CreatedAt:       j.createdAt,
	}
}
