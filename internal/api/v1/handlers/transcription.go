package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisper-scribe/internal/api/errors"
	"whisper-scribe/internal/api/middleware"
	"whisper-scribe/internal/api/v1/dto"
	"whisper-scribe/internal/api/v1/services"
)

// TranscriptionHandler handles transcription-related API endpoints
type TranscriptionHandler struct {
	service *services.JobService
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(service *services.JobService) *TranscriptionHandler {
	return &TranscriptionHandler{
		service: service,
	}
}

// Create handles POST /api/v1/transcriptions
// Uploads an audio file and starts transcribing it
//
// @Summary Upload audio file for transcription
// @Description Stores the uploaded audio and starts a background transcription job. Poll the job for progress.
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file to transcribe (mp3, mp4, mpeg, mpga, m4a, wav, webm)"
// @Success 202 {object} dto.JobResponse "Transcription started"
// @Failure 413 {object} errors.APIError "File exceeds the upload limit"
// @Failure 422 {object} errors.APIError "Validation error - missing or unsupported file"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcriptions [post]
func (h *TranscriptionHandler) Create(c *gin.Context) {
	header, path, ok := h.saveUpload(c)
	if !ok {
		return
	}

	response := h.service.Start(header.Filename, path)
	c.JSON(http.StatusAccepted, response)
}

// Get handles GET /api/v1/transcriptions/:id
// Retrieves a specific transcription job
//
// @Summary Get transcription by ID
// @Description Returns status, chunk progress and, once completed, the text and statistics
// @Tags transcriptions
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.JobResponse "Job details"
// @Failure 404 {object} errors.APIError "Transcription not found"
// @Router /transcriptions/{id} [get]
func (h *TranscriptionHandler) Get(c *gin.Context) {
	response, err := h.service.Get(c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Cancel handles POST /api/v1/transcriptions/:id/cancel
//
// @Summary Cancel a running transcription
// @Description Requests cancellation. The chunk in flight completes, no further chunk is sent.
// @Tags transcriptions
// @Produce json
// @Param id path string true "Job ID"
// @Success 202 {object} dto.JobResponse "Cancellation requested"
// @Failure 404 {object} errors.APIError "Transcription not found"
// @Failure 409 {object} errors.APIError "Transcription is not running"
// @Router /transcriptions/{id}/cancel [post]
func (h *TranscriptionHandler) Cancel(c *gin.Context) {
	response, err := h.service.Cancel(c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response)
}

// Delete handles DELETE /api/v1/transcriptions/:id
//
// @Summary Delete a transcription
// @Description Cancels the job if it is still running and discards its results and stored artifacts
// @Tags transcriptions
// @Param id path string true "Job ID"
// @Success 204 "Transcription deleted successfully"
// @Failure 404 {object} errors.APIError "Transcription not found"
// @Router /transcriptions/{id} [delete]
func (h *TranscriptionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Download handles GET /api/v1/transcriptions/:id/download
//
// @Summary Download the transcription report
// @Tags transcriptions
// @Produce application/pdf,text/plain
// @Param id path string true "Job ID"
// @Param format query string false "Report format" default(pdf) Enums(pdf,txt)
// @Success 200 {file} file "Report file"
// @Failure 404 {object} errors.APIError "Transcription not found"
// @Failure 409 {object} errors.APIError "Transcription has not completed"
// @Failure 422 {object} errors.APIError "Invalid format"
// @Router /transcriptions/{id}/download [get]
func (h *TranscriptionHandler) Download(c *gin.Context) {
	var query dto.DownloadQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	download, err := h.service.Download(c.Param("id"), query.FormatOrDefault())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+download.FileName+`"`)
	c.Data(http.StatusOK, download.ContentType, download.Data)
}

// Estimate handles POST /api/v1/estimate
//
// @Summary Estimate duration and cost
// @Description Reads the duration of the uploaded audio and prices it without transcribing
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file"
// @Success 200 {object} dto.EstimateResponse "Duration and cost"
// @Failure 413 {object} errors.APIError "File exceeds the upload limit"
// @Failure 422 {object} errors.APIError "Unsupported or undecodable file"
// @Router /estimate [post]
func (h *TranscriptionHandler) Estimate(c *gin.Context) {
	header, path, ok := h.saveUpload(c)
	if !ok {
		return
	}

	response, err := h.service.Estimate(c.Request.Context(), header.Filename, path)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// saveUpload stores the multipart "file" field. It writes the error response
// itself and reports false on failure.
func (h *TranscriptionHandler) saveUpload(c *gin.Context) (*multipart.FileHeader, string, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewValidationError("No file uploaded", map[string]string{"file": "is required"}))
		return nil, "", false
	}

	file, err := header.Open()
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("Unreadable upload"))
		return nil, "", false
	}
	defer file.Close()

	path, err := h.service.SaveUpload(header.Filename, header.Size, file)
	if err != nil {
		middleware.HandleError(c, err)
		return nil, "", false
	}
	return header, path, true
}
