package api

import (
	"errors"
	"fmt"
	"net/http"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaHandler holds the media service dependency.
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// --- Request Structs ---

type RequestUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// --- Response Structs ---

type UploadURLResponse struct {
	UploadURL string         `json:"uploadUrl"`
	Upload    *domain.Upload `json:"upload"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// --- Handler Methods ---

// RequestUpload godoc
// @Summary Request a presigned upload URL for a recap video
// @Description Returns a presigned S3 PUT URL; the client uploads the file directly.
// @Tags Media
// @Accept json
// @Produce json
// @Param recordId path string true "Completed workout record ID"
// @Param body body RequestUploadRequest true "File metadata"
// @Success 201 {object} UploadURLResponse
// @Failure 403 {object} gin.H "Record belongs to another user"
// @Failure 404 {object} gin.H "Record not found"
// @Security ApiKeyAuth
// @Router /history/{recordId}/recap [post]
func (h *MediaHandler) RequestUpload(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("recordId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}
	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	url, upload, err := h.mediaService.RequestUpload(c.Request.Context(), userID, recordID, req.FileName, req.ContentType, req.Size)
	if err != nil {
		writeMediaError(c, err)
		return
	}
	c.JSON(http.StatusCreated, UploadURLResponse{UploadURL: url, Upload: upload})
}

// GetDownloadURL godoc
// @Summary Get a presigned download URL for a recap video
// @Tags Media
// @Produce json
// @Param recordId path string true "Completed workout record ID"
// @Success 200 {object} DownloadURLResponse
// @Failure 404 {object} gin.H "No recap attached"
// @Security ApiKeyAuth
// @Router /history/{recordId}/recap [get]
func (h *MediaHandler) GetDownloadURL(c *gin.Context) {
	userID, err := getUserObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve user from token")
		return
	}
	recordID, err := primitive.ObjectIDFromHex(c.Param("recordId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid record ID format")
		return
	}
	url, err := h.mediaService.GetDownloadURL(c.Request.Context(), userID, recordID)
	if err != nil {
		writeMediaError(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{DownloadURL: url})
}

func writeMediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUploadNotFound), errors.Is(err, service.ErrRecordNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUploadAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidUpload):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
