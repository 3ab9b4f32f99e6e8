package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/repository"
	"peakform/coach-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUploadNotFound     = errors.New("upload not found")
	ErrUploadAccessDenied = errors.New("access denied to this upload")
	ErrInvalidUpload      = errors.New("invalid upload request")
)

// MediaService handles recap-video attachments for completed workouts:
// presigned S3 upload URLs, metadata, and download links. The file
// itself never passes through this server.
type MediaService interface {
	RequestUpload(ctx context.Context, userID, recordID primitive.ObjectID, fileName, contentType string, size int64) (uploadURL string, upload *domain.Upload, err error)
	GetDownloadURL(ctx context.Context, userID, recordID primitive.ObjectID) (string, error)
}

// mediaService implements the MediaService interface.
type mediaService struct {
	uploadRepo    repository.UploadRepository
	completedRepo repository.CompletedWorkoutRepository
	fileStorage   storage.FileStorage
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(uploadRepo repository.UploadRepository, completedRepo repository.CompletedWorkoutRepository, fileStorage storage.FileStorage) MediaService {
	return &mediaService{
		uploadRepo:    uploadRepo,
		completedRepo: completedRepo,
		fileStorage:   fileStorage,
	}
}

// RequestUpload verifies the record belongs to the caller, stores the
// upload metadata, and returns a presigned PUT URL the client uploads
// the file to directly.
func (s *mediaService) RequestUpload(ctx context.Context, userID, recordID primitive.ObjectID, fileName, contentType string, size int64) (string, *domain.Upload, error) {
	if fileName == "" || contentType == "" || size <= 0 {
		return "", nil, ErrInvalidUpload
	}
	record, err := s.completedRepo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrRecordNotFound
		}
		return "", nil, err
	}
	if record.UserID != userID {
		return "", nil, ErrUploadAccessDenied
	}

	objectKey := fmt.Sprintf("recaps/%s/%s/%s", userID.Hex(), recordID.Hex(), uuid.NewString())
	upload := &domain.Upload{
		RecordID:    recordID,
		UserID:      userID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	}
	uploadID, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		return "", nil, err
	}
	upload.ID = uploadID

	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", nil, err
	}
	return url, upload, nil
}

// GetDownloadURL returns a presigned GET URL for the recap video
// attached to a completed-workout record.
func (s *mediaService) GetDownloadURL(ctx context.Context, userID, recordID primitive.ObjectID) (string, error) {
	upload, err := s.uploadRepo.GetByRecordID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUploadNotFound
		}
		return "", err
	}
	if upload.UserID != userID {
		return "", ErrUploadAccessDenied
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.S3ObjectKey, 15*time.Minute)
}
