package repository

import (
	"context"

	"peakform/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound        = RepositoryError("not found")
	ErrDuplicate       = RepositoryError("already exists")
	ErrVersionConflict = RepositoryError("version conflict")
	ErrDuplicateActive = RepositoryError("user already has an active plan")
	ErrUpdateFailed    = RepositoryError("update failed")
	ErrDeleteFailed    = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// WorkoutPlanRepository defines the interface for interacting with
// workout plan data. Save performs a versioned write: the stored plan is
// replaced only when its stored version matches plan.Version, returning
// ErrVersionConflict otherwise, so two devices issuing commands against
// the same plan cannot silently overwrite each other. At most one
// active plan per user is a query contract backed by a partial unique
// index on (userId, status=active).
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	Save(ctx context.Context, plan *domain.WorkoutPlan) error
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
}

// CompletedWorkoutRepository stores the durable history records built
// from finished sessions.
type CompletedWorkoutRepository interface {
	Create(ctx context.Context, record *domain.CompletedWorkout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CompletedWorkout, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CompletedWorkout, error)
}

// UploadRepository defines the interface for recap-video upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
	GetByRecordID(ctx context.Context, recordID primitive.ObjectID) (*domain.Upload, error)
}
