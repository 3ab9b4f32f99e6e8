package mongo

import (
	"context"
	"errors"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "workout_plans"

// mongoPlanRepository implements repository.WorkoutPlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new WorkoutPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan, initializing its version counter.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan requires userId and title")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	plan.Version = 1

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateActive
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByUserID retrieves all plans owned by a user, newest first.
func (r *mongoPlanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	var plans []domain.WorkoutPlan
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	// Return empty slice if no plans found (not an error)
	return plans, nil
}

// GetActiveByUserID retrieves the user's single active plan. The partial
// unique index guarantees at most one document can match.
func (r *mongoPlanRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	filter := bson.M{"userId": userID, "status": domain.PlanActive}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Save replaces the stored plan with an optimistic-concurrency check:
// the filter matches on both _id and the version the caller loaded, and
// the write bumps the version. A MatchedCount of zero with the plan
// still present means another writer got there first.
func (r *mongoPlanRepository) Save(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for save")
	}

	loadedVersion := plan.Version
	plan.Version = loadedVersion + 1
	plan.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": plan.ID, "version": loadedVersion}
	result, err := r.collection.ReplaceOne(ctx, filter, plan)
	if err != nil {
		plan.Version = loadedVersion
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateActive
		}
		return err
	}
	if result.MatchedCount == 0 {
		plan.Version = loadedVersion
		// Distinguish "gone" from "stale" so the caller can react.
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": plan.ID})
		if countErr == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}
	return nil
}

// Delete removes a plan, enforcing ownership in the filter.
func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	if id == primitive.NilObjectID || userID == primitive.NilObjectID {
		return errors.New("plan ID and user ID are required for deletion")
	}
	filter := bson.M{"_id": id, "userId": userID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
// The partial unique index on (userId, status=active) is what enforces
// the at-most-one-active-plan-per-user contract.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.PlanActive)}),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
