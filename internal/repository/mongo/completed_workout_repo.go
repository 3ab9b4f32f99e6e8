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

const completedWorkoutCollectionName = "completed_workouts"

// mongoCompletedWorkoutRepository implements repository.CompletedWorkoutRepository
type mongoCompletedWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoCompletedWorkoutRepository creates a new CompletedWorkout repository.
func NewMongoCompletedWorkoutRepository(db *mongo.Database) repository.CompletedWorkoutRepository {
	return &mongoCompletedWorkoutRepository{
		collection: db.Collection(completedWorkoutCollectionName),
	}
}

// Create inserts a new completed-workout record.
func (r *mongoCompletedWorkoutRepository) Create(ctx context.Context, record *domain.CompletedWorkout) (primitive.ObjectID, error) {
	if record.UserID == primitive.NilObjectID || record.SessionID == "" {
		return primitive.NilObjectID, errors.New("completed workout requires userId and sessionId")
	}
	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single record by its ID.
func (r *mongoCompletedWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CompletedWorkout, error) {
	var record domain.CompletedWorkout
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByUserID retrieves a user's workout history, most recent first.
func (r *mongoCompletedWorkoutRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CompletedWorkout, error) {
	var records []domain.CompletedWorkout
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	if limit > 0 {
		findOptions = findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureCompletedWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureCompletedWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "completedAt", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
