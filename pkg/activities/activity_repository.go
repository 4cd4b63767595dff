package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepositoryInterface stores one document per Activity.
// Updates carry the version the caller loaded and fail with ErrConcurrencyConflict if it moved.
type ActivityRepositoryInterface interface {
	Add(ctx context.Context, activity *Activity) error
	FindByID(ctx context.Context, activityID string) (*Activity, error)
	FindAll(ctx context.Context) ([]Activity, error)
	UpdateOccurrence(ctx context.Context, activityID string, index int, occurrence Occurrence, expectedVersion int64) error
	UpdatePriority(ctx context.Context, activityID string, priority Priority, expectedVersion int64) error
	Delete(ctx context.Context, activityID string) error
}

// MongoDBActivityRepository does everything related to storing and finding activities in MongoDB
type MongoDBActivityRepository struct {
	DB     *mongo.Collection
	Logger logger.Interface
}

func parseID(activityID string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(activityID)
	if err != nil {
		return objectID, errors.Wrapf(ErrNotFound, "malformed id %q", activityID)
	}

	return objectID, nil
}

// EnsureIndexes creates the indexes FindAll relies on
func (s *MongoDBActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := s.DB.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	})

	return err
}

// Add adds an activity
func (s *MongoDBActivityRepository) Add(ctx context.Context, activity *Activity) error {
	activity.CreatedAt = time.Now()
	activity.LastModifiedAt = activity.CreatedAt
	activity.ID = primitive.NewObjectID()
	activity.Version = 0

	_, err := s.DB.InsertOne(ctx, activity)
	return err
}

// FindByID finds a specific activity by ID
func (s *MongoDBActivityRepository) FindByID(ctx context.Context, activityID string) (*Activity, error) {
	objectID, err := parseID(activityID)
	if err != nil {
		return nil, err
	}

	result := s.DB.FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(ErrNotFound, "id %s", activityID)
		}
		return nil, result.Err()
	}

	a := Activity{}
	err = result.Decode(&a)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// FindAll finds all activities in insertion order
func (s *MongoDBActivityRepository) FindAll(ctx context.Context) ([]Activity, error) {
	a := []Activity{}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.DB.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}

	err = cursor.All(ctx, &a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// UpdateOccurrence sets a single element of the occurrence array
func (s *MongoDBActivityRepository) UpdateOccurrence(ctx context.Context, activityID string, index int, occurrence Occurrence, expectedVersion int64) error {
	return s.versionedUpdate(ctx, activityID, expectedVersion, bson.M{
		fmt.Sprintf("occurrences.%d", index): occurrence,
	})
}

// UpdatePriority sets the priority
func (s *MongoDBActivityRepository) UpdatePriority(ctx context.Context, activityID string, priority Priority, expectedVersion int64) error {
	return s.versionedUpdate(ctx, activityID, expectedVersion, bson.M{
		"priority": priority,
	})
}

func (s *MongoDBActivityRepository) versionedUpdate(ctx context.Context, activityID string, expectedVersion int64, set bson.M) error {
	objectID, err := parseID(activityID)
	if err != nil {
		return err
	}

	set["lastModifiedAt"] = time.Now()

	result, err := s.DB.UpdateOne(ctx,
		bson.M{"_id": objectID, "version": expectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 1 {
		return nil
	}

	count, err := s.DB.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if count == 0 {
		return errors.Wrapf(ErrNotFound, "id %s", activityID)
	}

	return errors.Wrapf(ErrConcurrencyConflict, "activity %s is no longer at version %d", activityID, expectedVersion)
}

// Delete deletes an activity with all its occurrences
func (s *MongoDBActivityRepository) Delete(ctx context.Context, activityID string) error {
	objectID, err := parseID(activityID)
	if err != nil {
		return err
	}

	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.Wrapf(ErrNotFound, "id %s", activityID)
	}

	return nil
}
