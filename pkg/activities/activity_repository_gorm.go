package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/date"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// activityRecord is the SQL row of an Activity, slices are stored as JSON text
type activityRecord struct {
	ID                string `gorm:"primaryKey;size:24"`
	Name              string
	TargetDuration    int64
	WeeksCount        int
	ScheduledWeekdays string `gorm:"type:text"`
	AnchorDate        time.Time
	Priority          string
	Occurrences       string `gorm:"type:text"`
	Version           int64
	CreatedAt         time.Time `gorm:"index"`
	LastModifiedAt    time.Time
	Sequence          int64     `gorm:"index"`
}

func (activityRecord) TableName() string {
	return "activities"
}

// GormActivityRepository stores activities in a SQL database through gorm
type GormActivityRepository struct {
	db *gorm.DB
}

// NewSQLiteActivityRepository opens a SQLite database and migrates the activities table
func NewSQLiteActivityRepository(dsn string) (*GormActivityRepository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	return NewGormActivityRepository(db)
}

// NewGormActivityRepository migrates the activities table on an open connection
func NewGormActivityRepository(db *gorm.DB) (*GormActivityRepository, error) {
	if err := db.AutoMigrate(&activityRecord{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return &GormActivityRepository{db: db}, nil
}

func toRecord(a *Activity) (*activityRecord, error) {
	weekdays, err := json.Marshal(a.ScheduledWeekdays)
	if err != nil {
		return nil, err
	}

	occurrences, err := json.Marshal(a.Occurrences)
	if err != nil {
		return nil, err
	}

	return &activityRecord{
		ID:                a.ID.Hex(),
		Name:              a.Name,
		TargetDuration:    int64(a.TargetDuration),
		WeeksCount:        a.WeeksCount,
		ScheduledWeekdays: string(weekdays),
		AnchorDate:        a.AnchorDate,
		Priority:          string(a.Priority),
		Occurrences:       string(occurrences),
		Version:           a.Version,
		CreatedAt:         a.CreatedAt,
		LastModifiedAt:    a.LastModifiedAt,
	}, nil
}

func (r *activityRecord) toActivity() (*Activity, error) {
	objectID, err := primitive.ObjectIDFromHex(r.ID)
	if err != nil {
		return nil, err
	}

	a := &Activity{
		ID:             objectID,
		Name:           r.Name,
		TargetDuration: date.Seconds(r.TargetDuration),
		WeeksCount:     r.WeeksCount,
		AnchorDate:     r.AnchorDate,
		Priority:       Priority(r.Priority),
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.LastModifiedAt,
	}

	if err := json.Unmarshal([]byte(r.ScheduledWeekdays), &a.ScheduledWeekdays); err != nil {
		return nil, errors.Wrapf(err, "corrupt weekdays of activity %s", r.ID)
	}

	if err := json.Unmarshal([]byte(r.Occurrences), &a.Occurrences); err != nil {
		return nil, errors.Wrapf(err, "corrupt occurrences of activity %s", r.ID)
	}

	return a, nil
}

// Add adds an activity
func (g *GormActivityRepository) Add(ctx context.Context, activity *Activity) error {
	activity.CreatedAt = time.Now()
	activity.LastModifiedAt = activity.CreatedAt
	activity.ID = primitive.NewObjectID()
	activity.Version = 0

	record, err := toRecord(activity)
	if err != nil {
		return err
	}
	record.Sequence = activity.CreatedAt.UnixNano()

	if err := g.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create activity: %w", err)
	}

	return nil
}

func (g *GormActivityRepository) findRecord(ctx context.Context, activityID string) (*activityRecord, error) {
	if _, err := parseID(activityID); err != nil {
		return nil, err
	}

	var record activityRecord
	err := g.db.WithContext(ctx).Where("id = ?", activityID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", activityID)
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// FindByID finds a specific activity by ID
func (g *GormActivityRepository) FindByID(ctx context.Context, activityID string) (*Activity, error) {
	record, err := g.findRecord(ctx, activityID)
	if err != nil {
		return nil, err
	}

	return record.toActivity()
}

// FindAll finds all activities in insertion order
func (g *GormActivityRepository) FindAll(ctx context.Context) ([]Activity, error) {
	var records []activityRecord
	if err := g.db.WithContext(ctx).Order("sequence, id").Find(&records).Error; err != nil {
		return nil, err
	}

	result := make([]Activity, 0, len(records))
	for i := range records {
		a, err := records[i].toActivity()
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, nil
}

// UpdateOccurrence rewrites the occurrence column with one element replaced
func (g *GormActivityRepository) UpdateOccurrence(ctx context.Context, activityID string, index int, occurrence Occurrence, expectedVersion int64) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record activityRecord
		err := tx.Where("id = ?", activityID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrNotFound, "id %s", activityID)
		}
		if err != nil {
			return err
		}

		var occurrences []Occurrence
		if err := json.Unmarshal([]byte(record.Occurrences), &occurrences); err != nil {
			return errors.Wrapf(err, "corrupt occurrences of activity %s", activityID)
		}

		if index < 0 || index >= len(occurrences) {
			return errors.Wrapf(ErrOutOfRange, "index %d, activity has %d occurrences", index, len(occurrences))
		}
		occurrences[index] = occurrence

		encoded, err := json.Marshal(occurrences)
		if err != nil {
			return err
		}

		return g.versionedUpdate(tx, activityID, expectedVersion, map[string]interface{}{
			"occurrences": string(encoded),
		})
	})
}

// UpdatePriority sets the priority
func (g *GormActivityRepository) UpdatePriority(ctx context.Context, activityID string, priority Priority, expectedVersion int64) error {
	if _, err := parseID(activityID); err != nil {
		return err
	}

	return g.versionedUpdate(g.db.WithContext(ctx), activityID, expectedVersion, map[string]interface{}{
		"priority": string(priority),
	})
}

func (g *GormActivityRepository) versionedUpdate(tx *gorm.DB, activityID string, expectedVersion int64, values map[string]interface{}) error {
	values["version"] = expectedVersion + 1
	values["last_modified_at"] = time.Now()

	result := tx.Model(&activityRecord{}).
		Where("id = ? AND version = ?", activityID, expectedVersion).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&activityRecord{}).Where("id = ?", activityID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return errors.Wrapf(ErrNotFound, "id %s", activityID)
	}

	return errors.Wrapf(ErrConcurrencyConflict, "activity %s is no longer at version %d", activityID, expectedVersion)
}

// Delete deletes an activity
func (g *GormActivityRepository) Delete(ctx context.Context, activityID string) error {
	if _, err := parseID(activityID); err != nil {
		return err
	}

	result := g.db.WithContext(ctx).Where("id = ?", activityID).Delete(&activityRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete activity: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "id %s", activityID)
	}

	return nil
}
