package activities

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryActivityRepository keeps activities in process memory, it is used for development and tests
type MemoryActivityRepository struct {
	mutex      sync.RWMutex
	activities []*Activity
}

// NewMemoryActivityRepository constructs an empty MemoryActivityRepository
func NewMemoryActivityRepository() *MemoryActivityRepository {
	return &MemoryActivityRepository{}
}

func (m *MemoryActivityRepository) find(activityID string) (int, error) {
	objectID, err := parseID(activityID)
	if err != nil {
		return -1, err
	}

	for i, a := range m.activities {
		if a.ID == objectID {
			return i, nil
		}
	}

	return -1, errors.Wrapf(ErrNotFound, "id %s", activityID)
}

// Add adds an activity
func (m *MemoryActivityRepository) Add(_ context.Context, activity *Activity) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	activity.CreatedAt = time.Now()
	activity.LastModifiedAt = activity.CreatedAt
	activity.ID = primitive.NewObjectID()
	activity.Version = 0

	m.activities = append(m.activities, activity.Copy())
	return nil
}

// FindByID finds an activity, the result is a copy
func (m *MemoryActivityRepository) FindByID(_ context.Context, activityID string) (*Activity, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i, err := m.find(activityID)
	if err != nil {
		return nil, err
	}

	return m.activities[i].Copy(), nil
}

// FindAll finds all activities in insertion order
func (m *MemoryActivityRepository) FindAll(_ context.Context) ([]Activity, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]Activity, 0, len(m.activities))
	for _, a := range m.activities {
		result = append(result, *a.Copy())
	}

	return result, nil
}

func (m *MemoryActivityRepository) update(activityID string, expectedVersion int64, mutate func(a *Activity) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	i, err := m.find(activityID)
	if err != nil {
		return err
	}

	stored := m.activities[i]
	if stored.Version != expectedVersion {
		return errors.Wrapf(ErrConcurrencyConflict, "activity %s is no longer at version %d", activityID, expectedVersion)
	}

	updated := stored.Copy()
	err = mutate(updated)
	if err != nil {
		return err
	}

	updated.Version++
	updated.LastModifiedAt = time.Now()
	m.activities[i] = updated

	return nil
}

// UpdateOccurrence sets a single element of the occurrence array
func (m *MemoryActivityRepository) UpdateOccurrence(_ context.Context, activityID string, index int, occurrence Occurrence, expectedVersion int64) error {
	return m.update(activityID, expectedVersion, func(a *Activity) error {
		if err := a.CheckIndex(index); err != nil {
			return err
		}

		a.Occurrences[index] = occurrence.Copy()
		return nil
	})
}

// UpdatePriority sets the priority
func (m *MemoryActivityRepository) UpdatePriority(_ context.Context, activityID string, priority Priority, expectedVersion int64) error {
	return m.update(activityID, expectedVersion, func(a *Activity) error {
		a.Priority = priority
		return nil
	})
}

// Delete deletes an activity
func (m *MemoryActivityRepository) Delete(_ context.Context, activityID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	i, err := m.find(activityID)
	if err != nil {
		return err
	}

	m.activities = append(m.activities[:i], m.activities[i+1:]...)
	return nil
}
