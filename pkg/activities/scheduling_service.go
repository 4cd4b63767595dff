package activities

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/locking"
	"github.com/timeliness-app/activity-tracker/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// now is the current time and is globally available to override it in tests
var now = time.Now

// SchedulingConfig tunes locking and retries of the SchedulingService
type SchedulingConfig struct {
	// LockTTL is how long a distributed lock survives a crashed holder
	LockTTL time.Duration
	// LockTimeout is how long a mutation waits for the activity lock
	LockTimeout time.Duration
	// MaxRetries bounds the retries after ErrConcurrencyConflict
	MaxRetries int
	// RetryBackoff grows linearly with every retry
	RetryBackoff time.Duration
}

// DefaultSchedulingConfig is used for zero values in NewSchedulingService
var DefaultSchedulingConfig = SchedulingConfig{
	LockTTL:      30 * time.Second,
	LockTimeout:  5 * time.Second,
	MaxRetries:   3,
	RetryBackoff: 50 * time.Millisecond,
}

// EventType tells observers what happened to an activity
type EventType string

const (
	// EventCreated is published after CreateActivity
	EventCreated EventType = "created"
	// EventUpdated is published after an occurrence or the priority changed
	EventUpdated EventType = "updated"
	// EventDeleted is published after DeleteActivity
	EventDeleted EventType = "deleted"
)

// ActivityEvent is handed to every ActivityObserver
type ActivityEvent struct {
	Type       EventType
	ActivityID string
	// Activity is nil for EventDeleted
	Activity *Activity
}

// ActivityObserver is an Observer
type ActivityObserver interface {
	OnNotify(event ActivityEvent)
}

// The SchedulingService resolves dates to occurrences and applies timer actions under a per activity lock
type SchedulingService struct {
	repository ActivityRepositoryInterface
	locker     locking.LockerInterface
	cache      ActivityCacheInterface
	logger     logger.Interface
	config     SchedulingConfig

	group       singleflight.Group
	mutex       sync.RWMutex
	subscribers []ActivityObserver
}

// NewSchedulingService constructs a SchedulingService, cache may be nil
func NewSchedulingService(repository ActivityRepositoryInterface, locker locking.LockerInterface,
	cache ActivityCacheInterface, logger logger.Interface, config SchedulingConfig) *SchedulingService {
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultSchedulingConfig.LockTTL
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultSchedulingConfig.LockTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultSchedulingConfig.RetryBackoff
	}

	return &SchedulingService{
		repository: repository,
		locker:     locker,
		cache:      cache,
		logger:     logger,
		config:     config,
	}
}

func lockKey(activityID string) string {
	return "lock:activity:" + activityID
}

func cacheKey(activityID string) string {
	return "activity:" + activityID
}

// CreateActivity persists a new activity anchored at the current time
func (s *SchedulingService) CreateActivity(ctx context.Context, create ActivityCreate) (*Activity, error) {
	activity, err := NewActivity(create, now())
	if err != nil {
		return nil, err
	}

	err = s.repository.Add(ctx, activity)
	if err != nil {
		return nil, errors.Wrap(err, "could not persist activity")
	}

	s.refreshCache(ctx, activity.ID.Hex(), activity)
	s.publish(EventCreated, activity.ID.Hex(), activity)

	return activity, nil
}

// GetActivity finds an activity, reading through the cache.
// The cache is only filled while holding the activity lock, a busy lock skips the fill.
func (s *SchedulingService) GetActivity(ctx context.Context, activityID string) (*Activity, error) {
	if s.cache == nil {
		return s.repository.FindByID(ctx, activityID)
	}

	cached, err := s.cache.Get(ctx, cacheKey(activityID))
	if err == nil {
		return cached, nil
	}

	lock, err := s.locker.Acquire(ctx, lockKey(activityID), s.config.LockTTL, true, s.config.LockTimeout)
	if err != nil {
		return s.repository.FindByID(ctx, activityID)
	}
	defer s.release(ctx, lock)

	activity, err := s.repository.FindByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	err = s.cache.Add(ctx, cacheKey(activityID), activity)
	if err != nil {
		s.logger.Error("could not cache activity", err)
	}

	return activity, nil
}

// ResolveOccurrence returns the occurrence index of the activity on the given day
func (s *SchedulingService) ResolveOccurrence(ctx context.Context, activityID string, day time.Time) (int, error) {
	activity, err := s.GetActivity(ctx, activityID)
	if err != nil {
		return -1, err
	}

	return activity.OccurrenceIndex(day)
}

// ApplyAction runs action on one occurrence as a single atomic read-modify-write and returns the new slot
func (s *SchedulingService) ApplyAction(ctx context.Context, activityID string, index int, action Action) (*Occurrence, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, &ActionError{ActivityID: activityID, Index: index, Action: action, Err: err}
	}

	var result Occurrence
	var updated *Activity

	err := s.mutate(ctx, activityID, func(activity *Activity) error {
		if err := activity.CheckIndex(index); err != nil {
			return err
		}

		next, err := activity.Occurrences[index].Apply(action, activity.TargetDuration, now())
		if err != nil {
			return err
		}

		err = s.repository.UpdateOccurrence(ctx, activityID, index, next, activity.Version)
		if err != nil {
			return err
		}

		activity.Occurrences[index] = next
		activity.Version++
		activity.LastModifiedAt = now()
		s.refreshCache(ctx, activityID, activity)

		result = next
		updated = activity

		return nil
	})
	if err != nil {
		return nil, &ActionError{ActivityID: activityID, Index: index, Action: action, Err: err}
	}

	s.publish(EventUpdated, activityID, updated)

	return &result, nil
}

// ApplyActionOnDate resolves the occurrence of day and applies action to it
func (s *SchedulingService) ApplyActionOnDate(ctx context.Context, activityID string, day time.Time, action Action) (int, *Occurrence, error) {
	activity, err := s.repository.FindByID(ctx, activityID)
	if err != nil {
		return -1, nil, &ActionError{ActivityID: activityID, Index: -1, Action: action, Err: err}
	}

	index, err := activity.OccurrenceIndex(day)
	if err != nil {
		return -1, nil, &ActionError{ActivityID: activityID, Index: -1, Action: action, Err: err}
	}

	occurrence, err := s.ApplyAction(ctx, activityID, index, action)
	return index, occurrence, err
}

// UpdatePriority changes the priority, occurrence state is not involved
func (s *SchedulingService) UpdatePriority(ctx context.Context, activityID string, priority Priority) (*Activity, error) {
	if !priority.Valid() {
		return nil, errors.Wrapf(ErrInvalidPriority, "%q", priority)
	}

	var updated *Activity

	err := s.mutate(ctx, activityID, func(activity *Activity) error {
		err := s.repository.UpdatePriority(ctx, activityID, priority, activity.Version)
		if err != nil {
			return err
		}

		activity.Priority = priority
		activity.Version++
		activity.LastModifiedAt = now()
		s.refreshCache(ctx, activityID, activity)

		updated = activity

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventUpdated, activityID, updated)

	return updated, nil
}

// ListActivities returns all activities, High before Medium before Low, equal priorities in insertion order
func (s *SchedulingService) ListActivities(ctx context.Context) ([]Activity, error) {
	// the shared call must not fail for every waiter when the first caller goes away
	shared := context.WithoutCancel(ctx)

	result, err, _ := s.group.Do("list", func() (interface{}, error) {
		activities, err := s.repository.FindAll(shared)
		if err != nil {
			return nil, err
		}

		sort.SliceStable(activities, func(i, j int) bool {
			return activities[i].Priority.Rank() < activities[j].Priority.Rank()
		})

		return activities, nil
	})
	if err != nil {
		return nil, err
	}

	list := result.([]Activity)
	activities := make([]Activity, 0, len(list))
	for i := range list {
		activities = append(activities, *list[i].Copy())
	}

	return activities, nil
}

// DeleteActivity removes an activity and all of its occurrences
func (s *SchedulingService) DeleteActivity(ctx context.Context, activityID string) error {
	lock, err := s.acquire(ctx, activityID)
	if err != nil {
		return err
	}
	defer s.release(ctx, lock)

	err = s.repository.Delete(ctx, activityID)
	if err != nil {
		return err
	}

	s.refreshCache(ctx, activityID, nil)
	s.publish(EventDeleted, activityID, nil)

	return nil
}

// mutate loads the activity under its lock and hands it to fn. ErrConcurrencyConflict is retried with a fresh
// load up to MaxRetries times, every other error is returned as is.
func (s *SchedulingService) mutate(ctx context.Context, activityID string, fn func(activity *Activity) error) error {
	var err error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Debug(fmt.Sprintf("retrying activity %s, attempt %d: %v", activityID, attempt, err))

			timer := time.NewTimer(s.config.RetryBackoff * time.Duration(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		err = s.mutateOnce(ctx, activityID, fn)
		if !IsRetryable(err) {
			return err
		}
	}

	return err
}

func (s *SchedulingService) mutateOnce(ctx context.Context, activityID string, fn func(activity *Activity) error) error {
	lock, err := s.acquire(ctx, activityID)
	if err != nil {
		return err
	}
	defer s.release(ctx, lock)

	activity, err := s.repository.FindByID(ctx, activityID)
	if err != nil {
		return err
	}

	return fn(activity)
}

func (s *SchedulingService) acquire(ctx context.Context, activityID string) (locking.LockInterface, error) {
	lock, err := s.locker.Acquire(ctx, lockKey(activityID), s.config.LockTTL, false, s.config.LockTimeout)
	if err != nil {
		if errors.Is(err, locking.ErrNotObtained) {
			return nil, errors.Wrapf(ErrConcurrencyConflict, "activity %s is locked", activityID)
		}
		return nil, err
	}

	return lock, nil
}

func (s *SchedulingService) release(ctx context.Context, lock locking.LockInterface) {
	// the lock has to be released even if the request was canceled
	err := lock.Release(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("error releasing lock", errors.Wrapf(err, "error releasing lock %s", lock.Key()))
	}
}

// refreshCache writes the new state through to the cache, nil invalidates.
// Callers hold the activity lock so that cache writes happen in the same order as store writes.
func (s *SchedulingService) refreshCache(ctx context.Context, activityID string, activity *Activity) {
	if s.cache == nil {
		return
	}

	var err error
	if activity != nil {
		err = s.cache.Add(ctx, cacheKey(activityID), activity)
	} else {
		err = s.cache.Invalidate(ctx, cacheKey(activityID))
	}

	if err != nil {
		s.logger.Error("could not refresh activity cache", err)
		_ = s.cache.Invalidate(ctx, cacheKey(activityID))
	}
}

func (s *SchedulingService) publish(eventType EventType, activityID string, activity *Activity) {
	s.Publish(ActivityEvent{Type: eventType, ActivityID: activityID, Activity: activity})
}

// Subscribe is useful for listening to activity changes
func (s *SchedulingService) Subscribe(o ActivityObserver) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.subscribers = append(s.subscribers, o)
}

// Unsubscribe unsubscribes from a subscription
func (s *SchedulingService) Unsubscribe(o ActivityObserver) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, subscriber := range s.subscribers {
		if subscriber == o {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// Publish publishes an event to all subscribers, every subscriber gets its own copy of the activity
func (s *SchedulingService) Publish(event ActivityEvent) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, subscriber := range s.subscribers {
		e := event
		if event.Activity != nil {
			e.Activity = event.Activity.Copy()
		}

		go subscriber.OnNotify(e)
	}
}
