package notification

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/dependencies/clock"
	"github.com/mcoot/quizclient/internal/model"
)

// Default display durations per kind
const (
	DefaultSuccessDuration = 4000 * time.Millisecond
	DefaultErrorDuration   = 6000 * time.Millisecond
	DefaultWarningDuration = 5000 * time.Millisecond
	DefaultInfoDuration    = 4000 * time.Millisecond
)

// subscriberBuffer is the number of snapshots a slow subscriber may lag
const subscriberBuffer = 16

// Service holds the ordered list of live notifications. Timed notifications
// remove themselves through the injected clock.
type Service struct {
	clock  clock.Clock
	logger *slog.Logger

	mu            sync.Mutex
	nextID        int64
	notifications []model.Notification
	timers        map[int64]clock.Timer

	nextSubID   int
	subscribers map[int]chan []model.Notification
}

// New creates a new notification service
func New(clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		clock:       clk,
		logger:      logger.With(slog.String("component", "notifications")),
		nextID:      1,
		timers:      make(map[int64]clock.Timer),
		subscribers: make(map[int]chan []model.Notification),
	}
}

// AddNotification appends a notification and returns its id. A positive
// duration schedules its removal; otherwise it stays until removed.
func (s *Service) AddNotification(message string, kind model.NotificationKind, duration time.Duration) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	s.notifications = append(s.notifications, model.Notification{
		ID:        id,
		Message:   message,
		Kind:      kind,
		CreatedAt: s.clock.Now(),
		Duration:  duration,
	})
	if duration > 0 {
		s.timers[id] = s.clock.AfterFunc(duration, func() {
			s.RemoveNotification(id)
		})
	}

	s.logger.Debug("notification added",
		slog.Int64("id", id),
		slog.String("kind", string(kind)),
		slog.Duration("duration", duration),
	)
	s.publishLocked()
	return id
}

// RemoveNotification removes the notification with the given id. Unknown
// ids are ignored.
func (s *Service) RemoveNotification(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			s.publishLocked()
			return
		}
	}
}

// ClearAll removes every notification and cancels their pending timers
func (s *Service) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.notifications = nil
	s.publishLocked()
}

// Notifications returns a snapshot of the live notifications in insertion
// order
func (s *Service) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// NotifySuccess adds a success notification (4s unless a duration is given)
func (s *Service) NotifySuccess(message string, duration ...time.Duration) int64 {
	return s.AddNotification(message, model.NotificationSuccess, pick(duration, DefaultSuccessDuration))
}

// NotifyError adds an error notification (6s unless a duration is given)
func (s *Service) NotifyError(message string, duration ...time.Duration) int64 {
	return s.AddNotification(message, model.NotificationError, pick(duration, DefaultErrorDuration))
}

// NotifyWarning adds a warning notification (5s unless a duration is given)
func (s *Service) NotifyWarning(message string, duration ...time.Duration) int64 {
	return s.AddNotification(message, model.NotificationWarning, pick(duration, DefaultWarningDuration))
}

// NotifyInfo adds an info notification (4s unless a duration is given)
func (s *Service) NotifyInfo(message string, duration ...time.Duration) int64 {
	return s.AddNotification(message, model.NotificationInfo, pick(duration, DefaultInfoDuration))
}

// HandleAPIError turns a failure into a single error notification. The
// message is the first non-empty of: the API error's user message, the
// backend's error field, the error text, defaultMessage.
func (s *Service) HandleAPIError(err error, defaultMessage string) int64 {
	return s.NotifyError(messageFor(err, defaultMessage))
}

func messageFor(err error, defaultMessage string) string {
	if err == nil {
		return defaultMessage
	}
	if apiErr, ok := apierr.As(err); ok {
		if apiErr.UserMessage != "" {
			return apiErr.UserMessage
		}
		if apiErr.ServerMessage != "" {
			return apiErr.ServerMessage
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultMessage
}

// Subscribe returns a channel receiving a snapshot after every change, and a
// function to stop the subscription. Snapshots are dropped for subscribers
// that fall behind.
func (s *Service) Subscribe() (<-chan []model.Notification, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan []model.Notification, subscriberBuffer)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	for id, ch := range s.subscribers {
		select {
		case ch <- s.snapshotLocked():
		default:
			s.logger.Warn("notification snapshot dropped - subscriber buffer full",
				slog.Int("subscriber", id))
		}
	}
}

func (s *Service) snapshotLocked() []model.Notification {
	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func pick(duration []time.Duration, def time.Duration) time.Duration {
	if len(duration) > 0 {
		return duration[0]
	}
	return def
}
