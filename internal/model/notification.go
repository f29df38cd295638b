package model

import "time"

// NotificationKind classifies a user-facing message
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
	NotificationWarning NotificationKind = "warning"
	NotificationInfo    NotificationKind = "info"
)

// Notification is a transient user-facing message
type Notification struct {
	ID        int64
	Message   string
	Kind      NotificationKind
	CreatedAt time.Time
	Duration  time.Duration // <= 0 means permanent until removed
}
