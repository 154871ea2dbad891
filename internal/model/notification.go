package model

import "time"

// NotificationRecord marks that an alert for a (channel, scope, month, status)
// quadruple has been delivered. These are the only records with a lifecycle
// spanning process invocations: created on first send, consulted before every
// later send decision, removed only by an explicit state reset.
type NotificationRecord struct {
	SentAt  time.Time
	Channel string
	Scope   string
	Month   Month
	Status  BudgetStatusValue
}

// DeliveryResult is the outcome of one notification attempt on one channel.
type DeliveryResult struct {
	Err     error
	Channel string
	Success bool
}
