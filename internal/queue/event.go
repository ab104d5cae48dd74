// Package queue defines message payloads exchanged over the message broker.
package queue

// RankAssignedQueue is the durable queue carrying RankAssignedEvent.
const RankAssignedQueue = "rank.assigned"

// RankAssignedEvent is published when a signup lands a rank that earns
// a voucher tier.  It carries the contact details the notification
// consumer needs so it does not have to query the primary database.
type RankAssignedEvent struct {
	MessageID    string `json:"message_id"`
	RegistrantID uint64 `json:"registrant_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Rank         int    `json:"rank"`
	TierID       string `json:"tier_id"`
	TierName     string `json:"tier_name"`
	AssignedAt   string `json:"assigned_at"`
}
