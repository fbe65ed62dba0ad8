package events

import (
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAuthStateChanged         EventType = "auth.state_changed"
	EventTypeWalletTransactionCreated EventType = "wallet.transaction_created"
	EventTypeWalletTransactionSettled EventType = "wallet.transaction_settled"
	EventTypeParticipantJoined        EventType = "participant.joined"
	EventTypeParticipantRemoved       EventType = "participant.removed"
	EventTypeResultMarked             EventType = "result.marked"
	EventTypeTournamentStatusChanged  EventType = "tournament.status_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AuthEvent 会话状态变化种类
type AuthEvent string

const (
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
	AuthTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	AuthUserUpdated    AuthEvent = "USER_UPDATED"
)

type AuthStateChangedEvent struct {
	Event     AuthEvent `json:"event"`
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

func (e AuthStateChangedEvent) Type() EventType {
	return EventTypeAuthStateChanged
}

type WalletTransactionCreatedEvent struct {
	TransactionID int64  `json:"transaction_id"`
	Reference     string `json:"reference"`
	UserID        int64  `json:"user_id"`
	TxType        string `json:"type"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
}

func (e WalletTransactionCreatedEvent) Type() EventType {
	return EventTypeWalletTransactionCreated
}

// WalletTransactionSettledEvent 单据审核完成（completed 或 failed）
type WalletTransactionSettledEvent struct {
	TransactionID int64  `json:"transaction_id"`
	Reference     string `json:"reference"`
	UserID        int64  `json:"user_id"`
	TxType        string `json:"type"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Refunded      bool   `json:"refunded"`
	Note          string `json:"note,omitempty"`
	ProcessedBy   int64  `json:"processed_by"`
}

func (e WalletTransactionSettledEvent) Type() EventType {
	return EventTypeWalletTransactionSettled
}

type ParticipantJoinedEvent struct {
	ParticipantID   int64  `json:"participant_id"`
	TournamentID    int64  `json:"tournament_id"`
	TournamentTitle string `json:"tournament_title"`
	UserID          int64  `json:"user_id"`
	SlotNumber      int    `json:"slot_number"`
	PaymentMethod   string `json:"payment_method"`
	PaymentStatus   string `json:"payment_status"`
}

func (e ParticipantJoinedEvent) Type() EventType {
	return EventTypeParticipantJoined
}

type ParticipantRemovedEvent struct {
	ParticipantID int64  `json:"participant_id"`
	TournamentID  int64  `json:"tournament_id"`
	UserID        int64  `json:"user_id"`
	Reason        string `json:"reason"`
}

func (e ParticipantRemovedEvent) Type() EventType {
	return EventTypeParticipantRemoved
}

type ResultMarkedEvent struct {
	ParticipantID   int64  `json:"participant_id"`
	TournamentID    int64  `json:"tournament_id"`
	TournamentTitle string `json:"tournament_title"`
	UserID          int64  `json:"user_id"`
	Result          string `json:"result"`
	MarkedBy        int64  `json:"marked_by"`
}

func (e ResultMarkedEvent) Type() EventType {
	return EventTypeResultMarked
}

type TournamentStatusChangedEvent struct {
	TournamentID int64  `json:"tournament_id"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
}

func (e TournamentStatusChangedEvent) Type() EventType {
	return EventTypeTournamentStatusChanged
}
