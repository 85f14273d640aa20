package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberLoggedIn         EventType = "member_logged_in"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
	EventRegistrationStarted    EventType = "registration_started"
	EventRegistrationStepSaved  EventType = "registration_step_saved"
	EventRegistrationCompleted  EventType = "registration_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MemberID  string      `json:"member_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RegistrationStepPayload carries step progress for activity logging.
type RegistrationStepPayload struct {
	TrackingNumber string `json:"tracking_number"`
	Step           int    `json:"step"`
}
