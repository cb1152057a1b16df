package mq

// Routing keys on the events exchange.
const (
	RoutingKeyEmailSent      = "email.sent"
	RoutingKeyProfileUpdated = "profile.updated"
)

// EmailSentPayload is published by the mail-sending path for every outgoing
// email. The body is the trimmed plain-text content.
type EmailSentPayload struct {
	ConnectionID string `json:"connection_id"`
	EmailID      int64  `json:"email_id"`
	Body         string `json:"body"`
	TraceID      string `json:"trace_id,omitempty"`
}

// ProfileUpdatedPayload announces that a connection's style profile advanced
// to a new message count. Consumed by the AI-composition feature to refresh
// cached profiles.
type ProfileUpdatedPayload struct {
	ConnectionID string `json:"connection_id"`
	NumMessages  int64  `json:"num_messages"`
	TraceID      string `json:"trace_id,omitempty"`
}
