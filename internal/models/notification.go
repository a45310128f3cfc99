// internal/models/notification.go
package models

// Notification types sent by the tour notification worker.
const (
	NotificationAdmissionsLead   = "admissions_lead"
	NotificationPartnerShare     = "partner_share"
	NotificationTourConfirmation = "tour_confirmation"
)

// Notification statuses.
const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)

type Notification struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Channel   string                 `json:"channel"` // "email", "sms"
	Recipient string                 `json:"recipient"`
	Status    string                 `json:"status"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	SentAt    string                 `json:"sentAt,omitempty"`
}

type NotificationTemplate struct {
	Type     string `json:"type"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
}
