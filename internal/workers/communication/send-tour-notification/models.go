package sendtournotification

import (
	"time"

	"admissions-workers/internal/models"
)

type Input struct {
	NotificationType string                 `json:"notificationType"`
	RecipientEmail   string                 `json:"recipientEmail,omitempty"`
	FamilyName       string                 `json:"familyName,omitempty"`
	SessionID        string                 `json:"sessionId,omitempty"`
	Analysis         *models.AnalysisResult `json:"analysis,omitempty"`
	Quiz             *models.QuizResponse   `json:"quiz,omitempty"`
}

type Output struct {
	NotificationID string                `json:"notificationId"`
	Status         string                `json:"status"`
	SentAt         time.Time             `json:"sentAt"`
	MailtoLink     string                `json:"mailtoLink,omitempty"`
	BookingLink    string                `json:"bookingLink,omitempty"`
	Deliveries     []models.Notification `json:"deliveries,omitempty"`
}
