package sendtournotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	commonaws "admissions-workers/internal/common/aws"
	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
	"admissions-workers/internal/notify"
)

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type ServiceDependencies struct {
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
	Now    func() time.Time
}

type Service struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{config: config, email: deps.Email, sms: deps.SMS, logger: deps.Logger, now: now}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         models.NotificationStatusDisabled,
		SentAt:         s.now().UTC(),
		BookingLink:    notify.BookingLink(s.config.SiteURL),
	}

	nctx := notify.Context{
		SchoolName:     s.config.SchoolName,
		SiteURL:        s.config.SiteURL,
		FamilyName:     input.FamilyName,
		RecipientEmail: input.RecipientEmail,
		SessionID:      input.SessionID,
		Quiz:           input.Quiz,
		Analysis:       input.Analysis,
	}
	msg, err := notify.RenderNotification(input.NotificationType, nctx)
	if err != nil {
		return nil, apperrors.NewBusinessRuleError("Unsupported notification type", err.Error())
	}

	if input.NotificationType == models.NotificationPartnerShare {
		output.MailtoLink = notify.PartnerShareMailto(s.config.SiteURL, input.Analysis)
	}

	if recipient := s.emailRecipient(input); recipient != "" && s.config.EmailEnabled && s.email != nil {
		delivery := s.deliver(models.Notification{Type: input.NotificationType, Channel: "email", Recipient: recipient}, func() error {
			_, err := s.email.SendEmail(ctx, commonaws.BuildEmail(s.config.FromEmail, recipient, msg.Subject, msg.Body, ""))
			return err
		})
		output.Deliveries = append(output.Deliveries, delivery)
	}

	if s.wantsSMS(input) {
		text := notify.Render(notify.SMSTemplate, nctx.Vars())
		delivery := s.deliver(models.Notification{Type: input.NotificationType, Channel: "sms", Recipient: s.config.AdmissionsPhone}, func() error {
			_, err := s.sms.Publish(ctx, commonaws.BuildSMS(s.config.AdmissionsPhone, text))
			return err
		})
		output.Deliveries = append(output.Deliveries, delivery)
	}

	for _, d := range output.Deliveries {
		if d.Status == models.NotificationStatusFailed {
			output.Status = models.NotificationStatusFailed
			return output, apperrors.NewNotificationSendFailedError(input.NotificationType,
				fmt.Errorf("%s delivery to %s failed", d.Channel, d.Recipient))
		}
		output.Status = models.NotificationStatusSent
	}

	s.logger.Info("notification processed", map[string]interface{}{
		"notificationId":   output.NotificationID,
		"notificationType": input.NotificationType,
		"status":           output.Status,
		"deliveries":       len(output.Deliveries),
	})
	return output, nil
}

func (s *Service) deliver(n models.Notification, send func() error) models.Notification {
	n.ID = uuid.New().String()
	if err := send(); err != nil {
		s.logger.Error("notification delivery failed", map[string]interface{}{
			"channel": n.Channel,
			"type":    n.Type,
			"error":   err.Error(),
		})
		n.Status = models.NotificationStatusFailed
		return n
	}
	n.Status = models.NotificationStatusSent
	n.SentAt = s.now().UTC().Format(time.RFC3339)
	return n
}

// emailRecipient returns who receives the email for the notification type.
func (s *Service) emailRecipient(input *Input) string {
	switch input.NotificationType {
	case models.NotificationAdmissionsLead:
		return s.config.AdmissionsEmail
	default:
		return input.RecipientEmail
	}
}

// wantsSMS alerts admissions about leads who want to start this year.
func (s *Service) wantsSMS(input *Input) bool {
	return input.NotificationType == models.NotificationAdmissionsLead &&
		s.config.SMSEnabled && s.sms != nil &&
		input.Quiz != nil && input.Quiz.Timeline == models.TimelineThisYear
}

func (s *Service) validate(input *Input) error {
	switch input.NotificationType {
	case models.NotificationAdmissionsLead, models.NotificationPartnerShare:
	case models.NotificationTourConfirmation:
		if input.RecipientEmail == "" {
			return apperrors.NewBusinessRuleError("Tour confirmation requires a recipient", "recipientEmail is empty")
		}
	default:
		return apperrors.NewBusinessRuleError("Unsupported notification type", input.NotificationType)
	}

	if input.RecipientEmail != "" && !isValidEmail(input.RecipientEmail) {
		return apperrors.NewBusinessRuleError("Invalid recipient email", input.RecipientEmail)
	}
	return nil
}

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".") && !strings.Contains(domain, "@")
}
