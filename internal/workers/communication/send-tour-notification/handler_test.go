package sendtournotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"admissions-workers/internal/common/config"
	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
)

// ==========================
// Mocks
// ==========================

type MockEmail struct {
	mock.Mock
}

func (m *MockEmail) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockSMS struct {
	mock.Mock
}

func (m *MockSMS) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Enabled:         true,
		MaxJobsActive:   5,
		Timeout:         5 * time.Second,
		EmailEnabled:    true,
		SMSEnabled:      true,
		FromEmail:       "tours@example.org",
		AdmissionsEmail: "admissions@example.org",
		AdmissionsPhone: "+15125550100",
		SiteURL:         "https://visit.example.org",
		SchoolName:      "Saint Stephen's Episcopal School",
	}
}

func createTestHandler(t *testing.T, cfg *Config, email EmailSender, sms SMSSender) *Handler {
	h, err := NewHandler(HandlerOptions{Config: cfg, Email: email, SMS: sms, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func createTestQuiz(timeline string) *models.QuizResponse {
	return &models.QuizResponse{
		GradeLevel: models.GradeHigh,
		Interests:  []string{"stem"},
		Timeline:   timeline,
	}
}

func createTestAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		MatchScore:  88,
		Provider:    models.ProviderFallback,
		KeyInsights: []string{"Strong interest in stem"},
	}
}

func toAddress(input *ses.SendEmailInput) string {
	return input.Destination.ToAddresses[0]
}

// ==========================
// Config Tests
// ==========================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing sender", func(c *Config) { c.FromEmail = "" }, "from_email"},
		{"missing inbox", func(c *Config) { c.AdmissionsEmail = "" }, "admissions_email"},
		{"missing phone", func(c *Config) { c.AdmissionsPhone = "" }, "admissions_phone"},
		{"email disabled skips checks", func(c *Config) { c.EmailEnabled = false; c.FromEmail = "" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	appConfig := &config.Config{}
	appConfig.App.SiteURL = "https://visit.example.org"
	appConfig.Notifications.Email.Enabled = true
	appConfig.Notifications.Email.FromEmail = "tours@example.org"
	appConfig.Notifications.SMS.AdmissionsPhone = "+15125550100"

	cfg := LoadConfig(appConfig)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.EmailEnabled)
	assert.Equal(t, "tours@example.org", cfg.FromEmail)
	assert.Equal(t, "+15125550100", cfg.AdmissionsPhone)
	assert.Equal(t, "https://visit.example.org", cfg.SiteURL)
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_AdmissionsLeadThisYear(t *testing.T) {
	email := &MockEmail{}
	sms := &MockSMS{}
	email.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return toAddress(in) == "admissions@example.org" &&
			aws.ToString(in.Source) == "tours@example.org" &&
			aws.ToString(in.Message.Subject.Data) == "New tour match: Rivera (high)"
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil)
	sms.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.PhoneNumber) == "+15125550100" &&
			aws.ToString(in.Message) == "Saint Stephen's Episcopal School: Rivera (high) wants to start this year. Match 88%. Session s-1"
	})).Return(&sns.PublishOutput{}, nil)

	h := createTestHandler(t, createTestConfig(), email, sms)
	output, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationAdmissionsLead,
		FamilyName:       "Rivera",
		SessionID:        "s-1",
		Quiz:             createTestQuiz(models.TimelineThisYear),
		Analysis:         createTestAnalysis(),
	})

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusSent, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, "https://visit.example.org/booking", output.BookingLink)
	require.Len(t, output.Deliveries, 2)
	assert.Equal(t, "email", output.Deliveries[0].Channel)
	assert.Equal(t, "sms", output.Deliveries[1].Channel)
	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestExecute_AdmissionsLeadLaterSkipsSMS(t *testing.T) {
	email := &MockEmail{}
	sms := &MockSMS{}
	email.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{}, nil)

	h := createTestHandler(t, createTestConfig(), email, sms)
	output, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationAdmissionsLead,
		Quiz:             createTestQuiz(models.TimelineNextFall),
	})

	require.NoError(t, err)
	assert.Len(t, output.Deliveries, 1)
	sms.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestExecute_PartnerShare(t *testing.T) {
	t.Run("mailto only", func(t *testing.T) {
		email := &MockEmail{}
		h := createTestHandler(t, createTestConfig(), email, nil)

		output, err := h.Execute(context.Background(), &Input{
			NotificationType: models.NotificationPartnerShare,
			Analysis:         createTestAnalysis(),
		})

		require.NoError(t, err)
		assert.Equal(t, models.NotificationStatusDisabled, output.Status)
		assert.Contains(t, output.MailtoLink, "mailto:?subject=Check%20out%20this%20school%20match")
		assert.Contains(t, output.MailtoLink, "https%3A%2F%2Fvisit.example.org%2Fquiz")
		email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("emailed to partner", func(t *testing.T) {
		email := &MockEmail{}
		email.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
			return toAddress(in) == "partner@example.com"
		})).Return(&ses.SendEmailOutput{}, nil)
		h := createTestHandler(t, createTestConfig(), email, nil)

		output, err := h.Execute(context.Background(), &Input{
			NotificationType: models.NotificationPartnerShare,
			RecipientEmail:   "partner@example.com",
			Analysis:         createTestAnalysis(),
		})

		require.NoError(t, err)
		assert.Equal(t, models.NotificationStatusSent, output.Status)
		assert.NotEmpty(t, output.MailtoLink)
		email.AssertExpectations(t)
	})
}

func TestExecute_EmailDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	email := &MockEmail{}

	h := createTestHandler(t, cfg, email, nil)
	output, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationTourConfirmation,
		RecipientEmail:   "family@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusDisabled, output.Status)
	assert.Empty(t, output.Deliveries)
	email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestExecute_DeliveryFailure(t *testing.T) {
	email := &MockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	h := createTestHandler(t, createTestConfig(), email, nil)
	output, err := h.Execute(context.Background(), &Input{
		NotificationType: models.NotificationTourConfirmation,
		RecipientEmail:   "family@example.com",
	})

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	require.NotNil(t, output)
	assert.Equal(t, models.NotificationStatusFailed, output.Status)
}

func TestExecute_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   *Input
		message string
	}{
		{"unknown type", &Input{NotificationType: "newsletter"}, "Unsupported notification type"},
		{"confirmation without recipient", &Input{NotificationType: models.NotificationTourConfirmation}, "Tour confirmation requires a recipient"},
		{"bad email", &Input{NotificationType: models.NotificationPartnerShare, RecipientEmail: "partner-at-example"}, "Invalid recipient email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, createTestConfig(), &MockEmail{}, &MockSMS{})

			_, err := h.Execute(context.Background(), tt.input)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, tt.message, stdErr.Message)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, isValidEmail("family@example.com"))
	assert.True(t, isValidEmail(" family@example.com "))
	assert.False(t, isValidEmail("family@example"))
	assert.False(t, isValidEmail("@example.com"))
	assert.False(t, isValidEmail("a@b@example.com"))
	assert.False(t, isValidEmail(""))
}
