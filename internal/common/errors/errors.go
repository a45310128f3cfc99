// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeQuizValidationFailed ErrorCode = "QUIZ_VALIDATION_FAILED"

	ErrCodeKnowledgeBaseLoadFailed ErrorCode = "KNOWLEDGE_BASE_LOAD_FAILED"
	ErrCodeKnowledgeBaseEmpty      ErrorCode = "KNOWLEDGE_BASE_EMPTY"

	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed  ErrorCode = "LLM_SYNTHESIS_FAILED"
	ErrCodeModelOutputInvalid  ErrorCode = "MODEL_OUTPUT_INVALID"

	ErrCodeTranscriptionUnsupported ErrorCode = "TRANSCRIPTION_UNSUPPORTED"
	ErrCodeTranscriptionFailed      ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeVoiceInputDisabled       ErrorCode = "VOICE_INPUT_DISABLED"
	ErrCodeAudioTooLong             ErrorCode = "AUDIO_TOO_LONG"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeResultCacheFailed      ErrorCode = "RESULT_CACHE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuizValidationFailedError creates a non-retryable quiz validation error.
func NewQuizValidationFailedError(details string) *StandardError {
	return newError(ErrCodeQuizValidationFailed, "Quiz response failed validation", details, false)
}

// NewKnowledgeBaseLoadFailedError creates a retryable knowledge base load error.
func NewKnowledgeBaseLoadFailedError(source string, err error) *StandardError {
	return newError(ErrCodeKnowledgeBaseLoadFailed, "Knowledge base could not be loaded",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), true)
}

// NewKnowledgeBaseEmptyError creates a non-retryable empty knowledge base error.
func NewKnowledgeBaseEmptyError(source string) *StandardError {
	return newError(ErrCodeKnowledgeBaseEmpty, "Knowledge base has no records",
		fmt.Sprintf("source: %s", source), false)
}

func NewProviderUnavailableError(provider string) *StandardError {
	return newError(ErrCodeProviderUnavailable, "Provider is not available",
		fmt.Sprintf("provider: %s", provider), false)
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError(provider string) *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM request timed out",
		fmt.Sprintf("provider: %s", provider), true)
}

// NewLLMSynthesisFailedError creates a non-retryable LLM synthesis error.
// The orchestrator already moves to the next provider on this failure.
func NewLLMSynthesisFailedError(provider string, err error) *StandardError {
	return newError(ErrCodeLLMSynthesisFailed, "LLM synthesis failed",
		fmt.Sprintf("provider: %s, error: %s", provider, err.Error()), false)
}

func NewModelOutputInvalidError(details string) *StandardError {
	return newError(ErrCodeModelOutputInvalid, "Model reply did not match the expected shape", details, false)
}

// NewTranscriptionUnsupportedError signals a capability gap; the caller must switch input mode.
func NewTranscriptionUnsupportedError(message string) *StandardError {
	return newError(ErrCodeTranscriptionUnsupported, message, "", false)
}

// NewTranscriptionFailedError creates a retryable transcription error.
func NewTranscriptionFailedError(provider string, err error) *StandardError {
	return newError(ErrCodeTranscriptionFailed, "Failed to transcribe audio",
		fmt.Sprintf("provider: %s, error: %s", provider, err.Error()), true)
}

func NewVoiceInputDisabledError() *StandardError {
	return newError(ErrCodeVoiceInputDisabled, "Voice input is disabled", "", false)
}

func NewAudioTooLongError(durationMs int64) *StandardError {
	return newError(ErrCodeAudioTooLong, "Audio exceeds the one minute limit",
		fmt.Sprintf("durationMs: %d", durationMs), false)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification",
		fmt.Sprintf("notificationType: %s, error: %s", notificationType, err.Error()), true)
}

func NewResultCacheFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeResultCacheFailed, "Analysis result cache operation failed",
		fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()), false)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError("BUSINESS_RULE_VIOLATION", message, details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
// Both transcription capability codes surface as one boundary event.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeQuizValidationFailed:     "QUIZ_VALIDATION_FAILED",
	ErrCodeKnowledgeBaseLoadFailed:  "KNOWLEDGE_BASE_LOAD_FAILED",
	ErrCodeKnowledgeBaseEmpty:       "KNOWLEDGE_BASE_EMPTY",
	ErrCodeProviderUnavailable:      "PROVIDER_UNAVAILABLE",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMSynthesisFailed:       "LLM_SYNTHESIS_FAILED",
	ErrCodeModelOutputInvalid:       "MODEL_OUTPUT_INVALID",
	ErrCodeTranscriptionUnsupported: "TRANSCRIPTION_UNSUPPORTED",
	ErrCodeTranscriptionFailed:      "TRANSCRIPTION_FAILED",
	ErrCodeVoiceInputDisabled:       "TRANSCRIPTION_UNSUPPORTED",
	ErrCodeAudioTooLong:             "AUDIO_TOO_LONG",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeResultCacheFailed:        "RESULT_CACHE_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeKnowledgeBaseLoadFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeTranscriptionFailed:
		return 3

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // capability and validation errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "QUIZ"):
		return "VALIDATION"
	case strings.Contains(codeStr, "KNOWLEDGE_BASE"):
		return "KNOWLEDGE"
	case strings.Contains(codeStr, "TRANSCRIPTION") || strings.Contains(codeStr, "VOICE") || strings.Contains(codeStr, "AUDIO"):
		return "VOICE"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "MODEL") || strings.Contains(codeStr, "PROVIDER"):
		return "AI"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
