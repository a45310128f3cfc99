package sendtournotification

import (
	"fmt"
	"time"

	"admissions-workers/internal/common/config"
)

type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxJobsActive   int           `mapstructure:"max_jobs_active"`
	Timeout         time.Duration `mapstructure:"timeout"`
	EmailEnabled    bool          `mapstructure:"email_enabled"`
	SMSEnabled      bool          `mapstructure:"sms_enabled"`
	FromEmail       string        `mapstructure:"from_email"`
	AdmissionsEmail string        `mapstructure:"admissions_email"`
	AdmissionsPhone string        `mapstructure:"admissions_phone"`
	SiteURL         string        `mapstructure:"site_url"`
	SchoolName      string        `mapstructure:"school_name"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

// LoadConfig reads the notifications and app sections of the application config.
func LoadConfig(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	wcfg := config.GetWorkerConfig(appConfig, TaskType)
	cfg.Enabled = wcfg.Enabled
	if wcfg.MaxJobsActive > 0 {
		cfg.MaxJobsActive = wcfg.MaxJobsActive
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}

	n := appConfig.Notifications
	cfg.EmailEnabled = n.Email.Enabled
	cfg.FromEmail = n.Email.FromEmail
	cfg.AdmissionsEmail = n.Email.AdmissionsEmail
	cfg.SMSEnabled = n.SMS.Enabled
	cfg.AdmissionsPhone = n.SMS.AdmissionsPhone
	cfg.SiteURL = appConfig.App.SiteURL
	cfg.SchoolName = appConfig.App.SchoolName
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled {
		if c.FromEmail == "" {
			return fmt.Errorf("from_email is required when email is enabled")
		}
		if c.AdmissionsEmail == "" {
			return fmt.Errorf("admissions_email is required when email is enabled")
		}
	}
	if c.SMSEnabled && c.AdmissionsPhone == "" {
		return fmt.Errorf("admissions_phone is required when sms is enabled")
	}
	return nil
}
