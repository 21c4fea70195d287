package email

import "fmt"

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TemplatesDir string
}

func DefaultConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:      "localhost",
		Port:      587,
		FromEmail: "noreply@ngoconnect.org",
		FromName:  "NGO Connect",
	}
}

func (c *SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", c.Port)
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}
