package email

import "context"

// Provider sends email.
type Provider interface {
	Send(ctx context.Context, email *Email) error
	// SendTemplate renders templateName with data into the HTML body.
	SendTemplate(ctx context.Context, to []string, subject, templateName string, data TemplateData) error
}

// TemplateRenderer renders named templates.
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
	LoadTemplates(dirPath string) error
}
