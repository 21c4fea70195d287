package delivery

import (
	"context"

	"ngo_connect_backend/internal/email"
)

// EmailChannel mails the NGO's contact address.
type EmailChannel struct {
	provider email.Provider
}

func NewEmailChannel(provider email.Provider) *EmailChannel {
	return &EmailChannel{provider: provider}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, env Envelope) error {
	if env.Contact.Email == "" {
		return ErrNoRecipient
	}
	n := env.Notification
	return c.provider.SendTemplate(ctx,
		[]string{env.Contact.Email},
		"New "+env.Category+" request near you",
		email.NGORequestTemplate,
		email.TemplateData{
			"Message":        n.Message,
			"NGOName":        n.NGOName,
			"DistanceKm":     n.DistanceKm,
			"NotificationID": n.ID,
		},
	)
}
