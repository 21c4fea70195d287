package delivery

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST API the channel calls.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSChannel texts the NGO's contact phone through Twilio.
type SMSChannel struct {
	api  messageCreator
	from string
}

func NewSMSChannel(accountSID, authToken, from string) *SMSChannel {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSChannel{api: client.Api, from: from}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Send(ctx context.Context, env Envelope) error {
	if env.Contact.Phone == "" {
		return ErrNoRecipient
	}
	// the Twilio client takes no context, so check before the call
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(env.Contact.Phone)
	params.SetFrom(c.from)
	params.SetBody(env.Notification.Message)

	if _, err := c.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	return nil
}
