package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioNotifier delivers codes over SMS through the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier creates a notifier using the given Twilio credentials.
func NewTwilioNotifier(accountSID, authToken, from string) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{client: client, from: from}
}

// Send dispatches the code as an SMS message.
func (n *TwilioNotifier) Send(_ context.Context, mobile, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(mobile)
	params.SetFrom(n.from)
	params.SetBody(fmt.Sprintf("Your OTP code: %s", code))

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
