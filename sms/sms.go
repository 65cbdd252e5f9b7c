package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"klinika/config"
)

var ErrNotConfigured = errors.New("twilio is not configured")

// Sender delivers text messages through Twilio.
type Sender struct {
	client *twilio.RestClient
	from   string
}

// NewSender returns nil when Twilio credentials are missing.
func NewSender(cfg *config.Config) *Sender {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioPhoneNumber == "" {
		return nil
	}
	return &Sender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		}),
		from: cfg.TwilioPhoneNumber,
	}
}

func (s *Sender) Configured() bool {
	return s != nil && s.client != nil
}

func (s *Sender) Send(ctx context.Context, to, body string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(NormalizePhone(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	if resp.Sid == nil {
		return fmt.Errorf("send sms to %s: no message sid returned", to)
	}
	return nil
}

// NormalizePhone strips formatting and assumes a Latvian number when no country code is given.
func NormalizePhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	number := string(digits)
	switch {
	case len(phone) > 0 && phone[0] == '+':
		return "+" + number
	case len(number) > 2 && number[:2] == "00":
		return "+" + number[2:]
	case len(number) == 8:
		return "+371" + number
	}
	return "+" + number
}
