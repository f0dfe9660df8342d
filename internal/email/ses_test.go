package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &ses.SendEmailOutput{}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSenderWithClient(fake, "no-reply@connect2uni.example")

	msg := Acceptance("student@example.com", "Asha Rao", "MSc Data Science", "Metro University", "https://cdn.example/offers/abc.pdf")
	require.NoError(t, sender.Send(context.Background(), msg))

	require.Len(t, fake.inputs, 1)
	input := fake.inputs[0]
	assert.Equal(t, "no-reply@connect2uni.example", *input.Source)
	assert.Equal(t, []string{"student@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Offer of admission: MSc Data Science", *input.Message.Subject.Data)
	assert.Contains(t, *input.Message.Body.Text.Data, "https://cdn.example/offers/abc.pdf")
}

func TestSESSender_SendError(t *testing.T) {
	sender := NewSESSenderWithClient(&fakeSES{err: errors.New("throttled")}, "no-reply@connect2uni.example")
	err := sender.Send(context.Background(), Message{To: "x@example.com"})
	assert.ErrorContains(t, err, "send email via SES")
}

func TestTemplates(t *testing.T) {
	t.Run("rejection carries the reason", func(t *testing.T) {
		msg := Rejection("s@example.com", "Asha Rao", "LLB", "City Law School", "missing transcripts")
		assert.Equal(t, "rejection", msg.Template)
		assert.Contains(t, msg.Body, "missing transcripts")
		assert.Contains(t, msg.Body, "City Law School")
	})

	t.Run("agency notice names the student", func(t *testing.T) {
		msg := AgencyNewApplication("agency@example.com", "Asha Rao", "LLB", "City Law School")
		assert.Equal(t, "agency_new_application", msg.Template)
		assert.Contains(t, msg.Subject, "Asha Rao")
	})

	t.Run("solicitor assignment addresses the solicitor", func(t *testing.T) {
		msg := SolicitorAssigned("sol@example.com", "R. Mehta", "Asha Rao")
		assert.Contains(t, msg.Body, "R. Mehta")
		assert.Contains(t, msg.Body, "Asha Rao")
	})

	t.Run("payment confirmation names the service", func(t *testing.T) {
		msg := PaymentConfirmation("s@example.com", "Asha Rao", "visa solicitor service")
		assert.Contains(t, msg.Body, "visa solicitor service")
		assert.Equal(t, "payment_confirmation", msg.Template)
	})
}
