package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSESClient_SendEmail(t *testing.T) {
	var captured *ses.SendEmailInput
	client := NewSESClientWithAPI(&mockSES{
		SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
		},
	}, "noreply@events.example.com")

	id, err := client.SendEmail(context.Background(), "buyer@example.com", "Ticket confirmed", "See you there")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.NotNil(t, captured)
	assert.Equal(t, []string{"buyer@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "noreply@events.example.com", aws.ToString(captured.Source))
	assert.Equal(t, "Ticket confirmed", aws.ToString(captured.Message.Subject.Data))
}

func TestSESClient_SendEmailError(t *testing.T) {
	client := NewSESClientWithAPI(&mockSES{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}, "noreply@events.example.com")

	_, err := client.SendEmail(context.Background(), "a@b.co", "s", "b")
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_SendSMS(t *testing.T) {
	var captured *sns.PublishInput
	client := NewSNSClientWithAPI(&mockSNS{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
		},
	}, "EVENTS")

	id, err := client.SendSMS(context.Background(), "+5511999990000", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "sms-1", id)
	assert.Equal(t, "+5511999990000", aws.ToString(captured.PhoneNumber))
	assert.Equal(t, "EVENTS", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))

	_, err = client.SendSMS(context.Background(), "+5511999990000", "hello", "PROMO")
	require.NoError(t, err)
	assert.Equal(t, "PROMO", aws.ToString(captured.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}
