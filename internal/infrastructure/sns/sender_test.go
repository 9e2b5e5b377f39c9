package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSendSMS_WithOriginationNumber(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr, ok := in.MessageAttributes[originationNumberAttr]
		return aws.ToString(in.PhoneNumber) == "+15550001" &&
			aws.ToString(in.Message) == "Your OTP is: 123456" &&
			ok && aws.ToString(attr.StringValue) == "+15559999"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m1")}, nil)

	s := &sender{client: pub, from: "+15559999"}
	require.NoError(t, s.SendSMS(context.Background(), "+15550001", "Your OTP is: 123456"))
	pub.AssertExpectations(t)
}

func TestSendSMS_NoOriginationNumber(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return in.MessageAttributes == nil
	})).Return(&sns.PublishOutput{}, nil)

	s := &sender{client: pub}
	require.NoError(t, s.SendSMS(context.Background(), "+15550001", "hi"))
	pub.AssertExpectations(t)
}

func TestSendSMS_PublishError(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	s := &sender{client: pub}
	err := s.SendSMS(context.Background(), "+15550001", "hi")
	assert.ErrorContains(t, err, "sns publish: throttled")
}
