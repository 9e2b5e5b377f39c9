package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-otp-auth/internal/config"
)

const originationNumberAttr = "AWS.MM.SMS.OriginationNumber"

// SMSSender sends a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type sender struct {
	client publisher
	from   string
}

// NewSender builds an SNS-backed sender. cfg.SMSSenderNumber, when set, is
// used as the origination number of every message.
func NewSender(ctx context.Context, cfg *config.Config) (SMSSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SNSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &sender{client: sns.NewFromConfig(awsCfg, clientOpts...), from: cfg.SMSSenderNumber}, nil
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	in := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if s.from != "" {
		in.MessageAttributes = map[string]types.MessageAttributeValue{
			originationNumberAttr: {DataType: aws.String("String"), StringValue: aws.String(s.from)},
		}
	}
	if _, err := s.client.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
