package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-otp-auth/internal/otp"
)

// Attribute names of the OTP table.
const (
	attrPhone     = "phone"
	attrNamespace = "namespace"
	attrExpiresAt = "expires_at"
)

// otpItem is one row of the OTP table.
// PK: phone, SK: namespace ("signup" | "reset").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL; 0 means no expiry.
type otpItem struct {
	Phone     string `dynamodbav:"phone"`
	Namespace string `dynamodbav:"namespace"`
	Payload   []byte `dynamodbav:"payload"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// OTPStore is an otp.Backend on a DynamoDB table.
// DynamoDB deletes expired items lazily, so Get re-checks expires_at.
type OTPStore struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewOTPStore(client API, tableName string) *OTPStore {
	return &OTPStore{client: client, tableName: tableName, now: time.Now}
}

func (s *OTPStore) Put(ctx context.Context, namespace, phone string, payload []byte, ttl time.Duration) error {
	it := otpItem{Phone: phone, Namespace: namespace, Payload: payload}
	if ttl > 0 {
		it.ExpiresAt = s.now().Add(ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("marshal otp item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put otp: %w", err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, namespace, phone string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            compositeKey(attrPhone, phone, attrNamespace, namespace),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get otp: %w", err)
	}
	if out.Item == nil {
		return nil, otp.ErrAbsent
	}
	var it otpItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal otp item: %w", err)
	}
	if it.ExpiresAt > 0 && it.ExpiresAt <= s.now().Unix() {
		return nil, otp.ErrAbsent
	}
	return it.Payload, nil
}

func (s *OTPStore) Remove(ctx context.Context, namespace, phone string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       compositeKey(attrPhone, phone, attrNamespace, namespace),
	})
	if err != nil {
		return fmt.Errorf("dynamodb delete otp: %w", err)
	}
	return nil
}
