package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable is an in-memory stand-in for a DynamoDB table keyed by phone+namespace.
type fakeTable struct {
	items      map[string]map[string]types.AttributeValue
	created    []string
	ttlEnabled map[string]string
	err        error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}, ttlEnabled: map[string]string{}}
}

func itemKey(k map[string]types.AttributeValue) string {
	return k[attrPhone].(*types.AttributeValueMemberS).Value + "|" + k[attrNamespace].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.items[itemKey(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	for _, t := range f.created {
		if t == aws.ToString(in.TableName) {
			return nil, &types.ResourceInUseException{}
		}
	}
	f.created = append(f.created, aws.ToString(in.TableName))
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeTable) UpdateTimeToLive(_ context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.ttlEnabled[aws.ToString(in.TableName)] = aws.ToString(in.TimeToLiveSpecification.AttributeName)
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func TestOTPStore_PutGetRemove(t *testing.T) {
	s := NewOTPStore(newFakeTable(), "otp_codes")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, otp.NamespaceSignup, "+15550001", []byte("payload"), 0))
	got, err := s.Get(ctx, otp.NamespaceSignup, "+15550001")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, s.Remove(ctx, otp.NamespaceSignup, "+15550001"))
	_, err = s.Get(ctx, otp.NamespaceSignup, "+15550001")
	assert.ErrorIs(t, err, otp.ErrAbsent)
}

func TestOTPStore_NoTTLOmitsExpiresAt(t *testing.T) {
	tbl := newFakeTable()
	s := NewOTPStore(tbl, "otp_codes")
	require.NoError(t, s.Put(context.Background(), otp.NamespaceReset, "p", []byte("x"), 0))
	_, ok := tbl.items["p|reset"][attrExpiresAt]
	assert.False(t, ok)
}

func TestOTPStore_ExpiredItemIsAbsent(t *testing.T) {
	s := NewOTPStore(newFakeTable(), "otp_codes")
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, otp.NamespaceReset, "p", []byte("x"), time.Minute))
	_, err := s.Get(ctx, otp.NamespaceReset, "p")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, otp.NamespaceReset, "p")
	assert.ErrorIs(t, err, otp.ErrAbsent)
}

func TestOTPStore_ClientErrorsAreWrapped(t *testing.T) {
	throttled := errors.New("throttled")
	tbl := newFakeTable()
	tbl.err = throttled
	s := NewOTPStore(tbl, "otp_codes")
	ctx := context.Background()

	err := s.Put(ctx, otp.NamespaceSignup, "p", []byte("x"), 0)
	assert.EqualError(t, err, "dynamodb put otp: throttled")
	assert.ErrorIs(t, err, throttled)

	_, err = s.Get(ctx, otp.NamespaceSignup, "p")
	assert.EqualError(t, err, "dynamodb get otp: throttled")
	assert.ErrorIs(t, err, throttled)

	err = s.Remove(ctx, otp.NamespaceSignup, "p")
	assert.EqualError(t, err, "dynamodb delete otp: throttled")
	assert.ErrorIs(t, err, throttled)
}

func TestBootstrap_Idempotent(t *testing.T) {
	tbl := newFakeTable()
	Bootstrap(context.Background(), tbl, "otp_codes")
	Bootstrap(context.Background(), tbl, "otp_codes")
	assert.Equal(t, []string{"otp_codes"}, tbl.created)
	assert.Equal(t, attrExpiresAt, tbl.ttlEnabled["otp_codes"])
}
