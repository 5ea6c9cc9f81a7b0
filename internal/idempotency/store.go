package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/aws"
)

// Store keeps idempotency keys of order placements in DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. ttlWindow is how long a key is remembered.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Fingerprint identifies a request payload so a key cannot be reused for a different one.
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method + " " + path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin claims key for a request. A key whose previous attempt FAILED is
// claimed again. The existing record is returned for Replay and InFlight.
func (s *Store) Begin(ctx context.Context, key, fingerprint string) (Decision, *Record, error) {
	now := s.nowFunc()
	rec := Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		Fingerprint:    fingerprint,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      awsString("attribute_not_exists(idempotency_key) OR #s = :failed"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
		},
	})
	if err == nil {
		return Proceed, &rec, nil
	}
	if !isConditionFailed(err) {
		return 0, nil, fmt.Errorf("put item: %w", err)
	}

	existing, err := s.Get(ctx, key)
	if err != nil {
		return 0, nil, err
	}
	if existing == nil {
		// expired between the put and the read
		return InFlight, nil, nil
	}
	if existing.Fingerprint != fingerprint {
		return 0, existing, apperr.Conflict("idempotency key %q was used for a different request", key)
	}
	if existing.Status == StatusDone {
		return Replay, existing, nil
	}
	return InFlight, existing, nil
}

func isConditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

// Get retrieves a record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            keyAttr(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone stores the response that duplicates of key will receive.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	return s.finish(ctx, key, "response_body = :rb, response_status = :rs", map[string]types.AttributeValue{
		":done": &types.AttributeValueMemberS{Value: StatusDone},
		":rb":   &types.AttributeValueMemberS{Value: responseBody},
		":rs":   &types.AttributeValueMemberN{Value: strconv.Itoa(responseStatus)},
	})
}

// MarkFailed releases key so a retry of the same request can claim it.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	return s.finish(ctx, key, "note = :n", map[string]types.AttributeValue{
		":failed": &types.AttributeValueMemberS{Value: StatusFailed},
		":n":      &types.AttributeValueMemberS{Value: note},
	})
}

// finish moves key to the status carried by the single ":done" or ":failed"
// value and sets the extra attributes.
func (s *Store) finish(ctx context.Context, key, extra string, values map[string]types.AttributeValue) error {
	status := ":done"
	if _, ok := values[":failed"]; ok {
		status = ":failed"
	}
	values[":ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().Format(time.RFC3339)}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       keyAttr(key),
		UpdateExpression:          awsString(fmt.Sprintf("SET #s = %s, %s, updated_at = :ua", status, extra)),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update idempotency key %q to %s: %w", key, status[1:], err)
	}
	return nil
}

func keyAttr(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"idempotency_key": &types.AttributeValueMemberS{Value: key}}
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
