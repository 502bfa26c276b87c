// Package idempotency guards create requests carrying an Idempotency-Key
// header so a retried request does not run registration twice.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/certified-builder-api/internal/aws"
)

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // how long a record lives before DynamoDB TTL removes it
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// ErrConditionFailed indicates a conditional write failed (e.g., attribute_not_exists)
var ErrConditionFailed = errors.New("conditional check failed")

// CreateIfNotExists creates an IN_PROGRESS record for key.
// Returns (true, nil) when created and (false, nil) when a record already
// exists; the caller should Get it to decide what to answer.
func (s *Store) CreateIfNotExists(ctx context.Context, key string, productID int64) (bool, error) {
	now := s.nowFunc().UTC()
	rec := IdempotencyRecord{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		ProductID:      productID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Retry moves a FAILED record back to IN_PROGRESS so the request can run
// again. It returns ErrConditionFailed when the record is no longer FAILED,
// meaning a concurrent retry claimed it first.
func (s *Store) Retry(ctx context.Context, key string) error {
	now := s.nowFunc().UTC()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:    awsString("SET #s = :in_progress, updated_at = :ua, expires_at = :exp"),
		ConditionExpression: awsString("#s = :failed"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":in_progress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":failed":      &types.AttributeValueMemberS{Value: StatusFailed},
			":ua":          &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":exp":         &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(s.ttlWindow).Unix(), 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("update item (retry): %w", err)
	}
	return nil
}

// Get retrieves an idempotency record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	input := &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
	}
	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec IdempotencyRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone sets status to DONE and stores the response to replay.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression: awsString("SET #s = :done, response_body = :rb, response_status = :rs, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done": &types.AttributeValueMemberS{Value: StatusDone},
			":rb":   &types.AttributeValueMemberS{Value: responseBody},
			":rs":   &types.AttributeValueMemberN{Value: strconv.Itoa(responseStatus)},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

// MarkFailed marks the record FAILED with a note so the client may retry.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression: awsString("SET #s = :failed, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
			":n":      &types.AttributeValueMemberS{Value: note},
			":ua":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update item (mark failed): %w", err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var sc smithy.APIError
	return errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }
