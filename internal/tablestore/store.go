// Package tablestore runs item operations against named DynamoDB tables.
//
// Items and keys are plain maps of native values. Every write path encodes
// them with attrcodec and every read path decodes the returned attributes,
// so callers never handle types.AttributeValue directly.
package tablestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/imrishuroy/certified-builder-api/internal/attrcodec"
	"github.com/imrishuroy/certified-builder-api/internal/aws"
)

// Item is a decoded DynamoDB record.
type Item = map[string]any

// Store executes table operations. It holds no per-table state.
type Store struct {
	client aws.DynamoDBAPI
	logger *zap.Logger
}

// New returns a Store backed by client.
func New(client aws.DynamoDBAPI, logger *zap.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Put writes item as a whole record. It is an unconditional upsert.
func (s *Store) Put(ctx context.Context, item Item, table string) error {
	s.logger.Debug("put item", zap.String("table", table))

	_, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: sdkaws.String(table),
		Item:      attrcodec.EncodeItem(item),
	})
	if err != nil {
		s.logger.Error("put item failed", zap.String("table", table), zap.Error(err))
		return fmt.Errorf("put item into %s: %w", table, err)
	}
	return nil
}

// Get fetches the record at key. found is false when no record exists.
func (s *Store) Get(ctx context.Context, key Item, table string) (Item, bool, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: sdkaws.String(table),
		Key:       attrcodec.EncodeItem(key),
	})
	if err != nil {
		s.logger.Error("get item failed", zap.String("table", table), zap.Error(err))
		return nil, false, fmt.Errorf("get item from %s: %w", table, err)
	}
	if len(out.Item) == 0 {
		s.logger.Debug("item not found", zap.String("table", table))
		return nil, false, nil
	}
	return attrcodec.DecodeItem(out.Item), true, nil
}

// Update sets fields on the existing record at key and returns the record
// as stored after the update. found is false when no record exists; the
// update is conditional on the key being present, so nothing is created.
func (s *Store) Update(ctx context.Context, key, fields Item, table string) (Item, bool, error) {
	if len(fields) == 0 {
		return s.Get(ctx, key, table)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	exprNames := make(map[string]string, len(names)+1)
	exprValues := make(map[string]types.AttributeValue, len(names))
	sets := make([]string, 0, len(names))
	for i, name := range names {
		n := fmt.Sprintf("#f%d", i)
		v := fmt.Sprintf(":f%d", i)
		exprNames[n] = name
		exprValues[v] = attrcodec.Encode(fields[name])
		sets = append(sets, n+" = "+v)
	}

	var cond string
	if pk := firstKey(key); pk != "" {
		exprNames["#pk"] = pk
		cond = "attribute_exists(#pk)"
	}

	input := &dyn.UpdateItemInput{
		TableName:                 sdkaws.String(table),
		Key:                       attrcodec.EncodeItem(key),
		UpdateExpression:          sdkaws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if cond != "" {
		input.ConditionExpression = sdkaws.String(cond)
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			return nil, false, nil
		}
		s.logger.Error("update item failed", zap.String("table", table), zap.Error(err))
		return nil, false, fmt.Errorf("update item in %s: %w", table, err)
	}
	return attrcodec.DecodeItem(out.Attributes), true, nil
}

// Delete removes the record at key. It never returns an error: failures
// are logged and reported as false. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key Item, table string) bool {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: sdkaws.String(table),
		Key:       attrcodec.EncodeItem(key),
	})
	if err != nil {
		s.logger.Error("delete item failed", zap.String("table", table), zap.Error(err))
		return false
	}
	return true
}

// Scan reads the whole table, following LastEvaluatedKey until the last
// page, and returns every item matching filter. Cost is proportional to
// table size regardless of how many items match; use Query when the lookup
// attribute is a key.
//
// values holds the expression placeholders (":name") used by filter. An
// empty filter returns every item.
func (s *Store) Scan(ctx context.Context, table, filter string, values Item) ([]Item, error) {
	input := &dyn.ScanInput{TableName: sdkaws.String(table)}
	if filter != "" {
		input.FilterExpression = sdkaws.String(filter)
	}
	if len(values) > 0 {
		input.ExpressionAttributeValues = attrcodec.EncodeItem(values)
	}

	items := []Item{}
	pages := 0
	paginator := dyn.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("scan failed", zap.String("table", table), zap.Error(err))
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		pages++
		for _, raw := range page.Items {
			items = append(items, attrcodec.DecodeItem(raw))
		}
	}

	s.logger.Debug("scan complete",
		zap.String("table", table),
		zap.Int("pages", pages),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// Query returns every item whose key matches keyCondition.
func (s *Store) Query(ctx context.Context, table, keyCondition string, values Item) ([]Item, error) {
	input := &dyn.QueryInput{
		TableName:                 sdkaws.String(table),
		KeyConditionExpression:    sdkaws.String(keyCondition),
		ExpressionAttributeValues: attrcodec.EncodeItem(values),
	}

	items := []Item{}
	paginator := dyn.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("query failed", zap.String("table", table), zap.Error(err))
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		for _, raw := range page.Items {
			items = append(items, attrcodec.DecodeItem(raw))
		}
	}
	return items, nil
}

// Hydrate copies a decoded item into out, a pointer to a struct with
// dynamodbav tags.
func Hydrate(item Item, out any) error {
	if err := attributevalue.UnmarshalMap(attrcodec.EncodeItem(item), out); err != nil {
		return fmt.Errorf("hydrate item: %w", err)
	}
	return nil
}

func firstKey(key Item) string {
	names := make([]string, 0, len(key))
	for k := range key {
		names = append(names, k)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}
