// Package tablestoretest provides an in-memory DynamoDB client for tests.
//
// The fake understands the expression shapes this module writes: equality
// conjunctions ("a = :a AND #b = :b") for filters, key conditions and
// condition expressions, "SET x = :x, #y = :y" updates, and
// attribute_exists/attribute_not_exists conditions. Anything else is
// rejected with an error so tests fail loudly.
package tablestoretest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/certified-builder-api/internal/attrcodec"
)

type table struct {
	pk    string
	order []string
	items map[string]map[string]types.AttributeValue
}

// Fake implements aws.DynamoDBAPI in memory.
type Fake struct {
	mu     sync.Mutex
	tables map[string]*table

	// PageSize bounds Scan and Query pages. Zero means unbounded.
	PageSize int
	// Errors forces an operation ("PutItem", "GetItem", "UpdateItem",
	// "DeleteItem", "Scan", "Query") to fail.
	Errors map[string]error
	// Calls counts invocations per operation.
	Calls map[string]int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		tables: map[string]*table{},
		Errors: map[string]error{},
		Calls:  map[string]int{},
	}
}

// AddTable registers a table keyed by the single attribute pk.
func (f *Fake) AddTable(name, pk string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &table{pk: pk, items: map[string]map[string]types.AttributeValue{}}
	return f
}

// Len returns the number of items stored in name.
func (f *Fake) Len(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[name]; ok {
		return len(t.items)
	}
	return 0
}

// Seed stores a native item directly, bypassing the client API.
func (f *Fake) Seed(name string, item map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tables[name]
	enc := attrcodec.EncodeItem(item)
	t.store(keyString(enc[t.pk]), enc)
}

func (t *table) store(k string, item map[string]types.AttributeValue) {
	if _, ok := t.items[k]; !ok {
		t.order = append(t.order, k)
	}
	t.items[k] = cloneItem(item)
}

func (t *table) remove(k string) {
	if _, ok := t.items[k]; !ok {
		return
	}
	delete(t.items, k)
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (f *Fake) begin(op, name string) (*table, error) {
	f.Calls[op]++
	if err := f.Errors[op]; err != nil {
		return nil, err
	}
	t, ok := f.tables[name]
	if !ok {
		msg := "Requested resource not found: " + name
		return nil, &types.ResourceNotFoundException{Message: &msg}
	}
	return t, nil
}

func (f *Fake) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("PutItem", deref(in.TableName))
	if err != nil {
		return nil, err
	}
	pkv, ok := in.Item[t.pk]
	if !ok {
		return nil, fmt.Errorf("missing key attribute %s", t.pk)
	}
	k := keyString(pkv)
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t.items[k]); err != nil {
		return nil, err
	}
	t.store(k, in.Item)
	return &dyn.PutItemOutput{}, nil
}

func (f *Fake) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("GetItem", deref(in.TableName))
	if err != nil {
		return nil, err
	}
	item, ok := t.items[keyString(in.Key[t.pk])]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: cloneItem(item)}, nil
}

func (f *Fake) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("UpdateItem", deref(in.TableName))
	if err != nil {
		return nil, err
	}
	k := keyString(in.Key[t.pk])
	current := t.items[k]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, current); err != nil {
		return nil, err
	}

	expr := strings.TrimSpace(deref(in.UpdateExpression))
	if !strings.HasPrefix(expr, "SET ") {
		return nil, fmt.Errorf("unsupported update expression %q", expr)
	}
	next := cloneItem(current)
	if next == nil {
		next = cloneItem(in.Key)
	}
	for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		lhs, rhs, ok := strings.Cut(clause, "=")
		if !ok {
			return nil, fmt.Errorf("unsupported set clause %q", clause)
		}
		name := resolveName(strings.TrimSpace(lhs), in.ExpressionAttributeNames)
		val, ok := in.ExpressionAttributeValues[strings.TrimSpace(rhs)]
		if !ok {
			return nil, fmt.Errorf("missing value %s", strings.TrimSpace(rhs))
		}
		next[name] = val
	}
	t.store(k, next)
	return &dyn.UpdateItemOutput{Attributes: cloneItem(next)}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("DeleteItem", deref(in.TableName))
	if err != nil {
		return nil, err
	}
	t.remove(keyString(in.Key[t.pk]))
	return &dyn.DeleteItemOutput{}, nil
}

func (f *Fake) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("Scan", deref(in.TableName))
	if err != nil {
		return nil, err
	}
	items, last, err := f.page(t, in.ExclusiveStartKey, deref(in.FilterExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dyn.ScanOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

func (f *Fake) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("Query", deref(in.TableName))
	if err != nil {
		return nil, err
	}
	if deref(in.KeyConditionExpression) == "" {
		return nil, errors.New("query requires a key condition")
	}
	items, last, err := f.page(t, in.ExclusiveStartKey, deref(in.KeyConditionExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	return &dyn.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

// page walks the table in insertion order from start, reading at most
// PageSize items, and returns those matching expr.
func (f *Fake) page(t *table, start map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	conds, err := parseEqualities(expr, names)
	if err != nil {
		return nil, nil, err
	}

	idx := 0
	if start != nil {
		sk := keyString(start[t.pk])
		for i, k := range t.order {
			if k == sk {
				idx = i + 1
				break
			}
		}
	}

	out := []map[string]types.AttributeValue{}
	read := 0
	for ; idx < len(t.order); idx++ {
		if f.PageSize > 0 && read == f.PageSize {
			last := t.items[t.order[idx-1]]
			return out, map[string]types.AttributeValue{t.pk: last[t.pk]}, nil
		}
		read++
		item := t.items[t.order[idx]]
		ok, err := matches(item, conds, values)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out = append(out, cloneItem(item))
		}
	}
	return out, nil, nil
}

type equality struct {
	attr        string
	placeholder string
}

func parseEqualities(expr string, names map[string]string) ([]equality, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	var out []equality
	for _, part := range strings.Split(expr, " AND ") {
		lhs, rhs, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("unsupported expression %q", part)
		}
		out = append(out, equality{
			attr:        resolveName(strings.TrimSpace(lhs), names),
			placeholder: strings.TrimSpace(rhs),
		})
	}
	return out, nil
}

func matches(item map[string]types.AttributeValue, conds []equality, values map[string]types.AttributeValue) (bool, error) {
	for _, c := range conds {
		want, ok := values[c.placeholder]
		if !ok {
			return false, fmt.Errorf("missing value %s", c.placeholder)
		}
		got, ok := item[c.attr]
		if !ok {
			return false, nil
		}
		if !reflect.DeepEqual(attrcodec.Decode(got), attrcodec.Decode(want)) {
			return false, nil
		}
	}
	return true, nil
}

func checkCondition(cond *string, names map[string]string, values, current map[string]types.AttributeValue) error {
	expr := strings.TrimSpace(deref(cond))
	if expr == "" {
		return nil
	}
	failed := func() error {
		msg := "The conditional request failed"
		return &types.ConditionalCheckFailedException{Message: &msg}
	}
	switch {
	case strings.HasPrefix(expr, "attribute_not_exists(") && strings.HasSuffix(expr, ")"):
		attr := resolveName(expr[len("attribute_not_exists("):len(expr)-1], names)
		if _, ok := current[attr]; ok {
			return failed()
		}
	case strings.HasPrefix(expr, "attribute_exists(") && strings.HasSuffix(expr, ")"):
		attr := resolveName(expr[len("attribute_exists("):len(expr)-1], names)
		if _, ok := current[attr]; !ok {
			return failed()
		}
	default:
		conds, err := parseEqualities(expr, names)
		if err != nil {
			return err
		}
		ok, err := matches(current, conds, values)
		if err != nil {
			return err
		}
		if !ok {
			return failed()
		}
	}
	return nil
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

func keyString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value
	case *types.AttributeValueMemberN:
		return "N:" + v.Value
	default:
		return fmt.Sprintf("%T:%v", av, attrcodec.Decode(av))
	}
}

func cloneItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
