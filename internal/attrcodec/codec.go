// Package attrcodec converts between native Go values and the DynamoDB tagged
// attribute format ({"S":...}, {"N":...}, {"BOOL":...}, {"NULL":true},
// {"L":[...]}, {"M":{...}}).
//
// Encode always produces a types.AttributeValue. Decode accepts either SDK
// attribute values or JSON-shaped wire values (map[string]any carrying a
// single tag key), so items exported as JSON decode through the same path.
//
// A JSON-shaped map with exactly one key named S, N, BOOL, L, M or NULL is
// always read as a wire value. A genuine single-field user map whose field
// collides with a tag name is therefore ambiguous on the JSON path; maps
// with two or more fields are always safe.
package attrcodec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Wire tags.
const (
	TagString = "S"
	TagNumber = "N"
	TagBool   = "BOOL"
	TagNull   = "NULL"
	TagList   = "L"
	TagMap    = "M"
)

// Encode converts a native value into its attribute value.
//
// Rules are checked in order: map, list, string, bool, number, nil. Anything
// else is stringified with fmt.Sprint and stored as S, which is lossy.
func Encode(v any) types.AttributeValue {
	switch t := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}
	case types.AttributeValue:
		return t
	case map[string]any:
		return &types.AttributeValueMemberM{Value: EncodeItem(t)}
	case []any:
		out := make([]types.AttributeValue, 0, len(t))
		for _, e := range t {
			out = append(out, Encode(e))
		}
		return &types.AttributeValueMemberL{Value: out}
	case string:
		return &types.AttributeValueMemberS{Value: t}
	case bool:
		return &types.AttributeValueMemberBOOL{Value: t}
	case json.Number:
		return &types.AttributeValueMemberN{Value: t.String()}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return &types.AttributeValueMemberNULL{Value: true}
		}
		return Encode(rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]types.AttributeValue, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = Encode(iter.Value().Interface())
		}
		return &types.AttributeValueMemberM{Value: m}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return &types.AttributeValueMemberNULL{Value: true}
		}
		out := make([]types.AttributeValue, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, Encode(rv.Index(i).Interface()))
		}
		return &types.AttributeValueMemberL{Value: out}
	case reflect.String:
		return &types.AttributeValueMemberS{Value: rv.String()}
	case reflect.Bool:
		return &types.AttributeValueMemberBOOL{Value: rv.Bool()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(rv.Int(), 10)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(rv.Uint(), 10)}
	case reflect.Float32:
		return &types.AttributeValueMemberN{Value: formatFloat(rv.Float(), 32)}
	case reflect.Float64:
		return &types.AttributeValueMemberN{Value: formatFloat(rv.Float(), 64)}
	}

	return &types.AttributeValueMemberS{Value: fmt.Sprint(v)}
}

// EncodeItem encodes every field of a record.
func EncodeItem(item map[string]any) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = Encode(v)
	}
	return out
}

// Decode converts a wire value back into a native value. It never fails:
// unrecognised shapes are returned as they are.
func Decode(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case types.AttributeValue:
		return decodeAttr(t)
	case map[string]types.AttributeValue:
		return DecodeItem(t)
	case []types.AttributeValue:
		out := make([]any, 0, len(t))
		for _, e := range t {
			out = append(out, decodeAttr(e))
		}
		return out
	case map[string]any:
		return decodeRawMap(t)
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			out = append(out, Decode(e))
		}
		return out
	default:
		return v
	}
}

// DecodeItem decodes a whole record read from the table.
func DecodeItem(item map[string]types.AttributeValue) map[string]any {
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = decodeAttr(v)
	}
	return out
}

func decodeAttr(av types.AttributeValue) any {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return t.Value
	case *types.AttributeValueMemberN:
		return parseNumber(t.Value)
	case *types.AttributeValueMemberBOOL:
		return t.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberL:
		out := make([]any, 0, len(t.Value))
		for _, e := range t.Value {
			out = append(out, decodeAttr(e))
		}
		return out
	case *types.AttributeValueMemberM:
		return DecodeItem(t.Value)
	case *types.AttributeValueMemberSS:
		out := make([]any, 0, len(t.Value))
		for _, s := range t.Value {
			out = append(out, s)
		}
		return out
	case *types.AttributeValueMemberNS:
		out := make([]any, 0, len(t.Value))
		for _, n := range t.Value {
			out = append(out, parseNumber(n))
		}
		return out
	case *types.AttributeValueMemberB:
		return t.Value
	default:
		return nil
	}
}

// decodeRawMap handles JSON-shaped input. A single recognised tag collapses
// to its native value; anything else is decoded entry by entry.
func decodeRawMap(m map[string]any) any {
	if len(m) == 1 {
		for tag, val := range m {
			switch tag {
			case TagString:
				if s, ok := val.(string); ok {
					return s
				}
				return fmt.Sprint(val)
			case TagNumber:
				return decodeRawNumber(val)
			case TagBool:
				return val
			case TagNull:
				return nil
			case TagList:
				if l, ok := val.([]any); ok {
					return Decode(l)
				}
			case TagMap:
				if inner, ok := val.(map[string]any); ok {
					out := make(map[string]any, len(inner))
					for k, e := range inner {
						out[k] = Decode(e)
					}
					return out
				}
			}
		}
	}

	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Decode(e)
	}
	return out
}

func decodeRawNumber(val any) any {
	switch n := val.(type) {
	case string:
		return parseNumber(n)
	case json.Number:
		return parseNumber(n.String())
	default:
		return val
	}
}

// parseNumber keeps integers at full width and falls back to float64.
// Integers above math.MaxInt64 decode as uint64.
func parseNumber(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// formatFloat writes the shortest text that parses back to f. Integral
// floats keep a ".0" suffix so they decode as float64, not int64.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}
