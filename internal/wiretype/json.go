package wiretype

import (
	"encoding/base64"
	"fmt"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/tidwall/gjson"
)

// FromJSON converts one upstream response value into a tuple.
//
//	[code, value]  -> kind from the code table ('d' = base64 blob)
//	integer        -> INT32
//	string         -> CSTRING
//	anything else  -> CSTRING of the raw JSON text
func FromJSON(key appmessage.Key, v gjson.Result) (appmessage.Tuple, error) {
	switch {
	case v.IsArray():
		return typedFromJSON(key, v.Array())
	case v.Type == gjson.Number && isIntegral(v):
		return PackInt(key, Int32, v.Int())
	case v.Type == gjson.String:
		return appmessage.NewCString(key, v.Str), nil
	default:
		return appmessage.NewCString(key, v.Raw), nil
	}
}

func typedFromJSON(key appmessage.Key, pair []gjson.Result) (appmessage.Tuple, error) {
	if len(pair) != 2 {
		return appmessage.Tuple{}, fmt.Errorf("%w: key %d: expected [code, value], got %d items", ErrMalformedTypedValue, key, len(pair))
	}
	code := pair[0]
	if code.Type != gjson.String || len(code.Str) != 1 {
		return appmessage.Tuple{}, fmt.Errorf("%w: key %d: code %s", ErrUnknownTypeCode, key, code.Raw)
	}
	kind, _, err := KindOf(code.Str[0])
	if err != nil {
		return appmessage.Tuple{}, fmt.Errorf("key %d: %w", key, err)
	}
	val := pair[1]
	if kind == ByteArray {
		if val.Type != gjson.String {
			return appmessage.Tuple{}, fmt.Errorf("%w: key %d: 'd' needs a base64 string", ErrMalformedTypedValue, key)
		}
		raw, err := base64.StdEncoding.DecodeString(val.Str)
		if err != nil {
			return appmessage.Tuple{}, fmt.Errorf("%w: key %d: %v", ErrMalformedTypedValue, key, err)
		}
		return appmessage.NewBytes(key, raw), nil
	}
	if val.Type != gjson.Number || !isIntegral(val) {
		return appmessage.Tuple{}, fmt.Errorf("%w: key %d: %s needs an integer, got %s", ErrMalformedTypedValue, key, kind, val.Raw)
	}
	t, err := PackInt(key, kind, val.Int())
	if err != nil {
		return appmessage.Tuple{}, fmt.Errorf("key %d: %w", key, err)
	}
	return t, nil
}

// isIntegral rejects fractions and values gjson had to clamp.
func isIntegral(v gjson.Result) bool {
	i := v.Int()
	return float64(i) == v.Num
}

// ToJSON renders a tuple as a value for an outbound JSON body.
// Byte arrays stay []byte so encoding/json emits base64.
func ToJSON(t appmessage.Tuple) any {
	switch t.Type {
	case appmessage.TypeInt, appmessage.TypeUint:
		if v, err := t.Integer(); err == nil {
			return v
		}
	case appmessage.TypeCString:
		if s, err := t.String(); err == nil {
			return s
		}
	}
	out := make([]byte, len(t.Value))
	copy(out, t.Value)
	return out
}
