// Package wiretype maps single-character type codes to AppMessage tuple kinds.
package wiretype

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/httpebble/internal/appmessage"
)

var (
	ErrUnknownTypeCode     = errors.New("wiretype: unknown type code")
	ErrValueOutOfRange     = errors.New("wiretype: value out of range")
	ErrMalformedTypedValue = errors.New("wiretype: malformed typed value")
	ErrNotInteger          = errors.New("wiretype: tuple is not an integer")
)

// Kind is the semantic kind of a wire value.
type Kind uint8

const (
	Int8 Kind = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	CString
	ByteArray
)

type kindSpec struct {
	code  byte
	name  string
	typ   appmessage.TupleType
	width int
	min   int64
	max   int64
}

var kinds = map[Kind]kindSpec{
	Int8:      {'b', "INT8", appmessage.TypeInt, 1, math.MinInt8, math.MaxInt8},
	Uint8:     {'B', "UINT8", appmessage.TypeUint, 1, 0, math.MaxUint8},
	Int16:     {'s', "INT16", appmessage.TypeInt, 2, math.MinInt16, math.MaxInt16},
	Uint16:    {'S', "UINT16", appmessage.TypeUint, 2, 0, math.MaxUint16},
	Int32:     {'i', "INT32", appmessage.TypeInt, 4, math.MinInt32, math.MaxInt32},
	Uint32:    {'I', "UINT32", appmessage.TypeUint, 4, 0, math.MaxUint32},
	CString:   {0, "CSTRING", appmessage.TypeCString, 0, 0, 0},
	ByteArray: {'d', "BYTE_ARRAY", appmessage.TypeByteArray, 0, 0, 0},
}

var byCode = map[byte]Kind{
	'b': Int8,
	'B': Uint8,
	's': Int16,
	'S': Uint16,
	'i': Int32,
	'I': Uint32,
	'd': ByteArray,
}

// KindOf resolves a type code. Width is 0 for the variable width 'd'.
func KindOf(code byte) (Kind, int, error) {
	k, ok := byCode[code]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownTypeCode, code)
	}
	return k, kinds[k].width, nil
}

func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s.name
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// Code returns the type code, 0 for kinds without one.
func (k Kind) Code() byte {
	return kinds[k].code
}

// Width is the packed size in bytes, 0 when variable.
func (k Kind) Width() int {
	return kinds[k].width
}

// TupleType is the on-wire tag the kind is packed under.
func (k Kind) TupleType() appmessage.TupleType {
	return kinds[k].typ
}

// IsInteger reports whether k is one of the fixed width integer kinds.
func (k Kind) IsInteger() bool {
	return kinds[k].width > 0
}

// KindOfTuple recovers the kind from a tuple tag and width.
func KindOfTuple(t appmessage.Tuple) (Kind, error) {
	switch t.Type {
	case appmessage.TypeCString:
		return CString, nil
	case appmessage.TypeByteArray:
		return ByteArray, nil
	}
	for k, s := range kinds {
		if s.width > 0 && s.typ == t.Type && s.width == len(t.Value) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %s width=%d", ErrNotInteger, t.Type, len(t.Value))
}

// PackInt packs v under key with the layout of kind.
func PackInt(key appmessage.Key, kind Kind, v int64) (appmessage.Tuple, error) {
	s, ok := kinds[kind]
	if !ok || s.width == 0 {
		return appmessage.Tuple{}, fmt.Errorf("%w: %s", ErrNotInteger, kind)
	}
	if v < s.min || v > s.max {
		return appmessage.Tuple{}, fmt.Errorf("%w: %d does not fit %s", ErrValueOutOfRange, v, kind)
	}
	switch kind {
	case Int8:
		return appmessage.NewInt8(key, int8(v)), nil
	case Uint8:
		return appmessage.NewUint8(key, uint8(v)), nil
	case Int16:
		return appmessage.NewInt16(key, int16(v)), nil
	case Uint16:
		return appmessage.NewUint16(key, uint16(v)), nil
	case Int32:
		return appmessage.NewInt32(key, int32(v)), nil
	default:
		return appmessage.NewUint32(key, uint32(v)), nil
	}
}

// UnpackInt is the inverse of PackInt.
func UnpackInt(t appmessage.Tuple) (Kind, int64, error) {
	k, err := KindOfTuple(t)
	if err != nil {
		return 0, 0, err
	}
	if !k.IsInteger() {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotInteger, k)
	}
	v, err := t.Integer()
	if err != nil {
		return 0, 0, err
	}
	return k, v, nil
}
