package appmessage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Key identifies one dictionary field.
type Key uint16

func (k Key) String() string {
	return fmt.Sprintf("0x%04X", uint16(k))
}

// TupleType is the on-wire tag of a tuple value.
type TupleType uint8

// Tuple type tags from the AppMessage contract.
const (
	TypeByteArray TupleType = 0
	TypeCString   TupleType = 1
	TypeUint      TupleType = 2
	TypeInt       TupleType = 3
)

func (t TupleType) String() string {
	switch t {
	case TypeByteArray:
		return "BYTE_ARRAY"
	case TypeCString:
		return "CSTRING"
	case TypeUint:
		return "UINT"
	case TypeInt:
		return "INT"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

// Tuple is one typed dictionary entry. Value holds the packed little-endian bytes.
type Tuple struct {
	Key   Key
	Type  TupleType
	Value []byte
}

// NewTuple builds a tuple from already packed bytes.
func NewTuple(key Key, typ TupleType, value []byte) Tuple {
	buf := make([]byte, len(value))
	copy(buf, value)
	return Tuple{Key: key, Type: typ, Value: buf}
}

// NewUint8 creates an unsigned 8-bit tuple.
func NewUint8(key Key, v uint8) Tuple {
	return Tuple{Key: key, Type: TypeUint, Value: []byte{v}}
}

// NewUint16 creates an unsigned 16-bit tuple.
func NewUint16(key Key, v uint16) Tuple {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return Tuple{Key: key, Type: TypeUint, Value: buf}
}

// NewUint32 creates an unsigned 32-bit tuple.
func NewUint32(key Key, v uint32) Tuple {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return Tuple{Key: key, Type: TypeUint, Value: buf}
}

// NewInt8 creates a signed 8-bit tuple.
func NewInt8(key Key, v int8) Tuple {
	return Tuple{Key: key, Type: TypeInt, Value: []byte{byte(v)}}
}

// NewInt16 creates a signed 16-bit tuple.
func NewInt16(key Key, v int16) Tuple {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(v))
	return Tuple{Key: key, Type: TypeInt, Value: buf}
}

// NewInt32 creates a signed 32-bit tuple.
func NewInt32(key Key, v int32) Tuple {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return Tuple{Key: key, Type: TypeInt, Value: buf}
}

// NewFloat32 packs an IEEE-754 float into a 4-byte UINT tuple.
// The watch side reinterprets the bits, it has no float tag.
func NewFloat32(key Key, v float32) Tuple {
	return NewUint32(key, math.Float32bits(v))
}

// NewCString creates a null-terminated string tuple.
func NewCString(key Key, v string) Tuple {
	buf := make([]byte, len(v)+1)
	copy(buf, v)
	return Tuple{Key: key, Type: TypeCString, Value: buf}
}

// NewBytes creates a byte array tuple.
func NewBytes(key Key, v []byte) Tuple {
	return NewTuple(key, TypeByteArray, v)
}

// Uint returns the tuple value as an unsigned integer.
func (t Tuple) Uint() (uint64, error) {
	if t.Type != TypeUint {
		return 0, ErrTupleTypeMismatch
	}
	switch len(t.Value) {
	case 1:
		return uint64(t.Value[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(t.Value)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(t.Value)), nil
	default:
		return 0, ErrInvalidLength
	}
}

// Int returns the tuple value as a signed integer.
func (t Tuple) Int() (int64, error) {
	if t.Type != TypeInt {
		return 0, ErrTupleTypeMismatch
	}
	switch len(t.Value) {
	case 1:
		return int64(int8(t.Value[0])), nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(t.Value))), nil
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(t.Value))), nil
	default:
		return 0, ErrInvalidLength
	}
}

// Integer returns the value of an INT or UINT tuple widened to int64.
func (t Tuple) Integer() (int64, error) {
	switch t.Type {
	case TypeInt:
		return t.Int()
	case TypeUint:
		v, err := t.Uint()
		return int64(v), err
	default:
		return 0, ErrTupleTypeMismatch
	}
}

// Float32 reinterprets a 4-byte UINT tuple as a float.
func (t Tuple) Float32() (float32, error) {
	if t.Type != TypeUint {
		return 0, ErrTupleTypeMismatch
	}
	if len(t.Value) != 4 {
		return 0, ErrInvalidLength
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(t.Value)), nil
}

// String returns the tuple value as a string, without the terminator.
func (t Tuple) String() (string, error) {
	if t.Type != TypeCString {
		return "", ErrTupleTypeMismatch
	}
	if i := bytes.IndexByte(t.Value, 0); i >= 0 {
		return string(t.Value[:i]), nil
	}
	return string(t.Value), nil
}

// Bytes returns a copy of the tuple value of a byte array tuple.
func (t Tuple) Bytes() ([]byte, error) {
	if t.Type != TypeByteArray {
		return nil, ErrTupleTypeMismatch
	}
	buf := make([]byte, len(t.Value))
	copy(buf, t.Value)
	return buf, nil
}

// Clone returns a deep copy of t.
func (t Tuple) Clone() Tuple {
	return NewTuple(t.Key, t.Type, t.Value)
}

// Equal reports whether both tuples carry the same key, tag and bytes.
func (t Tuple) Equal(o Tuple) bool {
	return t.Key == o.Key && t.Type == o.Type && bytes.Equal(t.Value, o.Value)
}

// Describe renders the tuple for diagnostics.
func (t Tuple) Describe() string {
	switch t.Type {
	case TypeInt, TypeUint:
		if v, err := t.Integer(); err == nil {
			return fmt.Sprintf("%s %s/%d=%d", t.Key, t.Type, len(t.Value), v)
		}
	case TypeCString:
		if s, err := t.String(); err == nil {
			return fmt.Sprintf("%s %s=%q", t.Key, t.Type, s)
		}
	}
	return fmt.Sprintf("%s %s=% x", t.Key, t.Type, t.Value)
}
