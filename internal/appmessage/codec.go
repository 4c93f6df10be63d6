package appmessage

import (
	"encoding/binary"
	"fmt"
)

// TupleHeaderLen is key(4) + type(1) + length(2).
const TupleHeaderLen = 7

// MaxTuples is bounded by the single count byte.
const MaxTuples = 255

// EncodeTuple writes one tuple in the Pebble layout.
func EncodeTuple(t Tuple) ([]byte, error) {
	if len(t.Value) > int(^uint16(0)) {
		return nil, ErrValueTooLarge
	}
	buf := make([]byte, TupleHeaderLen+len(t.Value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(t.Key))
	buf[4] = byte(t.Type)
	binary.LittleEndian.PutUint16(buf[5:7], uint16(len(t.Value)))
	copy(buf[7:], t.Value)
	return buf, nil
}

// Encode writes d as count byte followed by its tuples.
func Encode(d Dictionary) ([]byte, error) {
	if d.Len() > MaxTuples {
		return nil, ErrTooManyTuples
	}
	out := []byte{byte(d.Len())}
	for _, t := range d.tuples {
		b, err := EncodeTuple(t)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t.Key, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Decode parses a dictionary from the Pebble layout.
func Decode(payload []byte) (Dictionary, error) {
	if len(payload) == 0 {
		return Dictionary{}, ErrEmptyInput
	}
	count := int(payload[0])
	tuples := make([]Tuple, 0, count)
	i := 1
	for n := 0; n < count; n++ {
		if len(payload)-i < TupleHeaderLen {
			return Dictionary{}, ErrShortTupleHeader
		}
		rawKey := binary.LittleEndian.Uint32(payload[i : i+4])
		if rawKey > uint32(^uint16(0)) {
			return Dictionary{}, fmt.Errorf("%w: 0x%X", ErrKeyOutOfRange, rawKey)
		}
		typ := TupleType(payload[i+4])
		l := int(binary.LittleEndian.Uint16(payload[i+5 : i+7]))
		i += TupleHeaderLen
		if len(payload)-i < l {
			return Dictionary{}, ErrShortTupleValue
		}
		tuples = append(tuples, NewTuple(Key(rawKey), typ, payload[i:i+l]))
		i += l
	}
	if i != len(payload) {
		return Dictionary{}, ErrTrailingBytes
	}
	return NewDictionary(tuples...)
}
