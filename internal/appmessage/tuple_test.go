package appmessage

import (
	"errors"
	"testing"

	"github.com/danmuck/httpebble/internal/testutil/testlog"
)

func TestIntegerTuplesAreLittleEndian(t *testing.T) {
	testlog.Start(t)

	u16 := NewUint16(1, 0x0102)
	if u16.Value[0] != 0x02 || u16.Value[1] != 0x01 {
		t.Fatalf("uint16 not little-endian: % x", u16.Value)
	}
	i32 := NewInt32(2, -2)
	if got, err := i32.Int(); err != nil || got != -2 {
		t.Fatalf("int32 round trip: got=%d err=%v", got, err)
	}
	i8 := NewInt8(3, -128)
	if got, err := i8.Int(); err != nil || got != -128 {
		t.Fatalf("int8 round trip: got=%d err=%v", got, err)
	}
	u32 := NewUint32(4, 0xFFFFFFFF)
	if got, err := u32.Uint(); err != nil || got != 0xFFFFFFFF {
		t.Fatalf("uint32 round trip: got=%d err=%v", got, err)
	}
}

func TestTupleAccessorMismatch(t *testing.T) {
	testlog.Start(t)

	if _, err := NewUint8(1, 1).Int(); !errors.Is(err, ErrTupleTypeMismatch) {
		t.Fatalf("expected ErrTupleTypeMismatch, got %v", err)
	}
	if _, err := NewCString(1, "x").Bytes(); !errors.Is(err, ErrTupleTypeMismatch) {
		t.Fatalf("expected ErrTupleTypeMismatch, got %v", err)
	}
	bad := Tuple{Key: 1, Type: TypeUint, Value: []byte{1, 2, 3}}
	if _, err := bad.Uint(); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestCStringTerminator(t *testing.T) {
	testlog.Start(t)

	tup := NewCString(9, "PDT")
	if len(tup.Value) != 4 || tup.Value[3] != 0 {
		t.Fatalf("expected null terminator, got % x", tup.Value)
	}
	s, err := tup.String()
	if err != nil || s != "PDT" {
		t.Fatalf("unexpected string: %q err=%v", s, err)
	}
}

func TestFloat32Bits(t *testing.T) {
	testlog.Start(t)

	tup := NewFloat32(0xFFE1, 47.62052)
	if tup.Type != TypeUint || len(tup.Value) != 4 {
		t.Fatalf("unexpected float tuple shape: %+v", tup)
	}
	f, err := tup.Float32()
	if err != nil || f != float32(47.62052) {
		t.Fatalf("unexpected float: %v err=%v", f, err)
	}
}

func TestNewTupleCopiesValue(t *testing.T) {
	testlog.Start(t)

	raw := []byte{1, 2}
	tup := NewBytes(5, raw)
	raw[0] = 9
	if tup.Value[0] != 1 {
		t.Fatalf("tuple aliases caller slice")
	}
}
