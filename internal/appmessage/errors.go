package appmessage

import "errors"

var (
	ErrTupleTypeMismatch = errors.New("appmessage: tuple type mismatch")
	ErrInvalidLength     = errors.New("appmessage: invalid length")
	ErrDuplicateKey      = errors.New("appmessage: duplicate key")
	ErrShortTupleHeader  = errors.New("appmessage: short tuple header")
	ErrShortTupleValue   = errors.New("appmessage: short tuple value")
	ErrTooManyTuples     = errors.New("appmessage: too many tuples")
	ErrKeyOutOfRange     = errors.New("appmessage: key out of range")
	ErrValueTooLarge     = errors.New("appmessage: value too large")
	ErrTrailingBytes     = errors.New("appmessage: trailing bytes")
	ErrEmptyInput        = errors.New("appmessage: empty input")
)
