package appmessage

import (
	"fmt"
	"strings"
)

// Dictionary is an ordered set of tuples with unique keys.
// Encounter order is kept so callers can reason about "first seen".
type Dictionary struct {
	tuples []Tuple
	index  map[Key]int
}

// NewDictionary builds a dictionary from tuples. Keys must be unique.
func NewDictionary(tuples ...Tuple) (Dictionary, error) {
	d := Dictionary{
		tuples: make([]Tuple, 0, len(tuples)),
		index:  make(map[Key]int, len(tuples)),
	}
	for _, t := range tuples {
		if err := d.add(t); err != nil {
			return Dictionary{}, err
		}
	}
	return d, nil
}

// MustDictionary is NewDictionary for statically known tuple sets.
func MustDictionary(tuples ...Tuple) Dictionary {
	d, err := NewDictionary(tuples...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dictionary) add(t Tuple) error {
	if d.index == nil {
		d.index = make(map[Key]int)
	}
	if _, ok := d.index[t.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, t.Key)
	}
	d.index[t.Key] = len(d.tuples)
	d.tuples = append(d.tuples, t.Clone())
	return nil
}

// Get returns the tuple stored under key.
func (d Dictionary) Get(key Key) (Tuple, bool) {
	i, ok := d.index[key]
	if !ok {
		return Tuple{}, false
	}
	return d.tuples[i].Clone(), true
}

// Has reports whether key is present.
func (d Dictionary) Has(key Key) bool {
	_, ok := d.index[key]
	return ok
}

// Len returns the number of tuples.
func (d Dictionary) Len() int {
	return len(d.tuples)
}

// Keys returns keys in encounter order.
func (d Dictionary) Keys() []Key {
	keys := make([]Key, 0, len(d.tuples))
	for _, t := range d.tuples {
		keys = append(keys, t.Key)
	}
	return keys
}

// Tuples returns a copy of the tuples in encounter order.
func (d Dictionary) Tuples() []Tuple {
	out := make([]Tuple, 0, len(d.tuples))
	for _, t := range d.tuples {
		out = append(out, t.Clone())
	}
	return out
}

func (d Dictionary) String() string {
	parts := make([]string, 0, len(d.tuples))
	for _, t := range d.tuples {
		parts = append(parts, t.Describe())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
