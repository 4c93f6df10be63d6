// Package appmessage owns the AppMessage tuple and dictionary primitives.
//
// Ownership boundary:
// - tuple construction and typed accessors
// - dictionary construction with unique keys
// - Pebble byte layout encode/decode
package appmessage
