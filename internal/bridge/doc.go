// Package bridge routes decoded AppMessage dictionaries to command handlers.
//
// Ownership boundary:
// - reserved key table and command kinds
// - exactly-one-command dispatch
// - http, cookie, location and time handlers
// - device identity derivation
package bridge
