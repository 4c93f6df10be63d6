package bridge

// Identity is the shortened device id sent as X-Pebble-ID.
type Identity string

// DeriveIdentity keeps characters [-5:-3] and [-2:] of ids longer than 4
// characters, so the address 00:17:E9:A1:B2:C3 becomes B2C3. Shorter ids are
// used unchanged. The raw id is taken as given, never hex-decoded.
func DeriveIdentity(raw string) Identity {
	n := len(raw)
	if n <= 4 {
		return Identity(raw)
	}
	return Identity(raw[n-5:n-3] + raw[n-2:])
}

// Header is the identity as sent upstream.
func (id Identity) Header() string {
	return string(id)
}

func (id Identity) String() string {
	return string(id)
}
