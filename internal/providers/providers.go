// Package providers synthesizes location and time replies in wire format.
package providers

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/httpebble/internal/appmessage"
)

var ErrPreconditionFailed = errors.New("providers: precondition failed")

// Keys written by the providers. They mirror the reserved metadata keys.
const (
	KeyLocation  appmessage.Key = 0xFFE0
	KeyLatitude  appmessage.Key = 0xFFE1
	KeyLongitude appmessage.Key = 0xFFE2
	KeyAltitude  appmessage.Key = 0xFFE3

	KeyTime      appmessage.Key = 0xFFF5
	KeyUTCOffset appmessage.Key = 0xFFF6
	KeyIsDST     appmessage.Key = 0xFFF7
	KeyTZName    appmessage.Key = 0xFFF8
)

// Fix is a location reading. Accuracy is reported under the LOCATION key.
type Fix struct {
	Accuracy  float32
	Latitude  float32
	Longitude float32
	Altitude  float32
}

// MockFix is the canned fix served until a real location source exists.
var MockFix = Fix{
	Accuracy:  5.0,
	Latitude:  47.62052,
	Longitude: -122.32408,
	Altitude:  31.337,
}

// Clock supplies the host wall clock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Location answers a LOCATION request with fix.
func Location(fix Fix, code appmessage.Tuple, paramCount int) (appmessage.Dictionary, error) {
	if err := requireTrigger("location", code, paramCount); err != nil {
		return appmessage.Dictionary{}, err
	}
	return appmessage.NewDictionary(
		appmessage.NewFloat32(KeyLocation, fix.Accuracy),
		appmessage.NewFloat32(KeyLatitude, fix.Latitude),
		appmessage.NewFloat32(KeyLongitude, fix.Longitude),
		appmessage.NewFloat32(KeyAltitude, fix.Altitude),
	)
}

// Time answers a TIME request from clock.
//
// UTC_OFFSET follows the POSIX timezone/altzone convention: seconds west of
// UTC for the zone in effect, so UTC-7 is +25200.
func Time(clock Clock, code appmessage.Tuple, paramCount int) (appmessage.Dictionary, error) {
	if err := requireTrigger("time", code, paramCount); err != nil {
		return appmessage.Dictionary{}, err
	}
	now := clock.Now()
	name, offset := now.Zone()
	dst := uint8(0)
	if now.IsDST() {
		dst = 1
	}
	return appmessage.NewDictionary(
		appmessage.NewUint32(KeyTime, uint32(now.Unix())),
		appmessage.NewInt32(KeyUTCOffset, int32(-offset)),
		appmessage.NewUint8(KeyIsDST, dst),
		appmessage.NewCString(KeyTZName, name),
	)
}

func requireTrigger(name string, code appmessage.Tuple, paramCount int) error {
	v, err := code.Integer()
	if err != nil || v != 1 {
		return fmt.Errorf("%w: %s expects code 1, got %s", ErrPreconditionFailed, name, code.Describe())
	}
	if paramCount != 0 {
		return fmt.Errorf("%w: %s expects no parameters, got %d", ErrPreconditionFailed, name, paramCount)
	}
	return nil
}
