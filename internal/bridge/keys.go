package bridge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/providers"
)

// Reserved keys. Command keys select a handler, the rest are metadata
// consumed by handlers as parameters.
const (
	KeyURL          appmessage.Key = 0xFFFF
	KeyStatus       appmessage.Key = 0xFFFE
	KeyCookie       appmessage.Key = 0xFFFC
	KeyConnect      appmessage.Key = 0xFFFB
	KeyUseGet       appmessage.Key = 0xFFFA
	KeyFramebuffer  appmessage.Key = 0xFFF9
	KeyTZName                      = providers.KeyTZName
	KeyIsDST                       = providers.KeyIsDST
	KeyUTCOffset                   = providers.KeyUTCOffset
	KeyTime                        = providers.KeyTime
	KeyCookieDelete appmessage.Key = 0xFFF4
	KeyCookieFsync  appmessage.Key = 0xFFF3
	KeyAppID        appmessage.Key = 0xFFF2
	KeyCookieLoad   appmessage.Key = 0xFFF1
	KeyCookieStore  appmessage.Key = 0xFFF0
	KeyLocation                    = providers.KeyLocation
	KeyLatitude                    = providers.KeyLatitude
	KeyLongitude                   = providers.KeyLongitude
	KeyAltitude                    = providers.KeyAltitude
)

// CommandKind enumerates the commands the router understands.
type CommandKind uint8

const (
	CommandURL CommandKind = iota + 1
	CommandLocation
	CommandTime
	CommandCookieStore
	CommandCookieLoad
	CommandCookieFsync
	CommandCookieDelete
)

type commandSpec struct {
	key     appmessage.Key
	name    string
	handler string
}

var commandTable = map[CommandKind]commandSpec{
	CommandURL:          {KeyURL, "URL", "http_url"},
	CommandLocation:     {KeyLocation, "LOCATION", "location"},
	CommandTime:         {KeyTime, "TIME", "time"},
	CommandCookieStore:  {KeyCookieStore, "COOKIE_STORE", "cookie_store"},
	CommandCookieLoad:   {KeyCookieLoad, "COOKIE_LOAD", "cookie_load"},
	CommandCookieFsync:  {KeyCookieFsync, "COOKIE_FSYNC", "cookie_fsync"},
	CommandCookieDelete: {KeyCookieDelete, "COOKIE_DELETE", "cookie_delete"},
}

var commandByKey = func() map[appmessage.Key]CommandKind {
	out := make(map[appmessage.Key]CommandKind, len(commandTable))
	for kind, spec := range commandTable {
		out[spec.key] = kind
	}
	return out
}()

var metadataNames = map[appmessage.Key]string{
	KeyStatus:      "STATUS",
	KeyCookie:      "COOKIE",
	KeyConnect:     "CONNECT",
	KeyUseGet:      "USE_GET",
	KeyAppID:       "APP_ID",
	KeyUTCOffset:   "UTC_OFFSET",
	KeyIsDST:       "IS_DST",
	KeyTZName:      "TZ_NAME",
	KeyLatitude:    "LATITUDE",
	KeyLongitude:   "LONGITUDE",
	KeyAltitude:    "ALTITUDE",
	KeyFramebuffer: "FRAMEBUFFER_SLICE",
}

// Commands lists every command kind in table order.
func Commands() []CommandKind {
	return []CommandKind{
		CommandURL,
		CommandLocation,
		CommandTime,
		CommandCookieStore,
		CommandCookieLoad,
		CommandCookieFsync,
		CommandCookieDelete,
	}
}

// CommandKindOf reports the command bound to key, if any.
func CommandKindOf(key appmessage.Key) (CommandKind, bool) {
	kind, ok := commandByKey[key]
	return kind, ok
}

// Key is the wire key that carries the command.
func (c CommandKind) Key() appmessage.Key {
	return commandTable[c].key
}

// HandlerName is the stable handler identifier used in logs and metrics.
func (c CommandKind) HandlerName() string {
	return commandTable[c].handler
}

func (c CommandKind) String() string {
	if spec, ok := commandTable[c]; ok {
		return spec.name
	}
	return fmt.Sprintf("COMMAND(%d)", uint8(c))
}

// MetadataName names a reserved non-command key.
func MetadataName(key appmessage.Key) (string, bool) {
	name, ok := metadataNames[key]
	return name, ok
}

// IsReserved reports whether key is a command or metadata key.
func IsReserved(key appmessage.Key) bool {
	if _, ok := commandByKey[key]; ok {
		return true
	}
	_, ok := metadataNames[key]
	return ok
}

// KeyName renders key with its reserved name when it has one.
func KeyName(key appmessage.Key) string {
	if kind, ok := commandByKey[key]; ok {
		return kind.String()
	}
	if name, ok := metadataNames[key]; ok {
		return name
	}
	return fmt.Sprintf("%d", uint16(key))
}

func formatKeys(keys []appmessage.Key) string {
	sorted := append([]appmessage.Key(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	names := make([]string, 0, len(sorted))
	for _, k := range sorted {
		names = append(names, KeyName(k))
	}
	return "[" + strings.Join(names, " ") + "]"
}
