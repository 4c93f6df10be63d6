package bridge

import (
	"context"
	"fmt"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/cookies"
	"github.com/danmuck/httpebble/internal/logging"
	"github.com/danmuck/httpebble/internal/observability"
	"github.com/danmuck/httpebble/internal/providers"
	"github.com/danmuck/httpebble/internal/upstream"
)

// Params are the non-command tuples of a message, keyed by wire key.
type Params map[appmessage.Key]appmessage.Tuple

// Handler serves one command. A nil dictionary with a nil error means no reply.
type Handler func(ctx context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error)

// Router dispatches one dictionary at a time to the handler of its command key.
// Callers deliver messages sequentially; the cookie store is the only shared state.
type Router struct {
	cfg      Config
	identity Identity
	cookies  *cookies.Store
	fetcher  upstream.Fetcher
	clock    providers.Clock
	handlers map[CommandKind]Handler
}

type Option func(*Router)

// WithCookieStore injects the cookie store, mainly to share it with other surfaces.
func WithCookieStore(store *cookies.Store) Option {
	return func(r *Router) {
		if store != nil {
			r.cookies = store
		}
	}
}

// WithFetcher replaces the net/http upstream fetcher.
func WithFetcher(f upstream.Fetcher) Option {
	return func(r *Router) {
		if f != nil {
			r.fetcher = f
		}
	}
}

// WithClock replaces the host clock used by the time handler.
func WithClock(c providers.Clock) Option {
	return func(r *Router) {
		if c != nil {
			r.clock = c
		}
	}
}

// NewRouter builds a router. The device identity is derived here, once.
func NewRouter(cfg Config, opts ...Option) *Router {
	r := &Router{
		cfg:      cfg,
		identity: DeriveIdentity(cfg.DeviceID),
		cookies:  cookies.NewStore(),
		clock:    providers.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fetcher == nil {
		r.fetcher = upstream.NewHTTPFetcher(nil, cfg.Upstream)
	}
	if r.cfg.Location == (providers.Fix{}) {
		r.cfg.Location = providers.MockFix
	}
	r.handlers = map[CommandKind]Handler{
		CommandURL:          r.httpURL,
		CommandLocation:     r.location,
		CommandTime:         r.hostTime,
		CommandCookieStore:  r.cookieStore,
		CommandCookieLoad:   r.cookieLoad,
		CommandCookieFsync:  r.cookieFsync,
		CommandCookieDelete: r.cookieDelete,
	}
	return r
}

// Identity returns the derived device identity.
func (r *Router) Identity() Identity {
	return r.identity
}

// Cookies exposes the router's cookie store.
func (r *Router) Cookies() *cookies.Store {
	return r.cookies
}

// Handler returns the handler bound to kind.
func (r *Router) Handler(kind CommandKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Process classifies every key of msg, picks the command and runs its handler.
//
// With several command keys the first one in encounter order wins and the
// rest are dropped with an error diagnostic, unless StrictCommands is set.
// With none, a *NoCommandError listing the received keys is returned.
func (r *Router) Process(ctx context.Context, msg appmessage.Dictionary) (*appmessage.Dictionary, error) {
	var (
		command CommandKind
		code    appmessage.Tuple
		seen    []CommandKind
	)
	params := make(Params, msg.Len())
	received := make([]appmessage.Key, 0, msg.Len())

	for _, t := range msg.Tuples() {
		kind, isCommand := CommandKindOf(t.Key)
		if !isCommand {
			params[t.Key] = t
			received = append(received, t.Key)
			continue
		}
		seen = append(seen, kind)
		if command != 0 {
			logging.Errf("bridge.Process got more than one command: keeping=%s ignoring=%s", command, kind)
			continue
		}
		logging.Infof("bridge.Process command=%s handler=%s", kind, kind.HandlerName())
		command = kind
		code = t
	}

	for _, k := range received {
		logging.Debugf("    %s: %s", KeyName(k), params[k].Describe())
	}

	if command == 0 {
		err := &NoCommandError{Received: received}
		logging.Errf("bridge.Process no command identified received=%s", formatKeys(received))
		observability.RecordDispatch("none", errorClass(err))
		return nil, err
	}
	if len(seen) > 1 && r.cfg.StrictCommands {
		err := &MultipleCommandsError{Commands: seen}
		logging.Errf("bridge.Process rejecting message: %v", err)
		observability.RecordDispatch(command.String(), errorClass(err))
		return nil, err
	}

	handler, ok := r.handlers[command]
	if !ok {
		return nil, fmt.Errorf("%w: no handler for %s", ErrProtocolViolation, command)
	}
	out, err := handler(ctx, code, params)
	if err != nil {
		logging.Errf("bridge.Process command=%s failed: %v", command, err)
		observability.RecordDispatch(command.String(), errorClass(err))
		return nil, err
	}
	if out == nil {
		logging.Debugf("bridge.Process command=%s produced no output", command)
		observability.RecordDispatch(command.String(), "no_output")
		return nil, nil
	}
	logging.Debugf("bridge.Process command=%s reply=%s", command, out)
	observability.RecordDispatch(command.String(), "ok")
	return out, nil
}

// requireUint32 reads a mandatory unsigned 32-bit parameter.
func requireUint32(params Params, key appmessage.Key) (uint32, error) {
	t, ok := params[key]
	if !ok {
		return 0, missingParam(key)
	}
	return asUint32(t, KeyName(key))
}

func asUint32(t appmessage.Tuple, what string) (uint32, error) {
	v, err := t.Integer()
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrPreconditionFailed, what, t.Describe())
	}
	if v < 0 || v > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: %s out of range: %d", ErrPreconditionFailed, what, v)
	}
	return uint32(v), nil
}
