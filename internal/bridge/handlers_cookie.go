package bridge

import (
	"context"
	"sort"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/logging"
)

// cookieRequest is the common shape of the four cookie commands: the command
// value is a request id, APP_ID scopes the keys, the rest are cookie entries.
type cookieRequest struct {
	command   CommandKind
	requestID uint32
	appID     uint32
	entries   []appmessage.Tuple
}

func parseCookieRequest(command CommandKind, code appmessage.Tuple, params Params) (cookieRequest, error) {
	requestID, err := asUint32(code, command.String())
	if err != nil {
		return cookieRequest{}, err
	}
	appID, err := requireUint32(params, KeyAppID)
	if err != nil {
		return cookieRequest{}, err
	}
	entries := make([]appmessage.Tuple, 0, len(params))
	for key, t := range params {
		if key == KeyAppID {
			continue
		}
		entries = append(entries, t)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return cookieRequest{command: command, requestID: requestID, appID: appID, entries: entries}, nil
}

func (c cookieRequest) reply(extra ...appmessage.Tuple) (*appmessage.Dictionary, error) {
	tuples := append([]appmessage.Tuple{
		appmessage.NewUint32(c.command.Key(), c.requestID),
		appmessage.NewUint32(KeyAppID, c.appID),
	}, extra...)
	d, err := appmessage.NewDictionary(tuples...)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Router) cookieStore(_ context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	req, err := parseCookieRequest(CommandCookieStore, code, params)
	if err != nil {
		return nil, err
	}
	for _, t := range req.entries {
		r.cookies.Put(req.appID, t)
		logging.Debugf("bridge.cookie_store app_id=%d %s", req.appID, t.Describe())
	}
	logging.Infof("bridge.cookie_store request_id=%d app_id=%d stored=%d", req.requestID, req.appID, len(req.entries))
	return req.reply()
}

// cookieLoad returns stored values for the requested keys. Missing keys are
// left out of the reply without failing the request.
func (r *Router) cookieLoad(_ context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	req, err := parseCookieRequest(CommandCookieLoad, code, params)
	if err != nil {
		return nil, err
	}
	found := make([]appmessage.Tuple, 0, len(req.entries))
	for _, want := range req.entries {
		t, ok := r.cookies.Get(req.appID, want.Key)
		if !ok {
			logging.Debugf("bridge.cookie_load app_id=%d key=%d: %v", req.appID, want.Key, ErrCookieKeyNotFound)
			continue
		}
		found = append(found, t)
	}
	logging.Infof("bridge.cookie_load request_id=%d app_id=%d requested=%d found=%d", req.requestID, req.appID, len(req.entries), len(found))
	return req.reply(found...)
}

func (r *Router) cookieFsync(_ context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	req, err := parseCookieRequest(CommandCookieFsync, code, params)
	if err != nil {
		return nil, err
	}
	if err := r.cookies.Sync(req.appID); err != nil {
		return nil, err
	}
	logging.Infof("bridge.cookie_fsync request_id=%d app_id=%d", req.requestID, req.appID)
	return req.reply()
}

// cookieDelete removes the requested keys. Unlike load, a miss is warned about.
func (r *Router) cookieDelete(_ context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	req, err := parseCookieRequest(CommandCookieDelete, code, params)
	if err != nil {
		return nil, err
	}
	deleted := 0
	for _, t := range req.entries {
		if !r.cookies.Delete(req.appID, t.Key) {
			logging.Warnf("bridge.cookie_delete app_id=%d key=%d: %v", req.appID, t.Key, ErrCookieKeyNotFound)
			continue
		}
		deleted++
	}
	logging.Infof("bridge.cookie_delete request_id=%d app_id=%d deleted=%d", req.requestID, req.appID, deleted)
	return req.reply()
}
