package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/logging"
	"github.com/danmuck/httpebble/internal/upstream"
	"github.com/danmuck/httpebble/internal/wiretype"
	"github.com/tidwall/gjson"
)

// httpURL posts the message parameters to the URL carried by the command and
// maps the JSON reply back into tuples. The reply is all or nothing.
func (r *Router) httpURL(ctx context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	uri, err := code.String()
	if err != nil || uri == "" {
		return nil, fmt.Errorf("%w: URL must be a non-empty string, got %s", ErrPreconditionFailed, code.Describe())
	}
	cookie, err := requireUint32(params, KeyCookie)
	if err != nil {
		return nil, err
	}
	appID, err := requireUint32(params, KeyAppID)
	if err != nil {
		return nil, err
	}

	payload, err := requestBody(params)
	if err != nil {
		return nil, err
	}
	logging.Infof("bridge.http_url url=%s app_id=%d cookie=%d", uri, appID, cookie)
	logging.Debugf("bridge.http_url body=%s", payload)

	header := http.Header{}
	header.Set(upstream.HeaderContentType, upstream.ContentTypeJSON)
	header.Set(upstream.HeaderPebbleID, r.identity.Header())
	resp, err := r.fetcher.Fetch(ctx, upstream.Request{URL: uri, Header: header, Body: payload})
	if err != nil {
		if !errors.Is(err, ErrUpstream) {
			err = fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return nil, err
	}
	logging.Infof("bridge.http_url status=%d: %s", resp.Status, resp.Body)

	fields, err := responseTuples(resp.Body)
	if err != nil {
		return nil, err
	}

	success := uint8(0)
	if resp.Status == http.StatusOK {
		success = 1
	}
	tuples := append([]appmessage.Tuple{
		appmessage.NewUint16(KeyStatus, uint16(resp.Status)),
		appmessage.NewUint8(KeyURL, success),
		appmessage.NewUint32(KeyCookie, cookie),
		appmessage.NewUint32(KeyAppID, appID),
	}, fields...)
	out, err := appmessage.NewDictionary(tuples...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return &out, nil
}

// requestBody serializes every parameter except COOKIE and APP_ID as a JSON
// object. Reserved metadata keys are named (USE_GET -> HTTP_USE_GET_KEY),
// plain keys use their decimal wire key.
func requestBody(params Params) ([]byte, error) {
	body := make(map[string]any, len(params))
	for key, t := range params {
		if key == KeyCookie || key == KeyAppID {
			continue
		}
		body[bodyKey(key)] = wiretype.ToJSON(t)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode request body: %w", err)
	}
	return payload, nil
}

func bodyKey(key appmessage.Key) string {
	if name, ok := MetadataName(key); ok {
		return "HTTP_" + name + "_KEY"
	}
	return strconv.Itoa(int(key))
}

// responseTuples converts a reply object in document order. Keys that are not
// decimal 16-bit wire keys are skipped with a warning. A repeated key keeps its
// first position and its last value.
func responseTuples(body []byte) ([]appmessage.Tuple, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrUpstream)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrUpstream)
	}

	var (
		tuples  []appmessage.Tuple
		convErr error
	)
	index := make(map[appmessage.Key]int)
	doc.ForEach(func(k, v gjson.Result) bool {
		n, err := strconv.ParseUint(k.String(), 10, 16)
		if err != nil {
			logging.Warnf("bridge.http_url skipping response key=%q: not a wire key", k.String())
			return true
		}
		t, err := wiretype.FromJSON(appmessage.Key(n), v)
		if err != nil {
			convErr = err
			return false
		}
		if i, dup := index[t.Key]; dup {
			logging.Warnf("bridge.http_url duplicate response key=%d: keeping last value", n)
			tuples[i] = t
			return true
		}
		index[t.Key] = len(tuples)
		tuples = append(tuples, t)
		return true
	})
	if convErr != nil {
		logging.Errf("bridge.http_url response conversion failed: %v", convErr)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, convErr)
	}
	return tuples, nil
}
