package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/testutil/testlog"
	"github.com/danmuck/httpebble/internal/upstream"
	"github.com/danmuck/httpebble/internal/wiretype"
)

func urlMessage(uri string, extra ...appmessage.Tuple) appmessage.Dictionary {
	tuples := []appmessage.Tuple{
		appmessage.NewCString(KeyURL, uri),
		appmessage.NewUint32(KeyCookie, 5),
		appmessage.NewUint32(KeyAppID, 11),
	}
	return appmessage.MustDictionary(append(tuples, extra...)...)
}

func TestHTTPURLScenario(t *testing.T) {
	testlog.Start(t)

	var got upstream.Request
	r := newTestRouter(t, WithFetcher(upstream.FetcherFunc(func(ctx context.Context, req upstream.Request) (upstream.Response, error) {
		got = req
		return upstream.Response{Status: 200, Body: []byte(`{"status":200, "7":[ "i", 42]}`)}, nil
	})))

	out, err := r.Process(context.Background(), urlMessage("http://example.test/api", appmessage.NewInt16(3, -4), appmessage.NewCString(4, "hi")))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	status, _ := out.Get(KeyStatus)
	if v, _ := status.Uint(); v != 200 || len(status.Value) != 2 {
		t.Fatalf("unexpected status tuple: %s", status.Describe())
	}
	flag, _ := out.Get(KeyURL)
	if v, _ := flag.Uint(); v != 1 || len(flag.Value) != 1 {
		t.Fatalf("unexpected success flag: %s", flag.Describe())
	}
	cookie, _ := out.Get(KeyCookie)
	if v, _ := cookie.Uint(); v != 5 {
		t.Fatalf("unexpected cookie: %s", cookie.Describe())
	}
	app, _ := out.Get(KeyAppID)
	if v, _ := app.Uint(); v != 11 {
		t.Fatalf("unexpected app id: %s", app.Describe())
	}
	field, ok := out.Get(7)
	if !ok {
		t.Fatalf("missing key 7 in %s", out)
	}
	if k, v, err := wiretype.UnpackInt(field); err != nil || k != wiretype.Int32 || v != 42 {
		t.Fatalf("unexpected key 7: %s %d %v", k, v, err)
	}
	if out.Len() != 5 {
		t.Fatalf("unexpected reply size %d: %s", out.Len(), out)
	}
	keys := out.Keys()
	if keys[0] != KeyStatus || keys[1] != KeyURL || keys[2] != KeyCookie || keys[3] != KeyAppID {
		t.Fatalf("mandatory entries out of order: %v", keys)
	}

	if got.URL != "http://example.test/api" {
		t.Fatalf("unexpected url: %q", got.URL)
	}
	if got.Header.Get(upstream.HeaderContentType) != upstream.ContentTypeJSON {
		t.Fatalf("missing content type header: %v", got.Header)
	}
	if got.Header.Get(upstream.HeaderPebbleID) != r.Identity().Header() {
		t.Fatalf("missing pebble id header: %v", got.Header)
	}
	var body map[string]any
	if err := json.Unmarshal(got.Body, &body); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if len(body) != 2 || body["3"] != float64(-4) || body["4"] != "hi" {
		t.Fatalf("unexpected body: %s", got.Body)
	}
}

func TestHTTPURLNonOKStatus(t *testing.T) {
	testlog.Start(t)

	r := newTestRouter(t, WithFetcher(upstream.FetcherFunc(func(ctx context.Context, req upstream.Request) (upstream.Response, error) {
		return upstream.Response{Status: 404, Body: []byte(`{"1":"missing"}`)}, nil
	})))
	out, err := r.Process(context.Background(), urlMessage("http://example.test/"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	flag, _ := out.Get(KeyURL)
	if v, _ := flag.Uint(); v != 0 {
		t.Fatalf("expected success flag 0, got %d", v)
	}
	status, _ := out.Get(KeyStatus)
	if v, _ := status.Uint(); v != 404 {
		t.Fatalf("unexpected status: %d", v)
	}
	msg, _ := out.Get(1)
	if s, _ := msg.String(); s != "missing" {
		t.Fatalf("unexpected field: %q", s)
	}
}

func TestHTTPURLMissingParameters(t *testing.T) {
	testlog.Start(t)

	r := newTestRouter(t)
	_, err := r.Process(context.Background(), appmessage.MustDictionary(
		appmessage.NewCString(KeyURL, "http://example.test/"),
		appmessage.NewUint32(KeyAppID, 11),
	))
	if !errors.Is(err, ErrMissingRequiredParameter) {
		t.Fatalf("expected ErrMissingRequiredParameter for COOKIE, got %v", err)
	}
	_, err = r.Process(context.Background(), appmessage.MustDictionary(
		appmessage.NewCString(KeyURL, "http://example.test/"),
		appmessage.NewUint32(KeyCookie, 11),
	))
	if !errors.Is(err, ErrMissingRequiredParameter) {
		t.Fatalf("expected ErrMissingRequiredParameter for APP_ID, got %v", err)
	}
}

func TestHTTPURLUpstreamFailuresProduceNoOutput(t *testing.T) {
	testlog.Start(t)

	cases := map[string]upstream.Fetcher{
		"transport": upstream.FetcherFunc(func(ctx context.Context, req upstream.Request) (upstream.Response, error) {
			return upstream.Response{}, errors.New("connection refused")
		}),
		"not json":   okFetcher(`<html>oops</html>`),
		"not object": okFetcher(`[1,2]`),
		"bad code":   okFetcher(`{"1":["x",1]}`),
		"overflow":   okFetcher(`{"1":["B",256]}`),
		"collision":  okFetcher(`{"65535":1}`),
	}
	for name, f := range cases {
		r := newTestRouter(t, WithFetcher(f))
		out, err := r.Process(context.Background(), urlMessage("http://example.test/"))
		if out != nil {
			t.Fatalf("%s: expected no output, got %s", name, out)
		}
		if !errors.Is(err, ErrUpstream) {
			t.Fatalf("%s: expected ErrUpstream, got %v", name, err)
		}
	}

	r := newTestRouter(t, WithFetcher(okFetcher(`{"1":["q",1]}`)))
	_, err := r.Process(context.Background(), urlMessage("http://example.test/"))
	if !errors.Is(err, ErrUnknownTypeCode) {
		t.Fatalf("expected ErrUnknownTypeCode to stay visible, got %v", err)
	}
}

func TestHTTPURLAgainstHTTPServer(t *testing.T) {
	testlog.Start(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(upstream.HeaderPebbleID) != "B2C3" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"2":["S",65535],"1":"ok"}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.DeviceID = "00:17:E9:A1:B2:C3"
	r := NewRouter(cfg)
	out, err := r.Process(context.Background(), urlMessage(srv.URL))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	status, _ := out.Get(KeyStatus)
	if v, _ := status.Uint(); v != 200 {
		t.Fatalf("unexpected status: %d", v)
	}
	keys := out.Keys()
	if len(keys) != 6 || keys[4] != 2 || keys[5] != 1 {
		t.Fatalf("response fields not in document order: %v", keys)
	}
	u16, _ := out.Get(2)
	if k, v, _ := wiretype.UnpackInt(u16); k != wiretype.Uint16 || v != 65535 {
		t.Fatalf("unexpected key 2: %s %d", k, v)
	}
}

func TestHTTPURLBodyNamesMetadataKeys(t *testing.T) {
	testlog.Start(t)

	var got upstream.Request
	r := newTestRouter(t, WithFetcher(upstream.FetcherFunc(func(ctx context.Context, req upstream.Request) (upstream.Response, error) {
		got = req
		return upstream.Response{Status: 200, Body: []byte(`{}`)}, nil
	})))
	_, err := r.Process(context.Background(), urlMessage("http://example.test/",
		appmessage.NewUint8(KeyUseGet, 1),
		appmessage.NewUint8(3, 4),
	))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(got.Body, &body); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if len(body) != 2 || body["HTTP_USE_GET_KEY"] != float64(1) || body["3"] != float64(4) {
		t.Fatalf("unexpected body: %s", got.Body)
	}
	if _, ok := body["65530"]; ok {
		t.Fatalf("metadata key sent by number: %s", got.Body)
	}
}

func TestHTTPURLDuplicateResponseKeyKeepsLast(t *testing.T) {
	testlog.Start(t)

	r := newTestRouter(t, WithFetcher(okFetcher(`{"7":1,"8":"x","7":2}`)))
	out, err := r.Process(context.Background(), urlMessage("http://example.test/"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Len() != 6 {
		t.Fatalf("unexpected reply size %d: %s", out.Len(), out)
	}
	field, _ := out.Get(7)
	if k, v, err := wiretype.UnpackInt(field); err != nil || k != wiretype.Int32 || v != 2 {
		t.Fatalf("expected last value for key 7, got %s %d %v", k, v, err)
	}
	if keys := out.Keys(); keys[4] != 7 || keys[5] != 8 {
		t.Fatalf("duplicate moved the key: %v", keys)
	}
}
