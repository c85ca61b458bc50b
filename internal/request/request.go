// Package request implements the Request Engine (R): a reusable HTTP
// request object with a small state machine, automatic redirect following,
// transparent OAuth access-token refresh on 401, and JSON body handling.
// Every resource client in internal/youtube is a thin parameterization of
// this engine. Grounded on the teacher's retry/transport plumbing
// (internal/downloader/http.go, retry.go) for the transport side and on
// original_source/src/request_p.h / authenticationrequest.cpp for the
// refresh-then-replay semantics.
package request

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lvcoi/ytapi-go/internal/apierr"
	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
)

// MaxRedirects is the bound spec.md §3 fixes: redirect_count ≤ 8.
const MaxRedirects = 8

// TokenURL is the OAuth token endpoint used for the 401 refresh-then-replay
// path, duplicated here (rather than imported from internal/auth, which
// depends on this package) to avoid a cycle; internal/auth uses the same
// constant for its own token exchanges. A var, not a const, so tests can
// point it at a local server.
var TokenURL = "https://accounts.google.com/o/oauth2/token"

// Status is a Request's position in the Null → Loading → terminal state
// machine.
type Status int

const (
	Null Status = iota
	Loading
	Ready
	Failed
	Canceled
)

func (s Status) String() string {
	switch s {
	case Null:
		return "null"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// BodyKind distinguishes the two request-body encodings R understands.
type BodyKind int

const (
	NoBody BodyKind = iota
	JSONBody
	FormBody
)

// Request is one HTTP request object carrying its own state machine. It is
// not safe to call Execute concurrently with itself; a new Execute while
// Loading cancels the in-flight attempt and starts fresh (spec.md §9 open
// question ii, resolved in DESIGN.md).
type Request struct {
	Credentials

	client *http.Client
	hub    *hub

	mu            sync.Mutex
	url           string
	headers       map[string]string
	bodyKind      BodyKind
	bodyJSON      []byte
	bodyForm      string
	status        Status
	errCategory   apierr.Category
	errKind       apierr.NetworkKind
	errMessage    string
	result        *jsonvalue.Value
	redirectCount int
	cancel        context.CancelFunc
	attempt       int
}

// New builds a Request sharing client for its transport. Pass
// transport.NewClient(...) (or a client with an injected RoundTripper for
// tests).
func New(client *http.Client) *Request {
	return &Request{client: client, hub: newHub(), headers: map[string]string{}}
}

// Subscribe returns a channel that receives CredentialChanged, StatusChanged
// and Finished events until Unsubscribe is called. Subscribe before calling
// Execute to avoid missing the transition into Loading.
func (r *Request) Subscribe() chan Event {
	return r.hub.subscribe()
}

// Unsubscribe stops delivery to ch and closes it.
func (r *Request) Unsubscribe(ch chan Event) {
	r.hub.unsubscribe(ch)
}

// SetURL sets the request target. Safe from any state.
func (r *Request) SetURL(u string) {
	r.mu.Lock()
	r.url = u
	r.mu.Unlock()
}

// URL returns the current target URL.
func (r *Request) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// SetHeaders replaces the verbatim header set applied to every attempt.
func (r *Request) SetHeaders(headers map[string]string) {
	r.mu.Lock()
	r.headers = make(map[string]string, len(headers))
	for k, v := range headers {
		r.headers[k] = v
	}
	r.mu.Unlock()
}

// SetJSONBody marshals v and stores it as the JSON request body.
func (r *Request) SetJSONBody(v interface{}) error {
	value, err := jsonvalue.FromGo(v)
	if err != nil {
		return err
	}
	data, err := jsonvalue.Encode(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.bodyKind = JSONBody
	r.bodyJSON = data
	r.mu.Unlock()
	return nil
}

// SetFormBody stores values as an application/x-www-form-urlencoded body.
func (r *Request) SetFormBody(values url.Values) {
	r.mu.Lock()
	r.bodyKind = FormBody
	r.bodyForm = values.Encode()
	r.mu.Unlock()
}

// ClearBody drops any previously-set body.
func (r *Request) ClearBody() {
	r.mu.Lock()
	r.bodyKind = NoBody
	r.bodyJSON = nil
	r.bodyForm = ""
	r.mu.Unlock()
}

func (r *Request) setAPIKey(v string) {
	r.Credentials.set("api_key", func() { r.Credentials.apiKey = v })
	r.hub.publish(Event{Type: CredentialChanged, Field: "api_key"})
}

// SetAPIKey sets the api_key credential, firing CredentialChanged.
func (r *Request) SetAPIKey(v string) { r.setAPIKey(v) }

// SetClientID sets the client_id credential, firing CredentialChanged.
func (r *Request) SetClientID(v string) {
	r.Credentials.set("client_id", func() { r.Credentials.clientID = v })
	r.hub.publish(Event{Type: CredentialChanged, Field: "client_id"})
}

// SetClientSecret sets the client_secret credential, firing CredentialChanged.
func (r *Request) SetClientSecret(v string) {
	r.Credentials.set("client_secret", func() { r.Credentials.clientSecret = v })
	r.hub.publish(Event{Type: CredentialChanged, Field: "client_secret"})
}

// SetAccessToken sets the access_token credential, firing CredentialChanged.
func (r *Request) SetAccessToken(v string) {
	r.Credentials.set("access_token", func() { r.Credentials.accessToken = v })
	r.hub.publish(Event{Type: CredentialChanged, Field: "access_token"})
}

// SetRefreshToken sets the refresh_token credential, firing CredentialChanged.
func (r *Request) SetRefreshToken(v string) {
	r.Credentials.set("refresh_token", func() { r.Credentials.refreshToken = v })
	r.hub.publish(Event{Type: CredentialChanged, Field: "refresh_token"})
}

// SetScopes sets the scopes credential, firing CredentialChanged.
func (r *Request) SetScopes(v []string) {
	r.Credentials.set("scopes", func() { r.Credentials.scopes = append([]string(nil), v...) })
	r.hub.publish(Event{Type: CredentialChanged, Field: "scopes"})
}

// Status returns the current state-machine status.
func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Result returns the parsed JSON body of a Ready (or, for HTTP error
// envelopes, Failed) request.
func (r *Request) Result() *jsonvalue.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Err returns the terminal error of a Failed request, or nil otherwise.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != Failed {
		return nil
	}
	return &apierr.Error{Category: r.errCategory, Kind: r.errKind, Message: r.errMessage}
}

func (r *Request) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
	r.hub.publish(Event{Type: StatusChanged, Status: s})
}

// Cancel requests cancellation. Safe from any state; a no-op in a terminal
// state.
func (r *Request) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	status := r.status
	r.mu.Unlock()
	if status != Loading || cancel == nil {
		return
	}
	cancel()
}

// Execute begins a request. A new Execute while Loading cancels the
// in-flight attempt and starts fresh. Returns a channel that receives
// exactly one Finished event.
func (r *Request) Execute(ctx context.Context, verb string, authRequired bool) <-chan Event {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.redirectCount = 0
	r.result = nil
	r.errCategory = apierr.NoError
	r.errKind = apierr.KindNone
	r.errMessage = ""
	r.attempt++
	attempt := r.attempt
	r.mu.Unlock()

	r.setStatus(Loading)

	done := make(chan Event, 1)
	go r.run(runCtx, verb, authRequired, attempt, done)
	return done
}

func (r *Request) run(ctx context.Context, verb string, authRequired bool, attempt int, done chan Event) {
	currentURL := r.URL()
	refreshed := false

	for {
		httpReq, err := r.buildHTTPRequest(ctx, verb, currentURL, authRequired)
		if err != nil {
			r.finish(attempt, Failed, apierr.ParseError, apierr.KindNone, err.Error(), nil, done)
			return
		}

		resp, err := r.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				r.finish(attempt, Canceled, apierr.NoError, apierr.KindNone, "", nil, done)
				return
			}
			kind := classifyNetworkError(err)
			r.finish(attempt, Failed, apierr.NetworkError, kind, err.Error(), nil, done)
			return
		}

		if loc, redirecting := redirectTarget(resp); redirecting {
			resp.Body.Close()
			r.mu.Lock()
			count := r.redirectCount
			r.mu.Unlock()
			if count >= MaxRedirects {
				r.finish(attempt, Failed, apierr.RedirectLimit, apierr.KindNone, "exceeded maximum number of redirects", nil, done)
				return
			}
			next, err := resolveRedirect(currentURL, loc)
			if err != nil {
				r.finish(attempt, Failed, apierr.ParseError, apierr.KindNone, err.Error(), nil, done)
				return
			}
			r.mu.Lock()
			r.redirectCount++
			r.mu.Unlock()
			currentURL = next
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized && authRequired && r.RefreshToken() != "" && !refreshed {
			resp.Body.Close()
			if err := r.refreshAccessToken(ctx); err != nil {
				r.finish(attempt, Failed, apierr.CategoryOf(err), kindOf(err), err.Error(), nil, done)
				return
			}
			refreshed = true
			r.mu.Lock()
			r.redirectCount = 0
			r.mu.Unlock()
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			r.finish(attempt, Failed, apierr.NetworkError, apierr.KindConnection, readErr.Error(), nil, done)
			return
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			parsed, _ := jsonvalue.Parse(body)
			kind := httpErrorKind(resp.StatusCode)
			r.finish(attempt, Failed, apierr.NetworkError, kind, fmt.Sprintf("http %d", resp.StatusCode), parsed, done)
			return
		}

		if len(bytes.TrimSpace(body)) == 0 {
			r.finish(attempt, Ready, apierr.NoError, apierr.KindNone, "", nil, done)
			return
		}

		parsed, err := jsonvalue.Parse(body)
		if err != nil {
			r.finish(attempt, Failed, apierr.ParseError, apierr.KindNone, "Unable to parse response", nil, done)
			return
		}
		r.finish(attempt, Ready, apierr.NoError, apierr.KindNone, "", parsed, done)
		return
	}
}

// finish records the terminal outcome of one run attempt. A new Execute
// bumps r.attempt, so a slower, superseded attempt's finish arriving after
// the newer one started must not clobber the shared status/result fields
// it no longer owns — it still delivers its own Finished event on done,
// since that channel belongs to this attempt alone.
func (r *Request) finish(attempt int, status Status, category apierr.Category, kind apierr.NetworkKind, message string, result *jsonvalue.Value, done chan Event) {
	r.mu.Lock()
	current := attempt == r.attempt
	if current {
		r.status = status
		r.errCategory = category
		r.errKind = kind
		r.errMessage = message
		r.result = result
	}
	r.mu.Unlock()

	if current {
		r.hub.publish(Event{Type: StatusChanged, Status: status})
	}
	ev := Event{Type: Finished, Status: status}
	if current {
		r.hub.publish(ev)
	}
	done <- ev
	close(done)
}

func (r *Request) buildHTTPRequest(ctx context.Context, verb, target string, authRequired bool) (*http.Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if key := r.APIKey(); key != "" {
		q := u.Query()
		if q.Get("key") == "" {
			q.Set("key", key)
			u.RawQuery = q.Encode()
		}
	}

	var bodyReader io.Reader
	var contentType string
	r.mu.Lock()
	kind := r.bodyKind
	jsonBody := r.bodyJSON
	formBody := r.bodyForm
	headers := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		headers[k] = v
	}
	r.mu.Unlock()

	switch kind {
	case JSONBody:
		bodyReader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	case FormBody:
		bodyReader = strings.NewReader(formBody)
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, verb, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authRequired {
		if token := r.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// refreshAccessToken performs the secondary POST to the token endpoint and,
// on success, rewrites access_token (firing CredentialChanged) — the
// refresh-then-replay path of spec.md §4.1.
func (r *Request) refreshAccessToken(ctx context.Context) error {
	creds := r.Credentials.snapshot()

	form := url.Values{}
	form.Set("client_id", creds.clientID)
	form.Set("client_secret", creds.clientSecret)
	form.Set("refresh_token", creds.refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return apierr.Wrap(apierr.ParseError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return apierr.WrapNetwork(classifyNetworkError(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.WrapNetwork(apierr.KindConnection, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.WrapNetwork(httpErrorKind(resp.StatusCode), fmt.Errorf("token refresh failed: http %d", resp.StatusCode))
	}

	parsed, err := jsonvalue.Parse(body)
	if err != nil {
		return apierr.ParseFailure()
	}
	newToken := parsed.Get("access_token").MustString()
	if newToken == "" {
		return apierr.UnknownContent("token refresh response missing access_token")
	}
	r.SetAccessToken(newToken)
	return nil
}

func redirectTarget(resp *http.Response) (string, bool) {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, true
		}
		return "", false
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", false
	}
	return loc, true
}

func resolveRedirect(base, target string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	targetURL, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(targetURL).String(), nil
}

func classifyNetworkError(err error) apierr.NetworkKind {
	if err == nil {
		return apierr.KindNone
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return apierr.KindHostNotFound
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return apierr.KindTLS
	}
	if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
		return apierr.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierr.KindTimeout
	}
	if strings.Contains(err.Error(), "proxyconnect") {
		return apierr.KindProxy
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apierr.KindConnection
	}
	return apierr.KindConnection
}

func httpErrorKind(status int) apierr.NetworkKind {
	switch {
	case status == http.StatusUnauthorized:
		return apierr.KindAuthenticationRequired
	case status == http.StatusForbidden:
		return apierr.KindContentAccessDenied
	case status == http.StatusNotFound:
		return apierr.KindContentNotFound
	default:
		return apierr.KindHTTP
	}
}

func kindOf(err error) apierr.NetworkKind {
	var e *apierr.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return apierr.KindNone
}

// Clock abstracts time.Now as a seam for tests. internal/auth's
// device-flow polling does not take a Clock; it reads time.Now directly.
type Clock func() time.Time
