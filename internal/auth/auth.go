// Package auth implements the Authentication Pipeline (A): OAuth 2.0
// code-exchange, device-code polling with authorization_pending/slow_down
// backoff and expiry, and token revocation. Built entirely on
// internal/request, exactly as the original QYouTube AuthenticationRequest
// is a specialization of its Request base class.
//
// Grounded on original_source/src/authenticationrequest.cpp and
// original_source/src/urls.h.
package auth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lvcoi/ytapi-go/internal/apierr"
	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
	"github.com/lvcoi/ytapi-go/internal/request"
)

const RedirectURI = "urn:ietf:wg:oauth:2.0:oob"

// Endpoint URLs. Vars, not consts, so tests can point them at a local
// server.
var (
	AuthURL        = "https://accounts.google.com/o/oauth2/auth"
	TokenURL       = "https://accounts.google.com/o/oauth2/token"
	DeviceCodeURL  = "https://accounts.google.com/o/oauth2/device/code"
	RevokeTokenURL = "https://accounts.google.com/o/oauth2/revoke"
)

// Scopes the library knows about; callers join whichever subset they need.
const (
	ScopeReadOnly    = "https://www.googleapis.com/auth/youtube.readonly"
	ScopeReadWrite   = "https://www.googleapis.com/auth/youtube"
	ScopeForceSSL    = "https://www.googleapis.com/auth/youtube.force-ssl"
	ScopeUpload      = "https://www.googleapis.com/auth/youtube.upload"
	ScopePartner     = "https://www.googleapis.com/auth/youtubepartner"
	ScopeAudit       = "https://www.googleapis.com/auth/youtubepartner-channel-audit"
)

// defaultDeviceExpiry and defaultDeviceInterval are the normalized
// fallbacks spec.md §4.2 "Timing" specifies when the server omits the
// corresponding field.
const (
	defaultDeviceExpiry   = 60 * time.Second
	defaultDeviceInterval = 5000 * time.Millisecond
)

// requestKind mirrors AuthenticationRequestPrivate's enum: which of the
// four OAuth operations the in-flight request represents, used only to
// pick the right response dispatch.
type requestKind int

const (
	kindWebToken requestKind = iota
	kindDeviceToken
	kindDeviceCode
	kindRevokeToken
)

// DeviceCodePayload is the device_code_ready event payload: what the
// caller shows the user.
type DeviceCodePayload struct {
	DeviceCode      string
	UserCode        string
	VerificationURL string
	ExpiresIn       time.Duration
	Interval        time.Duration
}

// Pipeline drives the OAuth flows for one set of client credentials.
type Pipeline struct {
	client       *http.Client
	clientID     string
	clientSecret string

	mu            sync.Mutex
	deviceCode    string
	deviceExpiry  time.Time
	pollInterval  time.Duration
	pollTimer     *time.Timer
	pollCancel    context.CancelFunc
	onDeviceReady func(DeviceCodePayload)
	onResult      func(status request.Status, result *jsonvalue.Value, err error)
}

// New builds a Pipeline for the given installed-app client credentials,
// sharing client for every HTTP call it makes.
func New(client *http.Client, clientID, clientSecret string) *Pipeline {
	return &Pipeline{client: client, clientID: clientID, clientSecret: clientSecret}
}

// ExchangeCodeForAccessToken trades an installed-app consent code for a
// token, POSTing to TokenURL with grant_type=authorization_code.
func (p *Pipeline) ExchangeCodeForAccessToken(ctx context.Context, code string) (*jsonvalue.Value, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", RedirectURI)
	form.Set("grant_type", "authorization_code")
	return p.postToken(ctx, form, kindWebToken)
}

// RequestAuthorizationCode begins the device flow: POSTs DeviceCodeURL with
// client_id and a space-joined scope list, then invokes onReady with the
// user_code/verification_url/expires_in/interval payload and schedules the
// first poll. The returned cancel function stops polling; it is also
// invoked automatically once a terminal result is reached.
func (p *Pipeline) RequestAuthorizationCode(ctx context.Context, scopes []string, onReady func(DeviceCodePayload), onResult func(status request.Status, result *jsonvalue.Value, err error)) (cancel func(), err error) {
	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("scope", strings.Join(scopes, " "))

	result, postErr := p.postToken(ctx, form, kindDeviceCode)
	if postErr != nil {
		return func() {}, postErr
	}

	deviceCode := result.Get("device_code").MustString()
	userCode := result.Get("user_code").MustString()
	verificationURL := result.Get("verification_url").MustString()
	expiresIn := result.Get("expires_in").MustInt()
	interval := result.Get("interval").MustInt()

	expiry := defaultDeviceExpiry
	if expiresIn > 0 {
		expiry = time.Duration(expiresIn) * time.Second
	}
	pollInterval := defaultDeviceInterval
	if interval > 0 {
		pollInterval = time.Duration(float64(interval) * 1.1 * float64(time.Second))
	}

	pollCtx, pollCancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.deviceCode = deviceCode
	p.deviceExpiry = time.Now().Add(expiry)
	p.pollInterval = pollInterval
	p.pollCancel = pollCancel
	p.onDeviceReady = onReady
	p.onResult = onResult
	p.mu.Unlock()

	if onReady != nil {
		onReady(DeviceCodePayload{
			DeviceCode:      deviceCode,
			UserCode:        userCode,
			VerificationURL: verificationURL,
			ExpiresIn:       expiry,
			Interval:        pollInterval,
		})
	}

	p.scheduleNextPoll(pollCtx, pollInterval)

	return pollCancel, nil
}

func (p *Pipeline) scheduleNextPoll(ctx context.Context, delay time.Duration) {
	p.mu.Lock()
	if p.pollTimer != nil {
		p.pollTimer.Stop()
	}
	p.pollTimer = time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		p.pollForDeviceToken(ctx)
	})
	p.mu.Unlock()
}

// pollForDeviceToken is the internal device-token poll, dispatching on the
// server's response exactly as _q_onReplyFinished's DeviceToken branch does.
func (p *Pipeline) pollForDeviceToken(ctx context.Context) {
	p.mu.Lock()
	deviceCode := p.deviceCode
	expiry := p.deviceExpiry
	interval := p.pollInterval
	onResult := p.onResult
	p.mu.Unlock()

	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("code", deviceCode)
	form.Set("grant_type", "http://oauth.net/grant_type/device/1.0")

	result, err := p.postToken(ctx, form, kindDeviceToken)
	if err == nil {
		p.finish(request.Ready, result, nil, onResult)
		return
	}

	apiErr, ok := err.(*apierr.Error)
	serverError := ""
	if ok {
		serverError = apiErr.Message
	}

	now := time.Now()
	switch {
	case serverError == "authorization_pending" && now.Before(expiry):
		p.scheduleNextPoll(ctx, interval)
	case serverError == "slow_down" && now.Before(expiry):
		p.mu.Lock()
		p.pollInterval *= 2
		interval = p.pollInterval
		p.mu.Unlock()
		p.scheduleNextPoll(ctx, interval)
	default:
		p.finish(request.Failed, nil, apierr.UnknownContent(serverError), onResult)
	}
}

func (p *Pipeline) finish(status request.Status, result *jsonvalue.Value, err error, onResult func(request.Status, *jsonvalue.Value, error)) {
	p.mu.Lock()
	if p.pollTimer != nil {
		p.pollTimer.Stop()
	}
	if p.pollCancel != nil {
		p.pollCancel()
	}
	p.mu.Unlock()
	if onResult != nil {
		onResult(status, result, err)
	}
}

// RevokeAccessToken GETs RevokeTokenURL with token=<access_token> and no
// body; per spec.md §4.2, a 2xx with empty body is still Ready.
func (p *Pipeline) RevokeAccessToken(ctx context.Context, accessToken string) error {
	u, err := url.Parse(RevokeTokenURL)
	if err != nil {
		return apierr.Wrap(apierr.ParseError, err)
	}
	q := u.Query()
	q.Set("token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return apierr.Wrap(apierr.ParseError, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return apierr.WrapNetwork(apierr.KindConnection, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.UnknownContent("revoke failed: http " + strconv.Itoa(resp.StatusCode))
	}
	return nil
}

// postToken issues one POST to TokenURL or DeviceCodeURL (kind decides
// which) and returns the parsed JSON, or an *apierr.Error carrying the
// server's "error" field as UnknownContentError when present.
func (p *Pipeline) postToken(ctx context.Context, form url.Values, kind requestKind) (*jsonvalue.Value, error) {
	target := TokenURL
	if kind == kindDeviceCode {
		target = DeviceCodeURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apierr.Wrap(apierr.ParseError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apierr.WrapNetwork(apierr.KindConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.WrapNetwork(apierr.KindConnection, err)
	}

	parsed, err := jsonvalue.Parse(body)
	if err != nil {
		return nil, apierr.ParseFailure()
	}

	if errStr := parsed.Get("error").MustString(); errStr != "" {
		return parsed, apierr.UnknownContent(errStr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parsed, apierr.UnknownContent("token endpoint returned http " + strconv.Itoa(resp.StatusCode))
	}
	return parsed, nil
}
