// Package stream implements the Stream Resolver (S): derives playable
// media URLs for a video ID by fetching get_video_info, falling back to
// the watch page, discovering the player script, extracting and
// evaluating its signature decipher function, and applying it to each
// stream's ciphered signature.
//
// Grounded on original_source/src/streamsrequest.cpp and urls.h; the
// embedded-evaluator approach is grounded on the teacher's
// internal/downloader/bgutils.go (goja VM setup for extracted player JS).
package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/lvcoi/ytapi-go/internal/apierr"
)

const (
	videoInfoURL = "https://www.youtube.com/get_video_info"
	videoPageURL = "https://www.youtube.com/watch"
	watchPageUA  = "Wget/1.13.4 (linux-gnu)"
)

var itagNoisePattern = regexp.MustCompile(`itag=\d+`)

// StreamFormat is one resolved, playable media URL with its itag metadata.
type StreamFormat struct {
	Itag        string
	Description string
	Ext         string
	Width       int
	Height      int
	URL         string
}

// Resolver resolves StreamFormat lists for video IDs. Safe for concurrent
// use across different video IDs; the only shared mutable state is the
// DecipherFunction cache.
type Resolver struct {
	client *http.Client
	cache  *decipherCache
}

// NewResolver builds a Resolver using the process-wide decipher cache.
func NewResolver(client *http.Client) *Resolver {
	return &Resolver{client: client, cache: defaultDecipherCache}
}

// NewResolverWithCache builds a Resolver with an injected cache, for tests
// that need isolation from the process-wide singleton.
func NewResolverWithCache(client *http.Client, cache *decipherCache) *Resolver {
	if cache == nil {
		cache = newDecipherCache()
	}
	return &Resolver{client: client, cache: cache}
}

// List resolves the playable StreamFormat list for videoID. An empty list
// with a nil error is valid when the source genuinely contained nothing
// parseable; that case is indistinguishable from "no streams" to callers.
func (r *Resolver) List(ctx context.Context, videoID string) ([]StreamFormat, error) {
	body, err := r.fetchVideoInfo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	// parseVideoInfoBody only ever reports ciphered alongside fallback, so
	// a non-fallback result is always a plain stream map — the watch page
	// is where _q_onVideoInfoLoaded sends any ciphered signature, since
	// get_video_info never carries the player script URL needed to decipher.
	streamMap, _, fallback, err := parseVideoInfoBody(body)
	if err != nil {
		return nil, err
	}
	if !fallback {
		return r.extractPlain(streamMap)
	}

	return r.resolveFromWatchPage(ctx, videoID)
}

func (r *Resolver) fetchVideoInfo(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("video_id", videoID)
	q.Set("el", "detailpage")
	q.Set("ps", "default")
	q.Set("eurl", "gl")
	q.Set("gl", "US")
	q.Set("hl", "en")
	return r.get(ctx, videoInfoURL+"?"+q.Encode(), "")
}

func (r *Resolver) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("gl", "US")
	q.Set("hl", "en")
	q.Set("has_verified", "1")
	return r.get(ctx, videoPageURL+"?"+q.Encode(), watchPageUA)
}

func (r *Resolver) fetchPlayerScript(ctx context.Context, playerURL string) (string, error) {
	return r.get(ctx, playerURL, "")
}

func (r *Resolver) get(ctx context.Context, target, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", apierr.Wrap(apierr.ParseError, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", apierr.WrapNetwork(apierr.KindConnection, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierr.WrapNetwork(apierr.KindConnection, err)
	}
	return string(body), nil
}

// parseVideoInfoBody implements _q_onVideoInfoLoaded's dispatch: no format
// map at all, or a ciphered one, both signal "fall back to the watch page"
// (fallback=true); otherwise it returns the decoded plain stream map.
func parseVideoInfoBody(body string) (streamMap string, ciphered bool, fallback bool, err error) {
	if !strings.Contains(body, "url_encoded_fmt_stream_map=") {
		return "", false, true, nil
	}
	raw := sectionAfterFirst(body, "url_encoded_fmt_stream_map=")
	percentIdx := strings.IndexByte(raw, '%')
	separator := raw
	if percentIdx >= 0 {
		separator = raw[:percentIdx]
	}
	if separator == "s" || strings.Contains(raw, "%26s%3D") {
		return "", true, true, nil
	}
	plain := sectionFirst(raw, "&")
	plain = strings.ReplaceAll(plain, "%2C", ",")
	return plain, false, false, nil
}

// resolveFromWatchPage implements _q_onVideoWebPageLoaded: locate the
// player-script URL and the raw (still-ciphered or plain) stream map
// inside the watch page, then either parse directly or walk the
// player-script/decipher path.
func (r *Resolver) resolveFromWatchPage(ctx context.Context, videoID string) ([]StreamFormat, error) {
	page, err := r.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(page, `url_encoded_fmt_stream_map":`) {
		return nil, noStreamsError(videoID)
	}

	assetsJS := sectionFirst(sectionAfterFirst(page, `"assets":`), "}") + "}"

	streamMap := sectionFirst(sectionAfterFirst(page, `url_encoded_fmt_stream_map":"`), `,"`)
	streamMap = strings.TrimSpace(streamMap)
	streamMap = strings.ReplaceAll(streamMap, "\\u0026", "&")
	streamMap = itagNoisePattern.ReplaceAllString(streamMap, "")

	if strings.Contains(streamMap, "sig=") {
		return r.extractPlain(streamMap)
	}

	playerURL, ok := extractPlayerURL(assetsJS)
	if !ok {
		return nil, noStreamsError(videoID)
	}

	decipher, err := r.decipherFor(ctx, playerURL)
	if err != nil {
		return nil, err
	}
	return r.extractCiphered(streamMap, decipher)
}

// extractPlayerURL parses the {"js": "..."} fragment isolated from the
// watch page's "assets" object, defaulting an empty scheme to http as the
// original does for the historically protocol-relative player URL.
func extractPlayerURL(assetsJSON string) (string, bool) {
	const marker = `"js":"`
	idx := strings.Index(assetsJSON, marker)
	if idx < 0 {
		return "", false
	}
	rest := assetsJSON[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	raw := strings.ReplaceAll(rest[:end], `\/`, "/")
	if strings.HasPrefix(raw, "//") {
		raw = "http:" + raw
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

func (r *Resolver) decipherFor(ctx context.Context, playerURL string) (DecipherFunction, error) {
	if fn, ok := r.cache.get(playerURL); ok {
		return fn, nil
	}

	js, err := r.fetchPlayerScript(ctx, playerURL)
	if err != nil {
		return nil, err
	}

	funcName, source, ok := extractDecipherSource(js)
	if !ok {
		return nil, apierr.UnknownContent("no decipher function found in player script")
	}
	fn, err := compileDecipherFunction(funcName, source)
	if err != nil {
		return nil, apierr.Wrap(apierr.ParseError, err)
	}
	r.cache.set(playerURL, fn)
	return fn, nil
}

var sigPrefixPattern = regexp.MustCompile(`(^|&)sig=`)
var sPrefixPattern = regexp.MustCompile(`(^|&)s=`)

// extractPlain implements extractVideoStreams() (no decipher): each
// comma-separated entry already carries a plain sig= parameter.
func (r *Resolver) extractPlain(streamMap string) ([]StreamFormat, error) {
	return parseStreamEntries(streamMap, sigPrefixPattern, nil)
}

// extractCiphered implements extractVideoStreams(QScriptValue): each
// entry's s= parameter is passed through decipher before substitution.
func (r *Resolver) extractCiphered(streamMap string, decipher DecipherFunction) ([]StreamFormat, error) {
	return parseStreamEntries(streamMap, sPrefixPattern, decipher)
}

func parseStreamEntries(streamMap string, sigPattern *regexp.Regexp, decipher DecipherFunction) ([]StreamFormat, error) {
	var formats []StreamFormat
	for _, rawPart := range strings.Split(streamMap, ",") {
		if rawPart == "" {
			continue
		}
		part, err := percentUnescape(rawPart)
		if err != nil {
			continue
		}
		part = sigPattern.ReplaceAllString(part, "&signature=")

		if decipher != nil {
			oldSig := sectionFirst(sectionAfterFirst(part, "signature="), "&")
			if oldSig != "" {
				newSig, err := decipher(oldSig)
				if err != nil {
					return nil, apierr.Wrap(apierr.ParseError, err)
				}
				part = strings.Replace(part, oldSig, newSig, 1)
			}
		}

		format, ok := parseStreamPart(part)
		if ok {
			formats = append(formats, format)
		}
	}
	return formats, nil
}

// parseStreamPart implements the url= split, query dedupe, and itag
// lookup shared by both extractVideoStreams overloads.
func parseStreamPart(part string) (StreamFormat, bool) {
	split := strings.Split(part, "url=")
	if len(split) == 0 {
		return StreamFormat{}, false
	}
	urlString := split[len(split)-1]

	qIdx := strings.IndexByte(urlString, '?')
	base := urlString
	rawParams := urlString
	if qIdx >= 0 {
		base = urlString[:qIdx]
		rawParams = urlString[qIdx+1:]
	}

	seen := map[string]bool{}
	q := url.Values{}
	for _, param := range strings.Split(rawParams, "&") {
		if param == "" || seen[param] {
			continue
		}
		seen[param] = true
		key, val := splitKeyValue(param)
		q.Set(key, val)
	}

	if q.Get("signature") == "" {
		sig := sectionFirst(sectionAfterFirst(split[0], "signature="), "&")
		if sig != "" {
			q.Set("signature", sig)
		}
	}

	itag := q.Get("itag")
	format := lookupFormat(itag)

	finalURL := base
	if encoded := q.Encode(); encoded != "" {
		finalURL = base + "?" + encoded
	}

	return StreamFormat{
		Itag:        itag,
		Description: format.Description,
		Ext:         format.Ext,
		Width:       format.Width,
		Height:      format.Height,
		URL:         finalURL,
	}, true
}

// splitKeyValue mirrors param.section('=', 0, 0) / param.section('=', -1):
// the key is the text before the first '=', the value is the text after
// the last '='.
func splitKeyValue(param string) (key, value string) {
	eq := strings.IndexByte(param, '=')
	if eq < 0 {
		return param, ""
	}
	key = param[:eq]
	value = sectionLast(param, "=")
	return key, value
}

// percentUnescape repeats percent-decoding up to 10 passes until the
// string stabilizes or no '%' remains, matching
// StreamsRequestPrivate::unescape exactly (including its pass cap).
func percentUnescape(s string) (string, error) {
	decoded := s
	passes := 0
	for strings.Contains(decoded, "%") && passes < 10 {
		next, err := url.PathUnescape(decoded)
		if err != nil {
			return decoded, nil
		}
		decoded = next
		passes++
	}
	return decoded, nil
}

func noStreamsError(videoID string) error {
	return &apierr.Error{Category: apierr.ParseError, Message: fmt.Sprintf("No video streams found for %s", videoID)}
}
