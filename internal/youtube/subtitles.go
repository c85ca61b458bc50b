package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lvcoi/ytapi-go/internal/apierr"
)

// subtitlesURL is unauthenticated and outside the Data API root entirely,
// so SubtitlesClient talks to it directly rather than through
// request.Request's API-key/OAuth plumbing. A var, not a const, so tests
// can point it at a local server.
var subtitlesURL = "https://video.google.com/timedtext"

const maxSubtitleRedirects = 8

// Subtitle is one available caption track for a video, with the URL its
// timed-text body can be fetched from.
type Subtitle struct {
	ID                 string
	Name               string
	LanguageCode       string
	OriginalLanguage   string
	TranslatedLanguage string
	URL                string
}

type trackListXML struct {
	Tracks []trackXML `xml:"track"`
}

type trackXML struct {
	ID             string `xml:"id,attr"`
	Name           string `xml:"name,attr"`
	LangCode       string `xml:"lang_code,attr"`
	LangOriginal   string `xml:"lang_original,attr"`
	LangTranslated string `xml:"lang_translated,attr"`
}

// SubtitlesClient lists and fetches a video's caption tracks. Grounded on
// original_source/src/subtitlesrequest.cpp, whose list() call is
// unauthenticated and whose _q_onReplyFinished does its own bounded
// redirect-following ahead of the QDomDocument parse.
type SubtitlesClient struct {
	client *Client
}

// NewSubtitlesClient builds a client sharing client's HTTP client; its
// credentials are unused since the subtitles endpoints take none.
func NewSubtitlesClient(client *Client) *SubtitlesClient {
	return &SubtitlesClient{client: client}
}

// List fetches the caption track list for video id.
func (c *SubtitlesClient) List(ctx context.Context, id string) ([]Subtitle, error) {
	q := url.Values{}
	q.Set("hl", "en")
	q.Set("type", "list")
	q.Set("v", id)
	target := subtitlesURL + "?" + q.Encode()

	body, err := c.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	var list trackListXML
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, apierr.Wrap(apierr.ParseError, fmt.Errorf("parsing subtitle track list: %w", err))
	}

	subs := make([]Subtitle, 0, len(list.Tracks))
	for _, t := range list.Tracks {
		trackQ := url.Values{}
		trackQ.Set("v", id)
		trackQ.Set("lang", t.LangCode)
		subs = append(subs, Subtitle{
			ID:                 t.ID,
			Name:                t.Name,
			LanguageCode:       t.LangCode,
			OriginalLanguage:   t.LangOriginal,
			TranslatedLanguage: t.LangTranslated,
			URL:                subtitlesURL + "?" + trackQ.Encode(),
		})
	}
	return subs, nil
}

// Fetch retrieves the timed-text body at a Subtitle's URL.
func (c *SubtitlesClient) Fetch(ctx context.Context, sub Subtitle) ([]byte, error) {
	return c.fetch(ctx, sub.URL)
}

// fetch follows redirects itself, mirroring _q_onReplyFinished, since this
// endpoint sits outside request.Request's state machine.
func (c *SubtitlesClient) fetch(ctx context.Context, target string) ([]byte, error) {
	for redirects := 0; ; redirects++ {
		if redirects > maxSubtitleRedirects {
			return nil, &apierr.Error{Category: apierr.RedirectLimit, Message: "too many redirects fetching subtitles"}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, apierr.Wrap(apierr.ParseError, err)
		}
		resp, err := c.client.HTTPClient.Do(req)
		if err != nil {
			return nil, apierr.WrapNetwork(apierr.KindConnection, err)
		}

		if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode >= 300 && resp.StatusCode < 400 {
			resp.Body.Close()
			next, err := resp.Request.URL.Parse(loc)
			if err != nil {
				return nil, apierr.Wrap(apierr.ParseError, err)
			}
			target = next.String()
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, apierr.WrapNetwork(apierr.KindConnection, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &apierr.Error{Category: apierr.NetworkError, Kind: subtitleErrorKind(resp.StatusCode), Message: fmt.Sprintf("subtitles request failed with status %d", resp.StatusCode)}
		}
		return body, nil
	}
}

func subtitleErrorKind(status int) apierr.NetworkKind {
	switch status {
	case http.StatusUnauthorized:
		return apierr.KindAuthenticationRequired
	case http.StatusForbidden:
		return apierr.KindContentAccessDenied
	case http.StatusNotFound:
		return apierr.KindContentNotFound
	default:
		return apierr.KindHTTP
	}
}
