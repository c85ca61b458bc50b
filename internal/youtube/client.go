// Package youtube contains the Resource Clients (C): one Go type per
// YouTube Data API v3 resource plus a generic Resources client, each a
// thin parameterization of internal/request. Grounded on
// original_source/src/resourcesrequest.cpp, videosrequest.cpp, and
// subtitlesrequest.cpp.
package youtube

import (
	"context"
	"net/http"
	"strings"

	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
	"github.com/lvcoi/ytapi-go/internal/request"
	"github.com/lvcoi/ytapi-go/internal/urlquery"
)

// APIURL is the API root every resource client's path is rooted at. A var,
// not a const, so tests can point it at a local server.
var APIURL = "https://www.googleapis.com/youtube/v3"

// Client holds the shared HTTP client and credentials new Requests are
// built from. One Client is typically shared by every resource client in
// an application.
type Client struct {
	HTTPClient   *http.Client
	APIKey       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// NewRequest builds a *request.Request pre-loaded with c's credentials.
func (c *Client) NewRequest() *request.Request {
	r := request.New(c.HTTPClient)
	r.SetAPIKey(c.APIKey)
	r.SetClientID(c.ClientID)
	r.SetClientSecret(c.ClientSecret)
	r.SetAccessToken(c.AccessToken)
	r.SetRefreshToken(c.RefreshToken)
	return r
}

func resourceURL(path string) string {
	if strings.HasPrefix(path, "/") {
		return APIURL + path
	}
	return APIURL + "/" + path
}

// listOptions bundles the part/filters/params triple every list operation
// in the support matrix takes.
type listOptions struct {
	Part    []string
	Filters map[string]interface{}
	Params  map[string]interface{}
}

func buildListURL(base string, opts listOptions) string {
	values := map[string]interface{}{}
	for k, v := range opts.Filters {
		values[k] = v
	}
	for k, v := range opts.Params {
		values[k] = v
	}
	values["part"] = urlquery.JoinPart(opts.Part)
	query := urlquery.BuildQuery(values)
	if query == "" {
		return base
	}
	return base + "?" + query
}

// do executes r synchronously, returning its terminal result or error.
func do(ctx context.Context, r *request.Request, verb string, authRequired bool) (*jsonvalue.Value, error) {
	done := r.Execute(ctx, verb, authRequired)
	<-done
	if err := r.Err(); err != nil {
		return r.Result(), err
	}
	return r.Result(), nil
}

// ResourcesClient is the generic client accepting an arbitrary resource
// path, used for endpoints this package does not wrap explicitly.
type ResourcesClient struct {
	client *Client
}

// NewResourcesClient builds a generic client sharing client's credentials.
func NewResourcesClient(client *Client) *ResourcesClient {
	return &ResourcesClient{client: client}
}

// List fetches resourcePath with the given part/filters/params.
func (c *ResourcesClient) List(ctx context.Context, resourcePath string, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(buildListURL(resourceURL(resourcePath), listOptions{Part: part, Filters: filters, Params: params}))
	return do(ctx, r, http.MethodGet, true)
}

// Insert POSTs resource to resourcePath.
func (c *ResourcesClient) Insert(ctx context.Context, resource map[string]interface{}, path string, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	values := map[string]interface{}{"part": urlquery.JoinPart(part)}
	for k, v := range params {
		values[k] = v
	}
	r.SetURL(resourceURL(path) + "?" + urlquery.BuildQuery(values))
	if err := r.SetJSONBody(resource); err != nil {
		return nil, err
	}
	return do(ctx, r, http.MethodPost, true)
}

// Update PUTs resource to resourcePath.
func (c *ResourcesClient) Update(ctx context.Context, path string, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(resourceURL(path) + "?" + urlquery.BuildQuery(map[string]interface{}{"part": urlquery.JoinPart(part)}))
	if err := r.SetJSONBody(resource); err != nil {
		return nil, err
	}
	return do(ctx, r, http.MethodPut, true)
}

// Delete removes the resource identified by id at resourcePath.
func (c *ResourcesClient) Delete(ctx context.Context, id, path string) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(resourceURL(path) + "?" + urlquery.BuildQuery(map[string]interface{}{"id": id}))
	return do(ctx, r, http.MethodDelete, true)
}
