package youtube

import (
	"context"
	"net/http"

	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
	"github.com/lvcoi/ytapi-go/internal/urlquery"
)

// resourceClient is the shape every fixed-path resource client below
// shares: list/insert/update/delete against one rooted path, per the
// support matrix in spec.md §4.4.
type resourceClient struct {
	client *Client
	path   string
}

func (c *resourceClient) list(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(buildListURL(resourceURL(c.path), listOptions{Part: part, Filters: filters, Params: params}))
	return do(ctx, r, http.MethodGet, true)
}

func (c *resourceClient) insert(ctx context.Context, resource map[string]interface{}, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	values := map[string]interface{}{"part": urlquery.JoinPart(part)}
	for k, v := range params {
		values[k] = v
	}
	r.SetURL(resourceURL(c.path) + "?" + urlquery.BuildQuery(values))
	if err := r.SetJSONBody(resource); err != nil {
		return nil, err
	}
	return do(ctx, r, http.MethodPost, true)
}

func (c *resourceClient) update(ctx context.Context, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(resourceURL(c.path) + "?" + urlquery.BuildQuery(map[string]interface{}{"part": urlquery.JoinPart(part)}))
	if err := r.SetJSONBody(resource); err != nil {
		return nil, err
	}
	return do(ctx, r, http.MethodPut, true)
}

func (c *resourceClient) delete(ctx context.Context, id string) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(resourceURL(c.path) + "?" + urlquery.BuildQuery(map[string]interface{}{"id": id}))
	return do(ctx, r, http.MethodDelete, true)
}

// ActivitiesClient: list, insert.
type ActivitiesClient struct{ resourceClient }

func NewActivitiesClient(c *Client) *ActivitiesClient {
	return &ActivitiesClient{resourceClient{client: c, path: "/activities"}}
}
func (c *ActivitiesClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *ActivitiesClient) Insert(ctx context.Context, resource map[string]interface{}, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.insert(ctx, resource, part, params)
}

// ChannelSectionsClient: list, insert, update, delete.
type ChannelSectionsClient struct{ resourceClient }

func NewChannelSectionsClient(c *Client) *ChannelSectionsClient {
	return &ChannelSectionsClient{resourceClient{client: c, path: "/channelSections"}}
}
func (c *ChannelSectionsClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *ChannelSectionsClient) Insert(ctx context.Context, resource map[string]interface{}, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.insert(ctx, resource, part, params)
}
func (c *ChannelSectionsClient) Update(ctx context.Context, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	return c.update(ctx, resource, part)
}
func (c *ChannelSectionsClient) Delete(ctx context.Context, id string) (*jsonvalue.Value, error) {
	return c.delete(ctx, id)
}

// ChannelsClient: list, update.
type ChannelsClient struct{ resourceClient }

func NewChannelsClient(c *Client) *ChannelsClient {
	return &ChannelsClient{resourceClient{client: c, path: "/channels"}}
}
func (c *ChannelsClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *ChannelsClient) Update(ctx context.Context, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	return c.update(ctx, resource, part)
}

// GuideCategoriesClient: list.
type GuideCategoriesClient struct{ resourceClient }

func NewGuideCategoriesClient(c *Client) *GuideCategoriesClient {
	return &GuideCategoriesClient{resourceClient{client: c, path: "/guideCategories"}}
}
func (c *GuideCategoriesClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}

// I18nLanguagesClient: list.
type I18nLanguagesClient struct{ resourceClient }

func NewI18nLanguagesClient(c *Client) *I18nLanguagesClient {
	return &I18nLanguagesClient{resourceClient{client: c, path: "/i18nLanguages"}}
}
func (c *I18nLanguagesClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}

// I18nRegionsClient: list.
type I18nRegionsClient struct{ resourceClient }

func NewI18nRegionsClient(c *Client) *I18nRegionsClient {
	return &I18nRegionsClient{resourceClient{client: c, path: "/i18nRegions"}}
}
func (c *I18nRegionsClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}

// PlaylistItemsClient: list, insert, update, delete.
type PlaylistItemsClient struct{ resourceClient }

func NewPlaylistItemsClient(c *Client) *PlaylistItemsClient {
	return &PlaylistItemsClient{resourceClient{client: c, path: "/playlistItems"}}
}
func (c *PlaylistItemsClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *PlaylistItemsClient) Insert(ctx context.Context, resource map[string]interface{}, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.insert(ctx, resource, part, params)
}
func (c *PlaylistItemsClient) Update(ctx context.Context, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	return c.update(ctx, resource, part)
}
func (c *PlaylistItemsClient) Delete(ctx context.Context, id string) (*jsonvalue.Value, error) {
	return c.delete(ctx, id)
}

// PlaylistsClient: list, insert, update, delete.
type PlaylistsClient struct{ resourceClient }

func NewPlaylistsClient(c *Client) *PlaylistsClient {
	return &PlaylistsClient{resourceClient{client: c, path: "/playlists"}}
}
func (c *PlaylistsClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *PlaylistsClient) Insert(ctx context.Context, resource map[string]interface{}, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.insert(ctx, resource, part, params)
}
func (c *PlaylistsClient) Update(ctx context.Context, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	return c.update(ctx, resource, part)
}
func (c *PlaylistsClient) Delete(ctx context.Context, id string) (*jsonvalue.Value, error) {
	return c.delete(ctx, id)
}

// SearchClient: list only.
type SearchClient struct{ resourceClient }

func NewSearchClient(c *Client) *SearchClient {
	return &SearchClient{resourceClient{client: c, path: "/search"}}
}
func (c *SearchClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}

// SubscriptionsClient: list, insert, delete.
type SubscriptionsClient struct{ resourceClient }

func NewSubscriptionsClient(c *Client) *SubscriptionsClient {
	return &SubscriptionsClient{resourceClient{client: c, path: "/subscriptions"}}
}
func (c *SubscriptionsClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *SubscriptionsClient) Insert(ctx context.Context, resource map[string]interface{}, part []string, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.insert(ctx, resource, part, params)
}
func (c *SubscriptionsClient) Delete(ctx context.Context, id string) (*jsonvalue.Value, error) {
	return c.delete(ctx, id)
}

// VideoCategoriesClient: list.
type VideoCategoriesClient struct{ resourceClient }

func NewVideoCategoriesClient(c *Client) *VideoCategoriesClient {
	return &VideoCategoriesClient{resourceClient{client: c, path: "/videoCategories"}}
}
func (c *VideoCategoriesClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}

// VideosClient: list, update, delete, plus the special rate/getRating
// operations grounded on original_source/src/videosrequest.cpp.
type VideosClient struct{ resourceClient }

func NewVideosClient(c *Client) *VideosClient {
	return &VideosClient{resourceClient{client: c, path: "/videos"}}
}
func (c *VideosClient) List(ctx context.Context, part []string, filters, params map[string]interface{}) (*jsonvalue.Value, error) {
	return c.list(ctx, part, filters, params)
}
func (c *VideosClient) Update(ctx context.Context, resource map[string]interface{}, part []string) (*jsonvalue.Value, error) {
	return c.update(ctx, resource, part)
}
func (c *VideosClient) Delete(ctx context.Context, id string) (*jsonvalue.Value, error) {
	return c.delete(ctx, id)
}

// Rate POSTs id/rating as query items with no body, e.g. rating "like",
// "dislike", or "none".
func (c *VideosClient) Rate(ctx context.Context, id, rating string) (*jsonvalue.Value, error) {
	r := c.client.NewRequest()
	r.SetURL(resourceURL(c.path) + "?" + urlquery.BuildQuery(map[string]interface{}{"id": id, "rating": rating}))
	return do(ctx, r, http.MethodPost, true)
}

// GetRating GETs the authenticated user's rating for id.
func (c *VideosClient) GetRating(ctx context.Context, id string, params map[string]interface{}) (*jsonvalue.Value, error) {
	values := map[string]interface{}{"id": id}
	for k, v := range params {
		values[k] = v
	}
	r := c.client.NewRequest()
	r.SetURL(resourceURL(c.path) + "?" + urlquery.BuildQuery(values))
	return do(ctx, r, http.MethodGet, true)
}
