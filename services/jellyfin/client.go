package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"finview/models"
)

const apiVersion = "1"

// APIError is returned for non-2xx responses from the media server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// IsClientError reports whether err is a 4xx response from the server.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// Client talks to a Jellyfin-compatible media server.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	deviceID    string
}

// NewClient creates a media server client.
func NewClient(baseURL, accessToken, deviceID string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		accessToken: accessToken,
		deviceID:    deviceID,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Version", apiVersion)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// itemsResponse wraps list endpoints.
type itemsResponse struct {
	Items []models.Item `json:"items"`
}

// GetItem fetches a single catalog item with people and media sources.
func (c *Client) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodGet, "/Items/"+url.PathEscape(itemID), nil, &item); err != nil {
		return models.Item{}, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return item, nil
}

// GetSeasons lists a series' seasons in order.
func (c *Client) GetSeasons(ctx context.Context, seriesID string) ([]models.Item, error) {
	var resp itemsResponse
	if err := c.do(ctx, http.MethodGet, "/Shows/"+url.PathEscape(seriesID)+"/Seasons", nil, &resp); err != nil {
		return nil, fmt.Errorf("get seasons for %s: %w", seriesID, err)
	}
	return resp.Items, nil
}

// GetNextUp returns the next unwatched episodes suggested for a series.
func (c *Client) GetNextUp(ctx context.Context, seriesID string) ([]models.Item, error) {
	var resp itemsResponse
	path := "/Shows/NextUp?seriesId=" + url.QueryEscape(seriesID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get next up for %s: %w", seriesID, err)
	}
	return resp.Items, nil
}

// GetStreamURL resolves the direct-stream URL for an item's media source.
func (c *Client) GetStreamURL(ctx context.Context, itemID, mediaSourceID string) (string, error) {
	if itemID == "" {
		return "", errors.New("item id is required")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u = u.JoinPath("Videos", itemID, "stream")
	q := u.Query()
	q.Set("static", "true")
	if mediaSourceID != "" {
		q.Set("mediaSourceId", mediaSourceID)
	}
	if c.accessToken != "" {
		q.Set("api_key", c.accessToken)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ReportPlaybackStart tells the server a playback session began.
func (c *Client) ReportPlaybackStart(ctx context.Context, report models.PlaybackProgress) error {
	if err := c.do(ctx, http.MethodPost, "/Sessions/Playing", report, nil); err != nil {
		return fmt.Errorf("report playback start: %w", err)
	}
	return nil
}

// ReportPlaybackProgress sends a position heartbeat for an active session.
func (c *Client) ReportPlaybackProgress(ctx context.Context, report models.PlaybackProgress) error {
	if err := c.do(ctx, http.MethodPost, "/Sessions/Playing/Progress", report, nil); err != nil {
		return fmt.Errorf("report playback progress: %w", err)
	}
	return nil
}

// ReportPlaybackStopped sends the final position when a session ends.
func (c *Client) ReportPlaybackStopped(ctx context.Context, report models.PlaybackProgress) error {
	if err := c.do(ctx, http.MethodPost, "/Sessions/Playing/Stopped", report, nil); err != nil {
		return fmt.Errorf("report playback stopped: %w", err)
	}
	return nil
}

// MarkPlayed flags an item as watched for the current user.
func (c *Client) MarkPlayed(ctx context.Context, itemID string) error {
	if err := c.do(ctx, http.MethodPost, "/UserPlayedItems/"+url.PathEscape(itemID), nil, nil); err != nil {
		return fmt.Errorf("mark played %s: %w", itemID, err)
	}
	return nil
}

// MarkUnplayed clears an item's watched flag for the current user.
func (c *Client) MarkUnplayed(ctx context.Context, itemID string) error {
	if err := c.do(ctx, http.MethodDelete, "/UserPlayedItems/"+url.PathEscape(itemID), nil, nil); err != nil {
		return fmt.Errorf("mark unplayed %s: %w", itemID, err)
	}
	return nil
}

// SetFavorite adds an item to the current user's favorites.
func (c *Client) SetFavorite(ctx context.Context, itemID string) error {
	if err := c.do(ctx, http.MethodPost, "/UserFavoriteItems/"+url.PathEscape(itemID), nil, nil); err != nil {
		return fmt.Errorf("set favorite %s: %w", itemID, err)
	}
	return nil
}

// ClearFavorite removes an item from the current user's favorites.
func (c *Client) ClearFavorite(ctx context.Context, itemID string) error {
	if err := c.do(ctx, http.MethodDelete, "/UserFavoriteItems/"+url.PathEscape(itemID), nil, nil); err != nil {
		return fmt.Errorf("clear favorite %s: %w", itemID, err)
	}
	return nil
}
