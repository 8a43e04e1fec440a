package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/youtube/v3"
	DefaultMaxResults = 12
	DefaultRegionCode = "US"
)

var (
	ErrNotConfigured = errors.New("YouTube API key not configured")
	ErrVideoNotFound = errors.New("video not found")
)

type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("YouTube API error: %d", e.StatusCode)
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Snippet struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails"`
	ChannelTitle string               `json:"channelTitle"`
	PublishedAt  string               `json:"publishedAt"`
	ChannelId    string               `json:"channelId"`
}

type Statistics struct {
	ViewCount    string `json:"viewCount,omitempty"`
	LikeCount    string `json:"likeCount,omitempty"`
	DislikeCount string `json:"dislikeCount,omitempty"`
	CommentCount string `json:"commentCount,omitempty"`
}

type ContentDetails struct {
	Duration   string `json:"duration"`
	Definition string `json:"definition"`
	Caption    string `json:"caption"`
}

type VideoId struct {
	VideoId string `json:"videoId"`
}

// Video has the same shape whether it came from a search or from the
// popular chart.
type Video struct {
	Id         VideoId     `json:"id"`
	Snippet    Snippet     `json:"snippet"`
	Statistics *Statistics `json:"statistics,omitempty"`
}

type VideoDetails struct {
	Id             string          `json:"id"`
	Snippet        Snippet         `json:"snippet"`
	Statistics     *Statistics     `json:"statistics,omitempty"`
	ContentDetails *ContentDetails `json:"contentDetails,omitempty"`
}

type Page struct {
	Items         []Video `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	TotalResults  int     `json:"totalResults"`
}

type pageInfo struct {
	TotalResults int `json:"totalResults"`
}

type searchResponse struct {
	Items         []Video  `json:"items"`
	NextPageToken string   `json:"nextPageToken"`
	PageInfo      pageInfo `json:"pageInfo"`
}

type videosResponse struct {
	Items    []VideoDetails `json:"items"`
	PageInfo pageInfo       `json:"pageInfo"`
}

type Config struct {
	APIKey  string
	BaseURL string
}

type Client struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	apiKey  string
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	logger = logger.With("component", "youtube")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "youtube",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Rejected requests say nothing about the health of the API.
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
	})

	return &Client{
		client:  resty.New().SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).SetTimeout(15 * time.Second),
		breaker: breaker,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, dest any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		res, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("key", c.apiKey).
			SetResult(dest).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("youtube request failed: %w", err)
		}
		if !res.IsSuccess() {
			return nil, &APIError{StatusCode: res.StatusCode()}
		}
		return nil, nil
	})
	if err != nil {
		c.logger.Error("youtube request failed", "path", path, "error", err)
	}
	return err
}

func normalizeMax(maxResults int) string {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return strconv.Itoa(min(maxResults, 50))
}

// Search finds embeddable videos matching query. pageToken continues a
// previous search.
func (c *Client) Search(ctx context.Context, query string, maxResults int, pageToken string) (Page, error) {
	params := map[string]string{
		"part":            "snippet",
		"q":               query,
		"type":            "video",
		"maxResults":      normalizeMax(maxResults),
		"order":           "relevance",
		"safeSearch":      "moderate",
		"videoEmbeddable": "true",
	}
	if pageToken != "" {
		params["pageToken"] = pageToken
	}

	var res searchResponse
	if err := c.get(ctx, "/search", params, &res); err != nil {
		return Page{}, err
	}

	return Page{Items: res.Items, NextPageToken: res.NextPageToken, TotalResults: res.PageInfo.TotalResults}, nil
}

func (c *Client) Popular(ctx context.Context, maxResults int, regionCode string) (Page, error) {
	if regionCode == "" {
		regionCode = DefaultRegionCode
	}

	var res videosResponse
	err := c.get(ctx, "/videos", map[string]string{
		"part":            "snippet,statistics",
		"chart":           "mostPopular",
		"maxResults":      normalizeMax(maxResults),
		"regionCode":      regionCode,
		"videoCategoryId": "0",
	}, &res)
	if err != nil {
		return Page{}, err
	}

	videos := make([]Video, 0, len(res.Items))
	for _, item := range res.Items {
		videos = append(videos, Video{Id: VideoId{VideoId: item.Id}, Snippet: item.Snippet, Statistics: item.Statistics})
	}

	return Page{Items: videos, TotalResults: res.PageInfo.TotalResults}, nil
}

func (c *Client) VideoDetails(ctx context.Context, videoId string) (VideoDetails, error) {
	var res videosResponse
	err := c.get(ctx, "/videos", map[string]string{
		"part": "snippet,statistics,contentDetails",
		"id":   videoId,
	}, &res)
	if err != nil {
		return VideoDetails{}, err
	}
	if len(res.Items) == 0 {
		return VideoDetails{}, ErrVideoNotFound
	}
	return res.Items[0], nil
}
