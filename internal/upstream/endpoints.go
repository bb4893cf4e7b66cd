package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

func videoPath(videoID int64, suffix string) string {
	return "/video/" + strconv.FormatInt(videoID, 10) + suffix
}

func fetchInto[T any](ctx context.Context, c *Client, path string, params url.Values) (T, error) {
	var out T
	env, err := c.Fetch(ctx, path, params)
	if err != nil {
		return out, err
	}
	if err := c.decodeData(ctx, path, env, &out); err != nil {
		return out, err
	}
	return out, nil
}

// VideoDetail fetches GET /video/{id}.
func (c *Client) VideoDetail(ctx context.Context, videoID int64) (VideoDetail, error) {
	return fetchInto[VideoDetail](ctx, c, videoPath(videoID, ""), nil)
}

// AggregatedStatistics fetches GET /video/{id}/aggregated-statistics.
func (c *Client) AggregatedStatistics(ctx context.Context, videoID int64) (AggregatedStatistics, error) {
	return fetchInto[AggregatedStatistics](ctx, c, videoPath(videoID, "/aggregated-statistics"), nil)
}

// MonthlyViews fetches the per-month breakdown between start and end, both
// formatted "YYYY-MM-DD HH:MM:SS".
func (c *Client) MonthlyViews(ctx context.Context, videoID int64, start, end string) ([]MonthBucket, error) {
	params := url.Values{}
	params.Set("group_by", "month")
	params.Set("start_date", start)
	params.Set("end_date", end)
	return fetchInto[[]MonthBucket](ctx, c, videoPath(videoID, "/stats/views"), params)
}

// ViewsByUserAgent fetches the viewer-agent breakdown in response order.
func (c *Client) ViewsByUserAgent(ctx context.Context, videoID int64) (AgentBuckets, error) {
	return fetchInto[AgentBuckets](ctx, c, videoPath(videoID, "/stats/views-by-user-agent"), nil)
}

// Interactions fetches the flat interaction list.
func (c *Client) Interactions(ctx context.Context, videoID int64) ([]InteractionEntry, error) {
	return fetchInto[[]InteractionEntry](ctx, c, videoPath(videoID, "/stats/interactions/"), nil)
}

// Questions fetches the flat question list including answer tallies.
func (c *Client) Questions(ctx context.Context, videoID int64) ([]Question, error) {
	return fetchInto[[]Question](ctx, c, videoPath(videoID, "/stats/questions/"), nil)
}

// ExportVideo returns the full JSON document of GET /video/{id}/export. The
// body is returned as sent, without unwrapping data.
func (c *Client) ExportVideo(ctx context.Context, videoID int64) (json.RawMessage, error) {
	path := videoPath(videoID, "/export")
	body, err := c.do(ctx, path, nil)
	if err == nil && !json.Valid(body) {
		err = fmt.Errorf("%w: %s: invalid json", ErrDecode, path)
	}
	if err != nil {
		c.logFailure(ctx, path, err)
		return nil, err
	}
	return json.RawMessage(body), nil
}
