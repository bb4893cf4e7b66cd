package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const defaultMaxPages = 1000

// ErrPageLimit is returned with the videos gathered so far when the listing
// keeps advertising a next page past the configured ceiling.
var ErrPageLimit = errors.New("video listing exceeded page limit")

// ListAllVideos walks GET /video?page=N&order=asc from page 1, concatenating
// each page's data in order. It stops when links.next is null or links is
// absent. Pages with empty data do not stop the walk. A failed page aborts
// the walk: reconciling a partial listing would be indistinguishable from a
// complete one.
func (c *Client) ListAllVideos(ctx context.Context) ([]Video, error) {
	var videos []Video
	logger := c.logger

	for page := 1; ; page++ {
		if page > c.maxPages {
			logger.Warn("video listing page limit reached",
				"event_type", "upstream_page_limit",
				"max_pages", c.maxPages,
				"videos", len(videos),
			)
			return videos, fmt.Errorf("%w (%d pages)", ErrPageLimit, c.maxPages)
		}
		if err := ctx.Err(); err != nil {
			return videos, err
		}

		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("order", "asc")

		env, err := c.get(ctx, "/video", params)
		if err != nil {
			c.logFailure(ctx, "/video", err)
			return videos, fmt.Errorf("list videos page %d: %w", page, err)
		}

		if !isEmptyData(env.Data) {
			var batch []Video
			if err := json.Unmarshal(env.Data, &batch); err != nil {
				err = fmt.Errorf("%w: /video page %d: %w", ErrDecode, page, err)
				c.logFailure(ctx, "/video", err)
				return videos, err
			}
			videos = append(videos, batch...)
		}
		logger.Debug("fetched video listing page", "page", page, "total", len(videos))

		if env.Links == nil || env.Links.Next == nil {
			return videos, nil
		}
	}
}
