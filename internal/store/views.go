package store

import (
	"context"
	"fmt"
)

const monthlyColumns = "m.id, m.video_ref, v.video_id, m.month, m.total_views, m.started_views, m.finished_views, m.passed_views, m.failed_views, m.unfinished_views"

func scanMonthly(scanner rowScanner) (*MonthlyView, error) {
	var m MonthlyView
	if err := scanner.Scan(&m.ID, &m.VideoRef, &m.VideoID, &m.Month, &m.TotalViews, &m.StartedViews,
		&m.FinishedViews, &m.PassedViews, &m.FailedViews, &m.UnfinishedViews); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertMonthlyView writes the counters for (video, month).
func (s *Store) UpsertMonthlyView(ctx context.Context, m MonthlyView) (*MonthlyView, error) {
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO monthly_views (video_ref, month, total_views, started_views, finished_views,
			passed_views, failed_views, unfinished_views)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_ref, month) DO UPDATE SET
			total_views = excluded.total_views,
			started_views = excluded.started_views,
			finished_views = excluded.finished_views,
			passed_views = excluded.passed_views,
			failed_views = excluded.failed_views,
			unfinished_views = excluded.unfinished_views
		RETURNING id`,
		m.VideoRef, m.Month, m.TotalViews, m.StartedViews, m.FinishedViews,
		m.PassedViews, m.FailedViews, m.UnfinishedViews,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert monthly view %s: %w", m.Month, err)
	}
	m.ID = id
	return &m, nil
}

// ListMonthlyViews returns monthly rows ordered by video then month.
func (s *Store) ListMonthlyViews(ctx context.Context, opts ListOptions) ([]MonthlyView, int, error) {
	from := "monthly_views m JOIN videos v ON v.id = m.video_ref"
	where, args := filterClause(opts, "v.video_id", "")
	total, err := s.count(ctx, from+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+monthlyColumns+" FROM "+from+where+
		" ORDER BY v.video_id, m.month"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list monthly views: %w", err)
	}
	defer rows.Close()

	var out []MonthlyView
	for rows.Next() {
		m, err := scanMonthly(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan monthly view: %w", err)
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

// MonthlyTotals returns total views per upstream video id and month for the
// given months. Missing combinations are absent from the map.
func (s *Store) MonthlyTotals(ctx context.Context, months []string) (map[int64]map[string]int64, error) {
	out := make(map[int64]map[string]int64)
	if len(months) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(months))
	for _, m := range months {
		args = append(args, m)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.video_id, m.month, m.total_views
		FROM monthly_views m JOIN videos v ON v.id = m.video_ref
		WHERE m.month IN (`+makePlaceholders(len(months))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			videoID int64
			month   string
			total   int64
		)
		if err := rows.Scan(&videoID, &month, &total); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		if out[videoID] == nil {
			out[videoID] = make(map[string]int64)
		}
		out[videoID][month] = total
	}
	return out, rows.Err()
}

const sessionColumns = "s.id, s.video_ref, v.video_id, s.object_id, s.viewer_os, s.os_version, s.viewer_browser, s.browser_version, s.viewer_device, s.viewer_mobile, s.is_bot, s.viewer_count"

func scanSession(scanner rowScanner) (*ViewSession, error) {
	var (
		vs          ViewSession
		mobile, bot int
	)
	if err := scanner.Scan(&vs.ID, &vs.VideoRef, &vs.VideoID, &vs.ObjectID, &vs.ViewerOS, &vs.OSVersion,
		&vs.ViewerBrowser, &vs.BrowserVersion, &vs.ViewerDevice, &mobile, &bot, &vs.ViewerCount); err != nil {
		return nil, err
	}
	vs.ViewerMobile = mobile != 0
	vs.IsBot = bot != 0
	return &vs, nil
}

// UpsertViewSession writes the agent bucket stored at (video, object_id).
func (s *Store) UpsertViewSession(ctx context.Context, vs ViewSession) (*ViewSession, error) {
	if vs.ViewerDevice == "" {
		vs.ViewerDevice = "N/A"
	}
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO view_sessions (video_ref, object_id, viewer_os, os_version, viewer_browser, browser_version,
			viewer_device, viewer_mobile, is_bot, viewer_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_ref, object_id) DO UPDATE SET
			viewer_os = excluded.viewer_os,
			os_version = excluded.os_version,
			viewer_browser = excluded.viewer_browser,
			browser_version = excluded.browser_version,
			viewer_device = excluded.viewer_device,
			viewer_mobile = excluded.viewer_mobile,
			is_bot = excluded.is_bot,
			viewer_count = excluded.viewer_count
		RETURNING id`,
		vs.VideoRef, vs.ObjectID, vs.ViewerOS, vs.OSVersion, vs.ViewerBrowser, vs.BrowserVersion,
		vs.ViewerDevice, boolToInt(vs.ViewerMobile), boolToInt(vs.IsBot), vs.ViewerCount,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert view session %d: %w", vs.ObjectID, err)
	}
	vs.ID = id
	return &vs, nil
}

// ListViewSessions returns agent buckets ordered by video then position.
func (s *Store) ListViewSessions(ctx context.Context, opts ListOptions) ([]ViewSession, int, error) {
	from := "view_sessions s JOIN videos v ON v.id = s.video_ref"
	where, args := filterClause(opts, "v.video_id", "")
	total, err := s.count(ctx, from+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM "+from+where+
		" ORDER BY v.video_id, s.object_id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list view sessions: %w", err)
	}
	defer rows.Close()

	var out []ViewSession
	for rows.Next() {
		vs, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan view session: %w", err)
		}
		out = append(out, *vs)
	}
	return out, total, rows.Err()
}

const ratingColumns = "r.id, r.video_ref, v.video_id, r.rating_id, r.average_rating, r.one_star, r.two_star, r.three_star, r.four_star, r.five_star"

func scanRating(scanner rowScanner) (*VideoRating, error) {
	var r VideoRating
	if err := scanner.Scan(&r.ID, &r.VideoRef, &r.VideoID, &r.RatingID, &r.AverageRating,
		&r.OneStar, &r.TwoStar, &r.ThreeStar, &r.FourStar, &r.FiveStar); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRating writes the rating summary for (video, rating_id).
func (s *Store) UpsertRating(ctx context.Context, r VideoRating) (*VideoRating, error) {
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO video_ratings (video_ref, rating_id, average_rating, one_star, two_star, three_star, four_star, five_star)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_ref, rating_id) DO UPDATE SET
			average_rating = excluded.average_rating,
			one_star = excluded.one_star,
			two_star = excluded.two_star,
			three_star = excluded.three_star,
			four_star = excluded.four_star,
			five_star = excluded.five_star
		RETURNING id`,
		r.VideoRef, r.RatingID, r.AverageRating, r.OneStar, r.TwoStar, r.ThreeStar, r.FourStar, r.FiveStar,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert rating %d: %w", r.RatingID, err)
	}
	r.ID = id
	return &r, nil
}

// ListRatings returns rating summaries ordered by video.
func (s *Store) ListRatings(ctx context.Context, opts ListOptions) ([]VideoRating, int, error) {
	from := "video_ratings r JOIN videos v ON v.id = r.video_ref"
	where, args := filterClause(opts, "v.video_id", "")
	total, err := s.count(ctx, from+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+ratingColumns+" FROM "+from+where+
		" ORDER BY v.video_id, r.rating_id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []VideoRating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}
