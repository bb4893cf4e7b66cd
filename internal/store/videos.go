package store

import (
	"context"
	"fmt"
)

const videoColumns = "id, video_id, uuid, title, status, created_date, folder_name, folder_number, updated_at"

func scanVideo(scanner rowScanner) (*Video, error) {
	var (
		v          Video
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&v.ID, &v.VideoID, &v.UUID, &v.Title, &v.Status, &createdRaw,
		&v.FolderName, &v.FolderNumber, &updatedRaw); err != nil {
		return nil, err
	}
	v.CreatedDate = mustTime(createdRaw)
	v.UpdatedAt = mustTime(updatedRaw)
	return &v, nil
}

// UpsertVideo inserts or refreshes the video keyed by its upstream id and
// returns the stored row. updated_at only moves when an upstream field
// changed, so re-syncing identical data leaves the row as it was.
func (s *Store) UpsertVideo(ctx context.Context, v Video) (*Video, error) {
	if v.VideoID == 0 {
		return nil, fmt.Errorf("upsert video: missing upstream id")
	}
	var (
		id         int64
		updatedRaw string
	)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO videos (video_id, uuid, title, status, created_date, folder_name, folder_number, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(video_id) DO UPDATE SET
				updated_at = CASE
					WHEN videos.uuid IS NOT excluded.uuid
						OR videos.title IS NOT excluded.title
						OR videos.status IS NOT excluded.status
						OR videos.created_date IS NOT excluded.created_date
						OR videos.folder_name IS NOT excluded.folder_name
						OR videos.folder_number IS NOT excluded.folder_number
					THEN excluded.updated_at
					ELSE videos.updated_at
				END,
				uuid = excluded.uuid,
				title = excluded.title,
				status = excluded.status,
				created_date = excluded.created_date,
				folder_name = excluded.folder_name,
				folder_number = excluded.folder_number
			RETURNING id, updated_at`,
			v.VideoID, v.UUID, v.Title, v.Status, formatTime(v.CreatedDate), v.FolderName, v.FolderNumber, formatTime(s.now()),
		).Scan(&id, &updatedRaw)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert video %d: %w", v.VideoID, err)
	}
	v.ID = id
	v.CreatedDate = v.CreatedDate.UTC()
	v.UpdatedAt = mustTime(updatedRaw)
	return &v, nil
}

// GetVideo returns the video with the given upstream id, or nil when absent.
func (s *Store) GetVideo(ctx context.Context, videoID int64) (*Video, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+videoColumns+" FROM videos WHERE video_id = ?", videoID)
	v, err := scanVideo(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video %d: %w", videoID, err)
	}
	return v, nil
}

// ListVideos returns videos ordered by upstream id together with the total
// number of matching rows.
func (s *Store) ListVideos(ctx context.Context, opts ListOptions) ([]Video, int, error) {
	where, args := filterClause(opts, "video_id", "")
	total, err := s.count(ctx, "videos"+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+videoColumns+" FROM videos"+where+" ORDER BY video_id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

const videoStatsColumns = "s.id, s.video_ref, v.video_id, s.total_views, s.started_views, s.finished_views, s.interaction_clicks, s.num_questions, s.video_duration_seconds"

func scanVideoStats(scanner rowScanner) (*VideoStats, error) {
	var st VideoStats
	if err := scanner.Scan(&st.ID, &st.VideoRef, &st.VideoID, &st.TotalViews, &st.StartedViews,
		&st.FinishedViews, &st.InteractionClicks, &st.NumQuestions, &st.VideoDurationSeconds); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetVideoStats returns the stats row for the local video id, or nil.
func (s *Store) GetVideoStats(ctx context.Context, videoRef int64) (*VideoStats, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+videoStatsColumns+" FROM video_stats s JOIN videos v ON v.id = s.video_ref WHERE s.video_ref = ?", videoRef)
	st, err := scanVideoStats(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video stats: %w", err)
	}
	return st, nil
}

// UpsertVideoStats writes every counter of the stats row for st.VideoRef.
func (s *Store) UpsertVideoStats(ctx context.Context, st VideoStats) (*VideoStats, error) {
	id, err := s.upsertReturningID(ctx, `
		INSERT INTO video_stats (video_ref, total_views, started_views, finished_views, interaction_clicks, num_questions, video_duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_ref) DO UPDATE SET
			total_views = excluded.total_views,
			started_views = excluded.started_views,
			finished_views = excluded.finished_views,
			interaction_clicks = excluded.interaction_clicks,
			num_questions = excluded.num_questions,
			video_duration_seconds = excluded.video_duration_seconds
		RETURNING id`,
		st.VideoRef, st.TotalViews, st.StartedViews, st.FinishedViews, st.InteractionClicks, st.NumQuestions, st.VideoDurationSeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert video stats: %w", err)
	}
	st.ID = id
	return &st, nil
}

// ListVideoStats returns stats rows ordered by upstream video id.
func (s *Store) ListVideoStats(ctx context.Context, opts ListOptions) ([]VideoStats, int, error) {
	from := " FROM video_stats s JOIN videos v ON v.id = s.video_ref"
	where, args := filterClause(opts, "v.video_id", "")
	total, err := s.count(ctx, "video_stats s JOIN videos v ON v.id = s.video_ref"+where, args)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+videoStatsColumns+from+where+" ORDER BY v.video_id"+pageClause(opts), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list video stats: %w", err)
	}
	defer rows.Close()

	var out []VideoStats
	for rows.Next() {
		st, err := scanVideoStats(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video stats: %w", err)
		}
		out = append(out, *st)
	}
	return out, total, rows.Err()
}

func (s *Store) count(ctx context.Context, from string, args []any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+from, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
