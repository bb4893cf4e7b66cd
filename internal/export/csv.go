package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"vidstats/internal/services"
	"vidstats/internal/store"
)

// Header is the column row of every monthly views export.
var Header = []string{"Month", "Video ID", "Video title", "Total Views"}

// Source is the read side the exporter queries.
type Source interface {
	GetVideo(ctx context.Context, videoID int64) (*store.Video, error)
	ListVideos(ctx context.Context, opts store.ListOptions) ([]store.Video, int, error)
	MonthlyTotals(ctx context.Context, months []string) (map[int64]map[string]int64, error)
}

// MonthlyRequest selects the rows of a monthly views export.
type MonthlyRequest struct {
	Start Month
	End   Month
	// VideoID limits the export to one video; zero exports every video.
	VideoID int64
	// All keeps videos created after a month's end.
	All bool
}

// Filename is the attachment name for the export.
func (r MonthlyRequest) Filename() string {
	span := r.Start.String() + "_to_" + r.End.String()
	if r.Start == r.End {
		span = r.Start.String()
	}
	switch {
	case r.VideoID != 0:
		return fmt.Sprintf("%d_%s_views_single_data.csv", r.VideoID, span)
	case r.All:
		return span + "_views_all_data.csv"
	default:
		return span + "_views_filtered_data.csv"
	}
}

// Exporter renders exports from the stored snapshot.
type Exporter struct {
	src Source
	loc *time.Location
	now func() time.Time
}

// New returns an exporter. Month ends and "today" are evaluated in loc.
func New(src Source, loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{src: src, loc: loc, now: time.Now}
}

// SetClock overrides the exporter's notion of now.
func (e *Exporter) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// WriteMonthlyCSV writes a UTF-8 CSV with a leading byte order mark. Rows
// are ordered by video id, then month. Unless req.All is set, a video only
// appears for months ending on or after its creation. Months without stored
// views report 0.
func (e *Exporter) WriteMonthlyCSV(ctx context.Context, w io.Writer, req MonthlyRequest) error {
	months, err := MonthRange(req.Start, req.End)
	if err != nil {
		return services.Wrap(services.ErrValidation, "export", "monthly csv", "", err)
	}
	videos, err := e.videosFor(ctx, req.VideoID)
	if err != nil {
		return err
	}

	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.String()
	}
	totals, err := e.src.MonthlyTotals(ctx, keys)
	if err != nil {
		return services.Wrap(services.ErrStore, "export", "monthly totals", "", err)
	}

	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bom)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range videos {
		for i, m := range months {
			if !req.All && v.CreatedDate.After(m.End(e.loc)) {
				continue
			}
			record := []string{
				keys[i],
				strconv.FormatInt(v.VideoID, 10),
				v.Title,
				strconv.FormatInt(totals[v.VideoID][keys[i]], 10),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bom.Close()
}

func (e *Exporter) videosFor(ctx context.Context, videoID int64) ([]store.Video, error) {
	if videoID == 0 {
		videos, _, err := e.src.ListVideos(ctx, store.ListOptions{})
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "export", "list videos", "", err)
		}
		return videos, nil
	}
	video, err := e.src.GetVideo(ctx, videoID)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "export", "get video", "", err)
	}
	if video == nil {
		return nil, services.Wrap(services.ErrNotFound, "export", "get video", fmt.Sprintf("video %d", videoID), nil)
	}
	return []store.Video{*video}, nil
}

// PastTwoMonths returns, per upstream video id, the total views of the
// previous calendar month and of the month before it.
func (e *Exporter) PastTwoMonths(ctx context.Context) (map[string][2]int64, error) {
	current := MonthOf(e.now().In(e.loc))
	last, prior := current.Add(-1).String(), current.Add(-2).String()

	videos, _, err := e.src.ListVideos(ctx, store.ListOptions{})
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "export", "list videos", "", err)
	}
	totals, err := e.src.MonthlyTotals(ctx, []string{last, prior})
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "export", "monthly totals", "", err)
	}
	out := make(map[string][2]int64, len(videos))
	for _, v := range videos {
		byMonth := totals[v.VideoID]
		out[strconv.FormatInt(v.VideoID, 10)] = [2]int64{byMonth[last], byMonth[prior]}
	}
	return out, nil
}
