package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"vidstats/internal/services"
)

// VideoExporter fetches the upstream export document for a video.
type VideoExporter interface {
	ExportVideo(ctx context.Context, videoID int64) (json.RawMessage, error)
}

// JSONFilename is the attachment name of a video's JSON export.
func JSONFilename(videoID int64) string {
	return fmt.Sprintf("video_data_%d.json", videoID)
}

// VideoJSON fetches the upstream export and re-indents it with two spaces.
func VideoJSON(ctx context.Context, src VideoExporter, videoID int64) ([]byte, error) {
	raw, err := src.ExportVideo(ctx, videoID)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "export", "video json", fmt.Sprintf("video %d", videoID), err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "export", "video json", "reindent", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
