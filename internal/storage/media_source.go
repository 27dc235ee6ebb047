package storage

import (
	"context"

	"slate-workspace/go-backend/pkg/models"
)

// MediaSource supplies the host's recent media as an immutable snapshot.
type MediaSource interface {
	RecentMedia(ctx context.Context) ([]models.MediaItem, error)
}

type StaticMediaSource struct {
	items []models.MediaItem
}

func NewStaticMediaSource(items ...models.MediaItem) *StaticMediaSource {
	return &StaticMediaSource{items: cloneMediaItems(items)}
}

func (s *StaticMediaSource) RecentMedia(_ context.Context) ([]models.MediaItem, error) {
	for _, item := range s.items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	return cloneMediaItems(s.items), nil
}

func cloneMediaItems(in []models.MediaItem) []models.MediaItem {
	out := make([]models.MediaItem, len(in))
	for i, item := range in {
		if item.Duration != nil {
			d := *item.Duration
			item.Duration = &d
		}
		out[i] = item
	}
	return out
}

func SampleMedia() []models.MediaItem {
	videoDuration := 15.5
	return []models.MediaItem{
		{
			ID:        "media_1",
			URL:       "https://via.placeholder.com/120x120/E53E3E/FFFFFF?text=Media+1",
			Thumbnail: "https://via.placeholder.com/120x120/E53E3E/FFFFFF?text=Media+1",
			Type:      models.MediaImage,
		},
		{
			ID:        "media_2",
			URL:       "https://via.placeholder.com/120x120/96CEB4/FFFFFF?text=Media+2",
			Thumbnail: "https://via.placeholder.com/120x120/96CEB4/FFFFFF?text=Media+2",
			Type:      models.MediaVideo,
			Duration:  &videoDuration,
		},
		{
			ID:        "media_3",
			URL:       "https://via.placeholder.com/120x120/FECA57/FFFFFF?text=Media+3",
			Thumbnail: "https://via.placeholder.com/120x120/FECA57/FFFFFF?text=Media+3",
			Type:      models.MediaImage,
		},
	}
}
