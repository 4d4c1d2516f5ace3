package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaybackSourcePrecedence(t *testing.T) {
	lesson := Lesson{
		GoogleDriveURL: "https://drive.google.com/file/d/abc/view",
		VimeoID:        "123",
		VideoURL:       "https://cdn.example.com/v.mp4",
	}
	source, url := lesson.PlaybackSource()
	assert.Equal(t, "google_drive", source)
	assert.Equal(t, "https://drive.google.com/file/d/abc/view", url)

	// Drive id without a URL builds the preview link
	lesson = Lesson{GoogleDriveID: "abc", VimeoID: "123"}
	source, url = lesson.PlaybackSource()
	assert.Equal(t, "google_drive", source)
	assert.Equal(t, "https://drive.google.com/file/d/abc/preview", url)

	lesson = Lesson{VimeoID: "123", VideoURL: "https://cdn.example.com/v.mp4"}
	source, url = lesson.PlaybackSource()
	assert.Equal(t, "vimeo", source)
	assert.Equal(t, "https://player.vimeo.com/video/123", url)

	lesson = Lesson{VideoURL: "https://cdn.example.com/v.mp4"}
	source, url = lesson.PlaybackSource()
	assert.Equal(t, "url", source)
	assert.Equal(t, "https://cdn.example.com/v.mp4", url)

	lesson = Lesson{}
	source, url = lesson.PlaybackSource()
	assert.Equal(t, "placeholder", source)
	assert.Equal(t, "", url)
}

func TestVimeoEmbedURL(t *testing.T) {
	lesson := Lesson{VimeoID: "456"}
	assert.Equal(t, "https://player.vimeo.com/video/456", lesson.VimeoEmbedURL())
	assert.Equal(t, "", (&Lesson{}).VimeoEmbedURL())
}

func TestFormattedDuration(t *testing.T) {
	assert.Equal(t, "6:05", (&Lesson{VimeoDurationSeconds: 365}).FormattedDuration())
	assert.Equal(t, "0:45", (&Lesson{VimeoDurationSeconds: 45}).FormattedDuration())
	// Vimeo seconds win over the coarse minute field
	assert.Equal(t, "2:00", (&Lesson{VimeoDurationSeconds: 120, VideoDuration: 99}).FormattedDuration())
	assert.Equal(t, "12:00", (&Lesson{VideoDuration: 12}).FormattedDuration())
	assert.Equal(t, "0:00", (&Lesson{}).FormattedDuration())
}

func TestStringListRoundTrip(t *testing.T) {
	lesson := Lesson{
		AIOutcomes:     EncodeStringList([]string{"one", "two"}),
		AICoachActions: EncodeStringList(nil),
	}
	assert.Equal(t, []string{"one", "two"}, lesson.OutcomesList())
	assert.Equal(t, []string{}, lesson.CoachActionsList())

	// malformed stored JSON degrades to empty, never panics
	lesson.AIOutcomes = "{broken"
	assert.Equal(t, []string{}, lesson.OutcomesList())
}
