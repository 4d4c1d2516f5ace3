package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

const (
	CourseStatusActive     = "active"
	CourseStatusLocked     = "locked"
	CourseStatusComingSoon = "coming_soon"
)

const (
	AIStatusPending   = "pending"
	AIStatusGenerated = "generated"
	AIStatusApproved  = "approved"
)

type Course struct {
	gorm.Model
	Name                  string
	Slug                  string `gorm:"uniqueIndex"`
	CourseType            string `gorm:"default:sprint"` // sprint, speaking, consultancy, special
	Status                string `gorm:"default:active"` // active, locked, coming_soon
	Description           string
	ShortDescription      string
	CoachName             string `gorm:"default:Sprint Coach"`
	IsSubscribersOnly     bool   `gorm:"default:false"`
	IsAccredibleCertified bool   `gorm:"default:false"`
	ExamUnlockDays        int    `gorm:"default:120"`    // days after enrollment before exam unlocks
	SpecialTag            string
	Lessons               []Lesson
	Modules               []Module
}

type Module struct {
	gorm.Model
	CourseID    uint     `gorm:"index"`
	Name        string
	Description string
	Order       int      `gorm:"default:0"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID"`
}

type Lesson struct {
	gorm.Model
	CourseID    uint   `gorm:"index:idx_lesson_course_slug,unique"`
	ModuleID    *uint  `gorm:"index"`
	Title       string
	Slug        string `gorm:"index:idx_lesson_course_slug,unique"`
	Description string
	Order       int    `gorm:"default:0"`
	LessonType  string `gorm:"default:video"` // video, live, replay

	VideoURL      string
	VideoDuration int // minutes
	WorkbookURL   string
	ResourcesURL  string

	VimeoURL             string
	VimeoID              string
	VimeoThumbnail       string
	VimeoDurationSeconds int

	GoogleDriveURL string
	GoogleDriveID  string

	WorkingTitle  string
	RoughNotes    string
	Transcription string
	Content       string // Editor.js document as JSON

	AIGenerationStatus string `gorm:"default:pending"` // pending, generated, approved
	AICleanTitle       string
	AIShortSummary     string
	AIFullDescription  string
	AIOutcomes         string // JSON array of strings
	AICoachActions     string // JSON array of strings
}

// PlaybackSource resolves which video backend serves this lesson.
// Precedence: Google Drive > Vimeo > generic URL > placeholder.
func (l *Lesson) PlaybackSource() (source string, url string) {
	if l.GoogleDriveID != "" || l.GoogleDriveURL != "" {
		if l.GoogleDriveURL != "" {
			return "google_drive", l.GoogleDriveURL
		}
		return "google_drive", fmt.Sprintf("https://drive.google.com/file/d/%s/preview", l.GoogleDriveID)
	}
	if l.VimeoID != "" {
		return "vimeo", l.VimeoEmbedURL()
	}
	if l.VideoURL != "" {
		return "url", l.VideoURL
	}
	return "placeholder", ""
}

func (l *Lesson) VimeoEmbedURL() string {
	if l.VimeoID == "" {
		return ""
	}
	return fmt.Sprintf("https://player.vimeo.com/video/%s", l.VimeoID)
}

// FormattedDuration renders the lesson length as MM:SS.
func (l *Lesson) FormattedDuration() string {
	if l.VimeoDurationSeconds > 0 {
		return fmt.Sprintf("%d:%02d", l.VimeoDurationSeconds/60, l.VimeoDurationSeconds%60)
	}
	if l.VideoDuration > 0 {
		return fmt.Sprintf("%d:00", l.VideoDuration)
	}
	return "0:00"
}

func (l *Lesson) OutcomesList() []string {
	return decodeStringList(l.AIOutcomes)
}

func (l *Lesson) CoachActionsList() []string {
	return decodeStringList(l.AICoachActions)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	return items
}

func EncodeStringList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}
