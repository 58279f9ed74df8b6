package announce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"campus-queue-backend/internal/models"
)

// Announcement is the side-effect payload emitted when an entry is
// called or recalled. The display/TTS collaborator plays AudioPaths in
// order; this package has no opinion on how that is rendered.
type Announcement struct {
	EntryID     string            `json:"entry_id"`
	QueueNumber int64             `json:"queue_number"`
	Department  models.Department `json:"department"`
	WindowID    string            `json:"window_id"`
	WindowName  string            `json:"window_name"`
	Recall      bool              `json:"recall"`
	AudioPaths  []string          `json:"audio_paths"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Build assembles the announcement for a called entry: chime, "queue
// number", the number read digit by digit, then "please proceed to
// window" followed by the window name segments.
func Build(entry *models.QueueEntry, window *models.Window, recall bool) Announcement {
	paths := []string{
		"audio/chime.mp3",
		"audio/queue_number.mp3",
	}
	paths = append(paths, numberPaths(entry.QueueNumber)...)
	paths = append(paths, "audio/proceed_to.mp3")
	paths = append(paths, namePaths(window.Name)...)

	return Announcement{
		EntryID:     entry.ID,
		QueueNumber: entry.QueueNumber,
		Department:  entry.Department,
		WindowID:    window.ID,
		WindowName:  window.Name,
		Recall:      recall,
		AudioPaths:  paths,
		Timestamp:   time.Now(),
	}
}

func numberPaths(n int64) []string {
	digits := strconv.FormatInt(n, 10)
	paths := make([]string, 0, len(digits))
	for _, d := range digits {
		paths = append(paths, fmt.Sprintf("audio/%c.mp3", d))
	}
	return paths
}

// namePaths splits a window name like "Window 3" or "W2" into letter
// and digit segments with a clip per character class.
func namePaths(name string) []string {
	var paths []string
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if _, err := strconv.Atoi(word); err == nil {
			for _, d := range word {
				paths = append(paths, fmt.Sprintf("audio/%c.mp3", d))
			}
			continue
		}
		paths = append(paths, fmt.Sprintf("audio/%s.mp3", sanitize(word)))
	}
	return paths
}

func sanitize(word string) string {
	var b strings.Builder
	for _, c := range word {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String()
}
