package types

// ScheduleWindow is one weekly disco window: the disco starts at Start
// and stops at Stop on the given weekday.
type ScheduleWindow struct {
	ID        string `json:"id"`         // Unique identifier (window-xxxxxxxx)
	Weekday   string `json:"weekday"`    // Lowercase English weekday name
	Start     string `json:"start"`      // Start time, 24h "HH:MM"
	Stop      string `json:"stop"`       // Stop time, 24h "HH:MM"
	Enabled   bool   `json:"enabled"`    // Whether this window is active
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
}

// PlaylistProfile names a set of music folders and a target length.
// Profiles rotate week by week so regulars do not hear the same
// evening twice in a row.
type PlaylistProfile struct {
	Name          string   `json:"name"`
	Folders       []string `json:"folders"`        // Folder names under the music directory
	TargetMinutes int      `json:"target_minutes"` // Playlist length to aim for
}
