package server

// Request structs for the control API. Pointer fields distinguish
// "not sent" from a zero value so partial updates work.

// MonitorSettingsRequest updates the silence detector tunables.
type MonitorSettingsRequest struct {
	Threshold                *float64 `json:"threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	SilenceSeconds           *int     `json:"silence_seconds,omitempty" validate:"omitempty,gte=1,lte=600"`
	SoundConfirmationSeconds *int     `json:"sound_confirmation_seconds,omitempty" validate:"omitempty,gte=1,lte=120"`
	BufferSize               *int     `json:"buffer_size,omitempty" validate:"omitempty,gte=1,lte=100"`
	Device                   *int     `json:"device,omitempty" validate:"omitempty,gte=-1"`
}

// ToggleRequest flips a persisted enabled flag.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// WindowRequest creates or updates a weekly disco window.
type WindowRequest struct {
	Weekday string `json:"weekday" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Start   string `json:"start" validate:"required,datetime=15:04"`
	Stop    string `json:"stop" validate:"required,datetime=15:04"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// ProfileRequest creates or updates a playlist profile.
type ProfileRequest struct {
	Name          string   `json:"name" validate:"required,max=64"`
	Folders       []string `json:"folders" validate:"required,min=1,dive,required"`
	TargetMinutes int      `json:"target_minutes" validate:"required,gte=15,lte=720"`
}

// RotationRequest replaces the weekly profile rotation.
type RotationRequest struct {
	Rotation []string `json:"rotation" validate:"required,min=1,dive,required"`
}

// DiscoStartRequest starts a disco session, optionally naming the
// profile. An empty profile uses this week's rotation pick.
type DiscoStartRequest struct {
	Profile string `json:"profile,omitempty" validate:"omitempty,max=64"`
}

// PlaylistGenerateRequest builds a playlist without starting the player.
type PlaylistGenerateRequest struct {
	Profile string `json:"profile" validate:"required,max=64"`
}

// VolumeRequest sets the player volume in VLC units (256 = 100%).
type VolumeRequest struct {
	Volume *int `json:"volume" validate:"required,gte=0,lte=512"`
}

// WebhookUpdateRequest sets or clears the lamp webhook URL.
type WebhookUpdateRequest struct {
	URL string `json:"url" validate:"omitempty,url,max=2048"`
}

// LogUpdateRequest sets or clears the lamp log file path.
type LogUpdateRequest struct {
	Path string `json:"path" validate:"omitempty,max=4096"`
}

// NotifyTestRequest fires a test notification on one channel.
type NotifyTestRequest struct {
	Channel string `json:"channel" validate:"required,oneof=telegram webhook log mqtt"`
}

// SoundcheckRequest runs a timed level capture.
type SoundcheckRequest struct {
	Seconds int `json:"seconds,omitempty" validate:"omitempty,gte=1,lte=60"`
}
