package schedule

import (
	"log/slog"

	"github.com/discohub/disco-monitor/internal/player"
	"github.com/discohub/disco-monitor/internal/playlist"
	"github.com/discohub/disco-monitor/internal/types"
	"github.com/discohub/disco-monitor/internal/util"
)

// Notifier receives disco lifecycle announcements.
type Notifier interface {
	DiscoStarted(profile, playlist string, tracks int)
	DiscoStopped(reason string)
}

// Disco turns a profile into a running player session: generate the
// playlist, write it to disk, launch the player, announce.
type Disco struct {
	generator    *playlist.Generator
	player       *player.Player
	notifier     Notifier // may be nil
	playlistPath string
}

// NewDisco wires the session runner. The notifier may be nil.
func NewDisco(generator *playlist.Generator, p *player.Player, notifier Notifier, playlistPath string) *Disco {
	return &Disco{
		generator:    generator,
		player:       p,
		notifier:     notifier,
		playlistPath: playlistPath,
	}
}

// Start generates a playlist for the profile and launches the player.
func (d *Disco) Start(profile types.PlaylistProfile) error {
	pl, err := d.generator.Generate(profile)
	if err != nil {
		return util.WrapError("generate playlist", err)
	}
	if err := pl.WriteM3U(d.playlistPath); err != nil {
		return err
	}
	if err := d.player.Start(d.playlistPath); err != nil {
		return err
	}

	slog.Info("disco started", "profile", profile.Name, "tracks", len(pl.Tracks), "length", pl.Total)
	if d.notifier != nil {
		d.notifier.DiscoStarted(profile.Name, d.playlistPath, len(pl.Tracks))
	}
	return nil
}

// Stop ends the player session and announces the reason.
func (d *Disco) Stop(reason string) error {
	wasRunning := d.player.Running()
	if err := d.player.Stop(); err != nil {
		return err
	}
	if wasRunning && d.notifier != nil {
		d.notifier.DiscoStopped(reason)
	}
	return nil
}
