// Package main runs the disco host: it watches the venue audio feed
// for silence, drives the operator lamp, and runs the scheduled disco
// evenings with a supervised media player.
//
// Usage:
//
//	disco-monitor [-config path/to/config.json]
//
// If -config is not specified, the monitor looks for config.json in the
// same directory as the binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/discohub/disco-monitor/internal/audio"
	"github.com/discohub/disco-monitor/internal/config"
	"github.com/discohub/disco-monitor/internal/eventlog"
	"github.com/discohub/disco-monitor/internal/library"
	"github.com/discohub/disco-monitor/internal/notify"
	"github.com/discohub/disco-monitor/internal/player"
	"github.com/discohub/disco-monitor/internal/playlist"
	"github.com/discohub/disco-monitor/internal/schedule"
	"github.com/discohub/disco-monitor/internal/telegram"
	"github.com/discohub/disco-monitor/internal/util"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: config.json next to binary)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		slog.Info("version info", "version", Version, "commit", Commit, "build_time", BuildTime)
		return
	}

	if *configPath == "" {
		execPath, err := os.Executable()
		if err != nil {
			slog.Error("failed to get executable path", "error", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(execPath), "config.json")
	}

	slog.Info("using config file", "path", *configPath)

	cfg := config.New(*configPath)
	if err := cfg.Load(); err != nil {
		// A broken config file must not keep the lamp dark. Run on the
		// defaults, the operator can fix the file through the API.
		slog.Warn("failed to load config - running on defaults", "error", err)
	}
	snap := cfg.Snapshot()

	// Event log. A broken log file degrades to slog-only operation.
	events, err := eventlog.NewLogger(snap.EventLogPath)
	if err != nil {
		slog.Warn("event log unavailable", "path", snap.EventLogPath, "error", err)
		events = nil
	}

	notifier := notify.NewLampNotifier(cfg, events)

	// Audio backend. Without it the host still runs the schedule and
	// the player, monitoring endpoints report unavailable.
	var host audio.Host
	var monitor *audio.Monitor
	if paHost, err := audio.NewPortAudioHost(); err != nil {
		slog.Warn("audio backend unavailable - monitoring disabled", "error", err)
	} else {
		host = paHost
		monitor = audio.NewMonitor(host, notifier, monitorSettings(snap))
		monitor.SetEnabled(snap.MonitoringEnabled)
	}

	// Media player. A missing binary only disables disco playback.
	binary, err := player.FindBinary(snap.PlayerBinaryPath)
	if err != nil {
		slog.Warn("media player unavailable - disco playback disabled", "error", err)
	}
	pl := player.New(binary, snap.PlayerHTTPPort, snap.PlayerHTTPPassword)

	generator := playlist.NewGenerator(snap.MusicDir)
	disco := schedule.NewDisco(generator, pl, notifier, snap.PlaylistPath)
	scheduler := schedule.New(cfg, disco)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	if snap.CleanupOnStart {
		library.CleanupJunk(snap.MusicDir)
	}

	if monitor != nil && snap.MonitoringEnabled {
		slog.Info("starting audio monitor")
		if err := monitor.Start(); err != nil {
			slog.Error("failed to start audio monitor", "error", err)
		}
	}

	srv := NewServer(cfg, Deps{
		Host:      host,
		Monitor:   monitor,
		Scheduler: scheduler,
		Player:    pl,
		Generator: generator,
		Notifier:  notifier,
		Events:    events,
	})

	if snap.TelegramCommands && snap.TelegramToken != "" {
		bot := telegram.NewBot(telegram.NewClient(snap.TelegramToken), snap.TelegramChatIDs)
		registerBotCommands(bot, srv)
		go bot.Run(ctx)
	}

	httpServer := srv.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, util.ShutdownSignals()...)
	<-sigChan

	slog.Info("shutting down")

	// Stop version checker goroutine
	srv.version.Stop()

	// Stop the scheduler and the bot.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if pl.Running() {
		if err := pl.Stop(); err != nil {
			slog.Error("error stopping player", "error", err)
		}
	}
	if monitor != nil {
		monitor.Stop()
	}
	if host != nil {
		if err := host.Close(); err != nil {
			slog.Error("error closing audio backend", "error", err)
		}
	}
	if events != nil {
		if err := events.Close(); err != nil {
			slog.Error("error closing event log", "error", err)
		}
	}

	slog.Info("shutdown complete")
}

// registerBotCommands wires the operator chat commands. Replies are
// plain text, the bot is a remote control for staff on the floor.
func registerBotCommands(bot *telegram.Bot, srv *Server) {
	bot.Handle("/status", func(string) string {
		status := srv.buildStatus()
		lamp := "green"
		if status.Monitor.LampLit {
			lamp = "RED"
		}
		return fmt.Sprintf("Lamp: %s\nLevel: %.4f\nMonitoring: %v\nDisco active: %v\nPlayer: %s",
			lamp, status.Monitor.AudioLevel, status.Monitor.MonitoringActive,
			status.Schedule.DiscoActive, status.Player.State)
	})

	bot.Handle("/lamp", func(string) string {
		if srv.monitor == nil {
			return "Audio backend unavailable."
		}
		if srv.monitor.LampLit() {
			return "Lamp is RED - silence on the floor!"
		}
		return "Lamp is green, all quiet on the board."
	})

	bot.Handle("/monitoring", func(args string) string {
		if srv.monitor == nil {
			return "Audio backend unavailable."
		}
		switch args {
		case "on":
			if err := srv.config.SetMonitoringEnabled(true); err != nil {
				return "Failed: " + err.Error()
			}
			srv.monitor.SetEnabled(true)
			if err := srv.monitor.Start(); err != nil {
				return "Failed to start: " + err.Error()
			}
			return "Monitoring started."
		case "off":
			if err := srv.config.SetMonitoringEnabled(false); err != nil {
				return "Failed: " + err.Error()
			}
			srv.monitor.SetEnabled(false)
			srv.monitor.Stop()
			return "Monitoring stopped."
		default:
			if srv.monitor.Active() {
				return "Monitoring is running. Use /monitoring off to stop."
			}
			return "Monitoring is stopped. Use /monitoring on to start."
		}
	})

	bot.Handle("/disco", func(args string) string {
		switch {
		case args == "stop":
			if err := srv.scheduler.StopNow(); err != nil {
				return "Failed: " + err.Error()
			}
			return "Disco stopped."
		case args == "" || args == "start":
			if err := srv.scheduler.StartNow(""); err != nil {
				return "Failed: " + err.Error()
			}
			return "Disco started."
		default:
			if err := srv.scheduler.StartNow(args); err != nil {
				return "Failed: " + err.Error()
			}
			return "Disco started with profile " + args + "."
		}
	})

	bot.Handle("/next", func(string) string {
		if !srv.player.Running() {
			return "The player is not running."
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.player.Remote().Next(ctx); err != nil {
			return "Failed: " + err.Error()
		}
		return "Skipped to the next track."
	})

	bot.Handle("/pause", func(string) string {
		if !srv.player.Running() {
			return "The player is not running."
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.player.Remote().PlayPause(ctx); err != nil {
			return "Failed: " + err.Error()
		}
		return "Toggled pause."
	})
}
