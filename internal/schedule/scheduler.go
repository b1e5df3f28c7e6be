// Package schedule runs the weekly disco windows: it starts the disco
// at a window's start, stops it at the end, and rotates playlist
// profiles by ISO week.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/discohub/disco-monitor/internal/config"
	"github.com/discohub/disco-monitor/internal/types"
)

// tickInterval is how often the scheduler compares clock and windows.
const tickInterval = 30 * time.Second

// Runner starts and stops a disco session.
type Runner interface {
	Start(profile types.PlaylistProfile) error
	Stop(reason string) error
}

// Scheduler drives a Runner from the configured weekly windows.
type Scheduler struct {
	cfg    *config.Config
	runner Runner
	now    func() time.Time

	mu            sync.Mutex
	active        bool
	manual        bool // session started by an operator, auto-stop does not apply
	activeProfile string
	failedWindow  string // window that failed to start, no retry until it changes
}

// New returns a scheduler over the config and runner.
func New(cfg *config.Config, runner Runner) *Scheduler {
	return &Scheduler{cfg: cfg, runner: runner, now: time.Now}
}

// Run ticks until the context is canceled. The first check happens
// immediately so a restart inside a window resumes the disco.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "tick", tickInterval)
	s.tick()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick reconciles the running state with the schedule.
func (s *Scheduler) tick() {
	if !s.cfg.ScheduleEnabled() {
		return
	}
	now := s.now()
	window := s.coveringWindow(now)

	s.mu.Lock()
	active, manual := s.active, s.manual
	failedWindow := s.failedWindow
	s.mu.Unlock()

	switch {
	case window != nil && !active:
		if window.ID == failedWindow {
			return // this window already failed, wait for the next one
		}
		s.startWindow(window, now)
	case window == nil && active && !manual:
		s.stopSession("scheduled window ended")
	}
}

// startWindow launches the disco for the profile active this week.
func (s *Scheduler) startWindow(window *types.ScheduleWindow, now time.Time) {
	profile, err := s.profileFor(now)
	if err != nil {
		slog.Error("cannot start disco", "window", window.ID, "error", err)
		s.markFailed(window.ID)
		return
	}

	slog.Info("disco window opened", "window", window.ID, "profile", profile.Name)
	if err := s.runner.Start(profile); err != nil {
		slog.Error("disco start failed", "window", window.ID, "profile", profile.Name, "error", err)
		s.markFailed(window.ID)
		return
	}

	s.mu.Lock()
	s.active = true
	s.manual = false
	s.activeProfile = profile.Name
	s.failedWindow = ""
	s.mu.Unlock()
}

func (s *Scheduler) markFailed(windowID string) {
	s.mu.Lock()
	s.failedWindow = windowID
	s.mu.Unlock()
}

func (s *Scheduler) stopSession(reason string) {
	slog.Info("disco window closed", "reason", reason)
	if err := s.runner.Stop(reason); err != nil {
		slog.Error("disco stop failed", "error", err)
	}
	s.mu.Lock()
	s.active = false
	s.manual = false
	s.activeProfile = ""
	s.mu.Unlock()
}

// StartNow launches a disco session outside the schedule. Manual
// sessions are not auto-stopped when no window covers them.
func (s *Scheduler) StartNow(profileName string) error {
	var profile types.PlaylistProfile
	if profileName != "" {
		found := s.cfg.Profile(profileName)
		if found == nil {
			return fmt.Errorf("unknown profile %q", profileName)
		}
		profile = *found
	} else {
		var err error
		profile, err = s.profileFor(s.now())
		if err != nil {
			return err
		}
	}

	if err := s.runner.Start(profile); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = true
	s.manual = true
	s.activeProfile = profile.Name
	s.mu.Unlock()
	return nil
}

// StopNow ends the current session, scheduled or manual.
func (s *Scheduler) StopNow() error {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return s.runner.Stop("stopped by operator")
	}
	s.stopSession("stopped by operator")
	return nil
}

// Active reports whether a disco session is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Status returns the scheduler state for the API.
func (s *Scheduler) Status() types.ScheduleStatus {
	s.mu.Lock()
	status := types.ScheduleStatus{
		Enabled:       s.cfg.ScheduleEnabled(),
		DiscoActive:   s.active,
		ActiveProfile: s.activeProfile,
	}
	s.mu.Unlock()

	if status.Enabled {
		if start, stop, ok := s.NextRun(); ok {
			status.NextStart = start.Format(time.RFC3339)
			status.NextStop = stop.Format(time.RFC3339)
		}
	}
	return status
}

// profileFor picks the playlist profile for the given time: the
// rotation list indexed by ISO week, or the first profile when no
// rotation is configured.
func (s *Scheduler) profileFor(at time.Time) (types.PlaylistProfile, error) {
	snapshot := s.cfg.Snapshot()
	if len(snapshot.Rotation) > 0 {
		_, week := at.ISOWeek()
		name := snapshot.Rotation[week%len(snapshot.Rotation)]
		if profile := s.cfg.Profile(name); profile != nil {
			return *profile, nil
		}
		return types.PlaylistProfile{}, fmt.Errorf("rotation references unknown profile %q", name)
	}
	if len(snapshot.Profiles) > 0 {
		return snapshot.Profiles[0], nil
	}
	return types.PlaylistProfile{}, fmt.Errorf("no playlist profiles configured")
}

// coveringWindow returns the enabled window covering the given time.
func (s *Scheduler) coveringWindow(at time.Time) *types.ScheduleWindow {
	for _, window := range s.cfg.Windows() {
		if windowCovers(&window, at) {
			w := window
			return &w
		}
	}
	return nil
}

// windowCovers reports whether the window is open at the given time.
// A window whose stop clock is at or before its start clock runs
// through midnight into the next day.
func windowCovers(w *types.ScheduleWindow, at time.Time) bool {
	if !w.Enabled {
		return false
	}
	start, stop := clockMinutes(w.Start), clockMinutes(w.Stop)
	minute := at.Hour()*60 + at.Minute()
	today := weekdayName(at.Weekday())

	if start < stop {
		return today == w.Weekday && minute >= start && minute < stop
	}
	if today == w.Weekday && minute >= start {
		return true
	}
	yesterday := weekdayName(at.AddDate(0, 0, -1).Weekday())
	return yesterday == w.Weekday && minute < stop
}

// NextRun returns the start and stop of the next scheduled window.
func (s *Scheduler) NextRun() (start, stop time.Time, ok bool) {
	now := s.now()
	windows := s.cfg.Windows()

	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		dayName := weekdayName(day.Weekday())
		for _, window := range windows {
			if !window.Enabled || window.Weekday != dayName {
				continue
			}
			startMin := clockMinutes(window.Start)
			candidate := time.Date(day.Year(), day.Month(), day.Day(), startMin/60, startMin%60, 0, 0, now.Location())
			if !candidate.After(now) {
				continue
			}
			if !ok || candidate.Before(start) {
				start = candidate
				stop = candidate.Add(windowLength(&window))
				ok = true
			}
		}
	}
	return start, stop, ok
}

// windowLength is the open duration, counting overnight wrap.
func windowLength(w *types.ScheduleWindow) time.Duration {
	start, stop := clockMinutes(w.Start), clockMinutes(w.Stop)
	if stop <= start {
		stop += 24 * 60
	}
	return time.Duration(stop-start) * time.Minute
}

// clockMinutes converts a validated "HH:MM" clock to minutes past
// midnight.
func clockMinutes(clock string) int {
	hh, mm, _ := strings.Cut(clock, ":")
	hours, _ := strconv.Atoi(hh)
	minutes, _ := strconv.Atoi(mm)
	return hours*60 + minutes
}

func weekdayName(day time.Weekday) string {
	return strings.ToLower(day.String())
}
