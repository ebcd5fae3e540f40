package engine

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"

	"savevault/internal/saveerrors"
)

// AutoSaveSlot is the reserved slot id auto-save writes to.
const AutoSaveSlot = "autosave"

// MinAutoSaveInterval is the smallest accepted auto-save interval.
const MinAutoSaveInterval = 30 * time.Second

// autoSaveTimeout bounds one background save.
const autoSaveTimeout = 30 * time.Second

// AutoSaveConfig describes the engine's auto-save state. Interval and
// Schedule are mutually exclusive; configuring one clears the other.
type AutoSaveConfig struct {
	Enabled  bool
	Interval time.Duration
	Schedule string // cron expression, empty in interval mode
}

// GetAutoSaveConfig returns the current auto-save configuration.
// A fresh engine reports Enabled=false.
func (e *Engine) GetAutoSaveConfig() AutoSaveConfig {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	return e.autoCfg
}

// ConfigureAutoSave enables or disables the recurring interval
// auto-save. Intervals below 30 seconds are rejected. Enabling replaces
// any previous job (interval or cron); disabling stops and discards it.
func (e *Engine) ConfigureAutoSave(enabled bool, intervalSeconds int) error {
	interval := time.Duration(intervalSeconds) * time.Second
	if enabled && interval < MinAutoSaveInterval {
		return saveerrors.New(saveerrors.CodeInvalidArgument,
			"auto-save interval must be at least %s, got %s", MinAutoSaveInterval, interval)
	}

	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	e.removeAutoSaveJob()

	if !enabled {
		e.autoCfg = AutoSaveConfig{}
		e.log.Info("auto-save disabled")
		return nil
	}

	job, err := e.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(e.autoSaveTick),
	)
	if err != nil {
		return saveerrors.Wrap(saveerrors.CodeInvalidArgument, err, "failed to schedule auto-save")
	}
	e.autoJob = job
	e.autoCfg = AutoSaveConfig{Enabled: true, Interval: interval}
	e.scheduler.Start()
	e.log.WithField("interval", interval).Info("auto-save enabled")
	return nil
}

// ConfigureAutoSaveSchedule enables auto-save on a standard 5-field
// cron expression instead of a fixed interval.
func (e *Engine) ConfigureAutoSaveSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return saveerrors.Wrap(saveerrors.CodeInvalidArgument, err, "invalid auto-save cron expression %q", expr)
	}

	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	e.removeAutoSaveJob()

	job, err := e.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(e.autoSaveTick),
	)
	if err != nil {
		return saveerrors.Wrap(saveerrors.CodeInvalidArgument, err, "failed to schedule auto-save")
	}
	e.autoJob = job
	e.autoCfg = AutoSaveConfig{Enabled: true, Schedule: expr}
	e.scheduler.Start()
	e.log.WithField("schedule", expr).Info("auto-save enabled on cron schedule")
	return nil
}

// removeAutoSaveJob drops the current job. Caller holds autoMu.
func (e *Engine) removeAutoSaveJob() {
	if e.autoJob == nil {
		return
	}
	if err := e.scheduler.RemoveJob(e.autoJob.ID()); err != nil {
		e.log.WithError(err).Warn("failed to remove auto-save job")
	}
	e.autoJob = nil
}

// autoSaveTick performs one fire-and-forget save to the reserved slot.
// Failures are logged and never stop future ticks.
func (e *Engine) autoSaveTick() {
	ctx, cancel := context.WithTimeout(context.Background(), autoSaveTimeout)
	defer cancel()

	result, err := e.Save(ctx, AutoSaveSlot, "autosave")
	switch {
	case err != nil:
		e.log.WithError(err).Error("auto-save failed")
	case !result.Success:
		e.log.WithError(result.Err).WithField("message", result.Message).Error("auto-save failed")
	default:
		e.log.WithField("size", result.PayloadSize).Debug("auto-save completed")
	}
}
