package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/navely/scribe/internal/common"
	"github.com/ternarybob/arbor"
)

// browserSession wraps a chromedp browser context backed by an
// isolated temporary profile directory. Each post attempt gets its
// own profile so concurrent jobs never share browser state.
type browserSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	profileDir  string
	logger      arbor.ILogger
}

// newBrowserSession launches a Chrome instance. When headless is false
// the browser opens a visible window for manual interaction.
func newBrowserSession(parent context.Context, config *common.EngineConfig, headless bool, logger arbor.ILogger) (*browserSession, error) {
	profileDir, err := os.MkdirTemp(config.ProfileDir, "scribe-profile-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserDataDir(profileDir),
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("no-sandbox", true),
	}

	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}

	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			logger.Debug().Str("source", "chromedp").Msg(fmt.Sprintf(s, i...))
		}))

	// Start the browser process now so launch failures surface here
	// rather than on the first workflow action.
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		cancelCtx()
		cancelAlloc()
		removeProfileDir(profileDir, logger)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debug().
		Str("profile_dir", profileDir).
		Bool("headless", headless).
		Msg("Browser session started")

	return &browserSession{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		profileDir:  profileDir,
		logger:      logger,
	}, nil
}

// Close shuts down the browser and removes the temporary profile.
func (s *browserSession) Close() {
	s.cancelCtx()
	s.cancelAlloc()
	removeProfileDir(s.profileDir, s.logger)
}

// removeProfileDir deletes a temp profile with retries. Chrome can
// hold file handles briefly after the process exits.
func removeProfileDir(dir string, logger arbor.ILogger) {
	if dir == "" {
		return
	}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = os.RemoveAll(dir); lastErr == nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	logger.Warn().
		Err(lastErr).
		Str("profile_dir", dir).
		Msg("Failed to remove profile directory after retries")
}

// SweepLeftoverProfiles removes stale scribe-profile-* directories
// left behind by crashed runs. Called once at startup.
func SweepLeftoverProfiles(baseDir string, logger arbor.ILogger) int {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(baseDir, "scribe-profile-*"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, dir := range matches {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn().Err(err).Str("profile_dir", dir).Msg("Failed to remove leftover profile")
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info().Int("removed", removed).Msg("Swept leftover browser profiles")
	}
	return removed
}
