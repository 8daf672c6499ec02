package engine

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/models"
	"github.com/ternarybob/arbor"
)

// InteractiveEngine opens a visible browser and waits for the user to
// log in manually. No credentials are stored or transmitted by the
// service. Preferred when a display is available because it works with
// accounts that have two-factor auth or captcha challenges.
type InteractiveEngine struct {
	config *common.EngineConfig
	logger arbor.ILogger
}

// NewInteractiveEngine creates the manual-login engine
func NewInteractiveEngine(config *common.EngineConfig, logger arbor.ILogger) interfaces.Engine {
	return &InteractiveEngine{config: config, logger: logger}
}

func (e *InteractiveEngine) ID() string {
	return EngineInteractive
}

// Available reports whether a visible browser window can be shown.
// Requires the allow_interactive config flag and, on Linux, a display.
func (e *InteractiveEngine) Available() bool {
	if !e.config.AllowInteractive {
		return false
	}
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return false
	}
	return true
}

func (e *InteractiveEngine) Post(ctx context.Context, req *models.PostRequest, fn interfaces.ProgressFunc) (*models.PostResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.config.AttemptTimeout)
	defer cancel()

	fn(5, "launching browser")
	session, err := newBrowserSession(attemptCtx, e.config, false, e.logger)
	if err != nil {
		return nil, NewEngineError(EngineInteractive, "launch", err)
	}
	defer session.Close()

	fn(15, "waiting for manual login")
	if err := e.waitForLogin(session.ctx); err != nil {
		return nil, NewEngineError(EngineInteractive, "login", err)
	}
	fn(25, "logged in")

	workflow := newPostWorkflow(session, e.config, e.logger)
	return workflow.Run(session.ctx, req, EngineInteractive, fn)
}

// waitForLogin opens the login page and polls until the browser has
// navigated away from it, which indicates the user completed login.
func (e *InteractiveEngine) waitForLogin(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, e.config.ElementTimeout)
	if err := chromedp.Run(navCtx, chromedp.Navigate(loginURL)); err != nil {
		cancel()
		return fmt.Errorf("failed to open login page: %w", err)
	}
	cancel()

	e.logger.Info().
		Dur("timeout", e.config.LoginTimeout).
		Msg("Waiting for manual login in browser window")

	deadline := time.Now().Add(e.config.LoginTimeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var currentURL string
			if err := chromedp.Run(ctx, chromedp.Location(&currentURL)); err != nil {
				return fmt.Errorf("failed to read browser location: %w", err)
			}
			if !strings.Contains(currentURL, "nid.naver.com") {
				e.logger.Info().Msg("Manual login completed")
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("login not completed within %s", e.config.LoginTimeout)
			}
		}
	}
}
