package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	selLoginID     = "#id"
	selLoginPw     = "#pw"
	selLoginButton = "#log\\.login"
)

// CredentialedEngine logs in headlessly with the account password
// from the request. Used as the fallback when no display is available
// or the interactive engine failed.
type CredentialedEngine struct {
	config *common.EngineConfig
	logger arbor.ILogger
}

// NewCredentialedEngine creates the headless password-login engine
func NewCredentialedEngine(config *common.EngineConfig, logger arbor.ILogger) interfaces.Engine {
	return &CredentialedEngine{config: config, logger: logger}
}

func (e *CredentialedEngine) ID() string {
	return EngineCredentialed
}

// Available is always true; the password requirement is checked per
// request since it is part of the payload, not the environment.
func (e *CredentialedEngine) Available() bool {
	return true
}

func (e *CredentialedEngine) Post(ctx context.Context, req *models.PostRequest, fn interfaces.ProgressFunc) (*models.PostResult, error) {
	// Fail before launching a browser when the request cannot succeed.
	if req.Account.Password == "" {
		return nil, NewEngineError(EngineCredentialed, "login",
			fmt.Errorf("account %s has no password for credentialed login", req.Account.ID))
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.config.AttemptTimeout)
	defer cancel()

	fn(5, "launching browser")
	session, err := newBrowserSession(attemptCtx, e.config, true, e.logger)
	if err != nil {
		return nil, NewEngineError(EngineCredentialed, "launch", err)
	}
	defer session.Close()

	fn(15, "logging in")
	if err := e.login(session.ctx, req.Account); err != nil {
		return nil, NewEngineError(EngineCredentialed, "login", err)
	}
	fn(25, "logged in")

	workflow := newPostWorkflow(session, e.config, e.logger)
	return workflow.Run(session.ctx, req, EngineCredentialed, fn)
}

// login fills the login form with paced keystrokes and submits it.
// Typing character by character avoids the login page's paste guard.
func (e *CredentialedEngine) login(ctx context.Context, account models.Account) error {
	navCtx, cancel := context.WithTimeout(ctx, e.config.ElementTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(selLoginID, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("login page: %w", err)
	}

	if err := e.typeField(ctx, selLoginID, account.ID); err != nil {
		return fmt.Errorf("id field: %w", err)
	}
	if err := e.typeField(ctx, selLoginPw, account.Password); err != nil {
		return fmt.Errorf("password field: %w", err)
	}

	clickCtx, cancelClick := context.WithTimeout(ctx, e.config.ElementTimeout)
	defer cancelClick()
	if err := chromedp.Run(clickCtx,
		chromedp.Click(selLoginButton, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("login submit: %w", err)
	}

	var currentURL string
	if err := chromedp.Run(ctx, chromedp.Location(&currentURL)); err != nil {
		return fmt.Errorf("failed to read browser location: %w", err)
	}
	if strings.Contains(currentURL, "nid.naver.com") {
		return fmt.Errorf("login rejected for account %s", account.ID)
	}

	e.logger.Debug().Str("account", account.ID).Msg("Credentialed login completed")
	return nil
}

func (e *CredentialedEngine) typeField(ctx context.Context, selector, text string) error {
	clickCtx, cancel := context.WithTimeout(ctx, e.config.ElementTimeout)
	defer cancel()
	if err := chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Every(e.config.TypingDelay), 1)
	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := chromedp.Run(ctx, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
	}
	return nil
}
