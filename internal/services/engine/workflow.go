package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/navely/scribe/internal/common"
	"github.com/navely/scribe/internal/interfaces"
	"github.com/navely/scribe/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	loginURL  = "https://nid.naver.com/nidlogin.login"
	editorURL = "https://blog.naver.com/GoBlogWrite.naver"

	selMainFrame  = "#mainFrame"
	selTitle      = ".se-input"
	selContent    = ".se-content"
	selPublishBtn = ".publish_btn"
)

// postWorkflow drives the blog editor after login: open the editor,
// enter title and content inside the editor iframe, and publish.
// Shared by both engines; only the login step differs between them.
type postWorkflow struct {
	session *browserSession
	config  *common.EngineConfig
	logger  arbor.ILogger
}

func newPostWorkflow(session *browserSession, config *common.EngineConfig, logger arbor.ILogger) *postWorkflow {
	return &postWorkflow{session: session, config: config, logger: logger}
}

// Run executes the editor workflow and returns the publish result.
func (w *postWorkflow) Run(ctx context.Context, req *models.PostRequest, engineID string, fn interfaces.ProgressFunc) (*models.PostResult, error) {
	fn(40, "opening blog editor")

	if err := w.openEditor(ctx); err != nil {
		return nil, NewEngineError(engineID, "editor", err)
	}

	frame, err := w.editorFrame(ctx)
	if err != nil {
		return nil, NewEngineError(engineID, "editor", err)
	}

	fn(50, "entering title")
	if err := w.typeInto(ctx, frame, selTitle, req.Title); err != nil {
		return nil, NewEngineError(engineID, "title", err)
	}

	fn(70, "entering content")
	content := req.Content
	if len(req.Tags) > 0 {
		content += "\n\n" + formatTags(req.Tags)
	}
	if err := w.typeInto(ctx, frame, selContent, content); err != nil {
		return nil, NewEngineError(engineID, "content", err)
	}

	fn(90, "publishing")
	postURL, err := w.publish(ctx, frame)
	if err != nil {
		return nil, NewEngineError(engineID, "publish", err)
	}

	fn(100, "published")

	return &models.PostResult{
		Success:       true,
		Message:       fmt.Sprintf("Post published for account %s", req.Account.ID),
		Title:         req.Title,
		Category:      req.Category,
		ContentLength: len(req.Content),
		PostURL:       postURL,
		PostedAt:      time.Now(),
		Engine:        engineID,
	}, nil
}

func (w *postWorkflow) openEditor(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, w.config.ElementTimeout)
	defer cancel()

	return chromedp.Run(navCtx,
		chromedp.Navigate(editorURL),
		chromedp.WaitVisible(selMainFrame, chromedp.ByID),
	)
}

// editorFrame resolves the editor iframe node. The blog editor lives
// inside #mainFrame and all element lookups must target that frame.
func (w *postWorkflow) editorFrame(ctx context.Context) (*cdp.Node, error) {
	frameCtx, cancel := context.WithTimeout(ctx, w.config.ElementTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(frameCtx,
		chromedp.Nodes(selMainFrame, &nodes, chromedp.ByID),
	); err != nil {
		return nil, fmt.Errorf("editor frame not found: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("editor frame not found")
	}
	return nodes[0], nil
}

// typeInto clicks the target element inside the editor frame and
// types the text one rune at a time. Pacing keeps keystroke timing
// close to human input so the editor's change handlers keep up.
func (w *postWorkflow) typeInto(ctx context.Context, frame *cdp.Node, selector, text string) error {
	elemCtx, cancel := context.WithTimeout(ctx, w.config.ElementTimeout)
	defer cancel()

	if err := chromedp.Run(elemCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery, chromedp.FromNode(frame)),
		chromedp.Click(selector, chromedp.ByQuery, chromedp.FromNode(frame)),
	); err != nil {
		return fmt.Errorf("element %s not interactable: %w", selector, err)
	}

	limiter := rate.NewLimiter(rate.Every(w.config.TypingDelay), 1)
	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := chromedp.Run(ctx,
			chromedp.SendKeys(selector, string(r), chromedp.ByQuery, chromedp.FromNode(frame)),
		); err != nil {
			return fmt.Errorf("failed to type into %s: %w", selector, err)
		}
	}
	return nil
}

// publish clicks the publish button and extracts the published post
// URL from the resulting page.
func (w *postWorkflow) publish(ctx context.Context, frame *cdp.Node) (string, error) {
	pubCtx, cancel := context.WithTimeout(ctx, w.config.ElementTimeout)
	defer cancel()

	if err := chromedp.Run(pubCtx,
		chromedp.WaitVisible(selPublishBtn, chromedp.ByQuery, chromedp.FromNode(frame)),
		chromedp.Click(selPublishBtn, chromedp.ByQuery, chromedp.FromNode(frame)),
	); err != nil {
		return "", fmt.Errorf("publish button: %w", err)
	}

	// Some editor variants show a confirmation dialog. Clicking it is
	// best effort; absence is not an error.
	confirmCtx, cancelConfirm := context.WithTimeout(ctx, 3*time.Second)
	if err := chromedp.Run(confirmCtx,
		chromedp.Click(`//button[contains(text(), '발행')]`, chromedp.BySearch, chromedp.FromNode(frame)),
	); err != nil {
		w.logger.Debug().Msg("No publish confirmation dialog")
	}
	cancelConfirm()

	// Give the editor time to submit and redirect to the post page.
	var html, currentURL string
	waitCtx, cancelWait := context.WithTimeout(ctx, w.config.ElementTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx,
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&currentURL),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		// The post may still have gone out; report without a URL.
		w.logger.Warn().Err(err).Msg("Could not read page after publish")
		return "", nil
	}

	if url := extractPostURL(html); url != "" {
		return url, nil
	}
	if strings.Contains(currentURL, "blog.naver.com") && !strings.Contains(currentURL, "GoBlogWrite") {
		return currentURL, nil
	}
	return "", nil
}

// extractPostURL looks for a canonical post link in the page HTML.
func extractPostURL(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && href != "" {
		return href
	}

	if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok && content != "" {
		return content
	}

	return ""
}

func formatTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			t = "#" + t
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}
