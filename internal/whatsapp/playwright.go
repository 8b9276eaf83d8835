package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/pkg/chromedevtools"
)

const (
	selectorQR          = "div[data-ref]"
	selectorChats       = "#pane-side"
	selectorCompose     = `footer div[contenteditable="true"]`
	selectorInvalidChat = `div[data-animate-modal-popup="true"]`
	selectorPending     = `span[data-icon="msg-time"]`
)

var ErrInvalidRecipient = errors.New("phone number is not registered on whatsapp")

// PlaywrightClient drives WhatsApp Web in a Chromium profile kept in the
// session directory.
type PlaywrightClient struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	mu      sync.Mutex // guards the fields below and every page call
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
}

func NewPlaywrightClient(cfg *config.Config, logger *zap.SugaredLogger) *PlaywrightClient {
	return &PlaywrightClient{cfg: cfg, logger: logger}
}

func (c *PlaywrightClient) Run(ctx context.Context, opts RunOptions, emit func(Event)) error {
	if err := c.launch(ctx, opts); err != nil {
		emit(Event{Kind: EventDisconnected, Payload: err.Error()})
		return err
	}

	interval := c.cfg.WhatsApp.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	det := newDetector(c.cfg.WhatsApp.ReadyTimeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := c.probe()
		if err != nil {
			if c.pageClosed() {
				emit(Event{Kind: EventDisconnected, Payload: "browser closed"})
				return fmt.Errorf("whatsapp page closed: %w", err)
			}
			c.logger.Warnw("whatsapp_probe_failed", "err", err)
		} else {
			for _, ev := range det.observe(snap, time.Now()) {
				emit(ev)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *PlaywrightClient) launch(ctx context.Context, opts RunOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	runOpts := &playwright.RunOptions{
		Browsers:            []string{"chromium"},
		SkipInstallBrowsers: opts.ExecutablePath != "" || c.cdpEnabled(),
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	c.pw = pw

	if c.cdpEnabled() {
		err = c.connectCDP(ctx)
	} else {
		err = c.launchPersistent(opts)
	}
	if err != nil {
		_ = pw.Stop()
		c.pw = nil
		return err
	}

	page, err := c.firstPage()
	if err != nil {
		c.closeLocked()
		return err
	}
	page.SetDefaultTimeout(float64(c.sendTimeout().Milliseconds()))

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := page.Goto(c.cfg.WhatsApp.URL, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		c.closeLocked()
		return fmt.Errorf("open %s: %w", c.cfg.WhatsApp.URL, err)
	}
	c.page = page

	c.logger.Infow("whatsapp_browser_started",
		"url", c.cfg.WhatsApp.URL,
		"session_dir", c.cfg.Session.Dir,
		"executable", opts.ExecutablePath,
		"cdp", c.cdpEnabled(),
	)
	return nil
}

func (c *PlaywrightClient) cdpEnabled() bool {
	return strings.TrimSpace(c.cfg.Chrome.DebugPort) != ""
}

func (c *PlaywrightClient) connectCDP(ctx context.Context) error {
	versionURL, host := chromedevtools.VersionURLResolved(ctx, c.cfg.Chrome.DebugHost, c.cfg.Chrome.DebugPort)
	if _, err := chromedevtools.CheckReachable(ctx, versionURL, 3*time.Second); err != nil {
		return fmt.Errorf("chrome devtools not reachable at %s: %w", versionURL, err)
	}

	endpoint := fmt.Sprintf("http://%s:%s", host, strings.TrimSpace(c.cfg.Chrome.DebugPort))
	b, err := c.pw.Chromium.ConnectOverCDP(endpoint)
	if err != nil {
		return fmt.Errorf("connect over cdp %s: %w", endpoint, err)
	}
	c.browser = b

	if contexts := b.Contexts(); len(contexts) > 0 {
		c.bctx = contexts[0]
		return nil
	}
	bctx, err := b.NewContext()
	if err != nil {
		return fmt.Errorf("new browser context: %w", err)
	}
	c.bctx = bctx
	return nil
}

func (c *PlaywrightClient) launchPersistent(opts RunOptions) error {
	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(c.cfg.Chrome.Headless),
		Args:     []string{"--no-sandbox", "--disable-setuid-sandbox"},
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	bctx, err := c.pw.Chromium.LaunchPersistentContext(c.cfg.Session.Dir, launchOpts)
	if err != nil {
		return fmt.Errorf("launch chromium with profile %s: %w", c.cfg.Session.Dir, err)
	}
	c.bctx = bctx
	return nil
}

func (c *PlaywrightClient) firstPage() (playwright.Page, error) {
	if pages := c.bctx.Pages(); len(pages) > 0 {
		return pages[0], nil
	}
	page, err := c.bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return page, nil
}

func (c *PlaywrightClient) probe() (snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page == nil {
		return snapshot{}, ErrNotReady
	}

	var snap snapshot
	qr, err := c.page.QuerySelector(selectorQR)
	if err != nil {
		return snapshot{}, fmt.Errorf("query qr: %w", err)
	}
	if qr != nil {
		ref, err := qr.GetAttribute("data-ref")
		if err != nil {
			return snapshot{}, fmt.Errorf("read qr payload: %w", err)
		}
		snap.QR = ref
	}

	chats, err := c.page.QuerySelector(selectorChats)
	if err != nil {
		return snapshot{}, fmt.Errorf("query chat list: %w", err)
	}
	snap.Chats = chats != nil
	return snap, nil
}

func (c *PlaywrightClient) pageClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page == nil || c.page.IsClosed()
}

// SendMessage opens the chat through the send deep link and submits text.
func (c *PlaywrightClient) SendMessage(ctx context.Context, chatID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page == nil {
		return ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.sendTimeout()
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	ms := float64(timeout.Milliseconds())

	link := sendLink(c.cfg.WhatsApp.URL, chatID, text)
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := c.page.Goto(link, playwright.PageGotoOptions{WaitUntil: &waitUntil, Timeout: &ms}); err != nil {
		return fmt.Errorf("open chat %s: %w", chatID, err)
	}

	if _, err := c.page.WaitForSelector(selectorCompose, playwright.PageWaitForSelectorOptions{Timeout: &ms}); err != nil {
		if popup, _ := c.page.QuerySelector(selectorInvalidChat); popup != nil {
			return fmt.Errorf("%w: %s", ErrInvalidRecipient, chatID)
		}
		return fmt.Errorf("wait for composer: %w", err)
	}

	if err := c.page.Keyboard().Press("Enter"); err != nil {
		return fmt.Errorf("submit message: %w", err)
	}

	detached := playwright.WaitForSelectorState("detached")
	if _, err := c.page.WaitForSelector(selectorPending, playwright.PageWaitForSelectorOptions{State: &detached, Timeout: &ms}); err != nil {
		c.logger.Warnw("whatsapp_send_unconfirmed", "chat_id", chatID, "err", err)
	}
	return nil
}

func (c *PlaywrightClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *PlaywrightClient) closeLocked() error {
	var errs []error
	// Over CDP the context belongs to the external Chrome; disconnecting the
	// browser is enough.
	if c.bctx != nil && c.browser == nil {
		if err := c.bctx.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.browser != nil {
		if err := c.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	c.page, c.bctx, c.browser, c.pw = nil, nil, nil, nil
	return errors.Join(errs...)
}

func (c *PlaywrightClient) sendTimeout() time.Duration {
	if c.cfg.Outbox.SendTimeout > 0 {
		return c.cfg.Outbox.SendTimeout
	}
	return 60 * time.Second
}

// sendLink builds the WhatsApp Web deep link that opens a chat with text
// prefilled. Only the number before "@" is used.
func sendLink(base, chatID, text string) string {
	phone := chatID
	if i := strings.Index(phone, "@"); i >= 0 {
		phone = phone[:i]
	}
	q := url.Values{}
	q.Set("phone", phone)
	q.Set("text", text)
	return strings.TrimRight(base, "/") + "/send?" + q.Encode()
}

var _ Client = (*PlaywrightClient)(nil)
