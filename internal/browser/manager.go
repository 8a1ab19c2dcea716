package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthFlags are the Chrome launch arguments that make the automated
// browser look and behave like a normal user install, ported from
// browser_setup.rs's BrowserConfigBuilder argument list.
var stealthFlags = []string{
	"disable-blink-features=AutomationControlled",
	"disable-infobars",
	"disable-notifications",
	"disable-print-preview",
	"disable-desktop-notifications",
	"disable-software-rasterizer",
	"disable-web-security",
	"disable-features=IsolateOrigins,site-per-process,TranslateUI",
	"disable-setuid-sandbox",
	"no-first-run",
	"no-default-browser-check",
	"no-sandbox",
	"ignore-certificate-errors",
	"enable-features=NetworkService,NetworkServiceInProcess",
	"disable-extensions",
	"disable-popup-blocking",
	"disable-background-networking",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-breakpad",
	"disable-component-extensions-with-background-pages",
	"disable-hang-monitor",
	"disable-ipc-flooding-protection",
	"disable-prompt-on-repost",
	"metrics-recording-only",
	"password-store=basic",
	"use-mock-keychain",
	"hide-scrollbars",
	"mute-audio",
}

// Config controls how Manager launches and supervises the browser.
type Config struct {
	UserAgent      string
	Headless       bool
	LaunchTimeout  time.Duration
	HealthInterval time.Duration
	Logger         *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = 30 * time.Second
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns a single lazily-launched Chrome instance and relaunches it
// transparently when a health check fails. It is safe for concurrent use.
type Manager struct {
	cfg Config

	mu            sync.Mutex
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	profileDir    string
	lastHealth    time.Time
	cfgProfile    grokConfig
}

// NewManager creates a Manager. The browser is not launched until the first
// call to Obtain.
func NewManager(cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{cfg: cfg}
}

// Obtain returns a context bound to a live, health-checked browser tab,
// launching or relaunching the underlying Chrome process as needed.
func (m *Manager) Obtain(ctx context.Context) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browserCtx != nil && time.Since(m.lastHealth) < m.cfg.HealthInterval {
		return m.browserCtx, nil
	}

	if m.browserCtx != nil {
		if m.healthy(ctx) {
			m.lastHealth = time.Now()
			return m.browserCtx, nil
		}
		m.cfg.Logger.Warn("browser: health check failed, relaunching")
		m.teardown()
	}

	if err := m.launch(ctx); err != nil {
		return nil, err
	}
	m.lastHealth = time.Now()
	return m.browserCtx, nil
}

func (m *Manager) healthy(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(m.browserCtx, 5*time.Second)
	defer cancel()
	err := chromedp.Run(checkCtx, chromedp.ActionFunc(func(execCtx context.Context) error {
		_, _, _, _, _, err := browser.GetVersion().Do(execCtx)
		return err
	}))
	return err == nil
}

func (m *Manager) launch(ctx context.Context) error {
	execPath, err := FindExecutable()
	if err != nil {
		return err
	}

	profileDir, err := os.MkdirTemp("", "citescrape-chrome-"+strconv.Itoa(os.Getpid())+"-")
	if err != nil {
		return fmt.Errorf("browser: create profile dir: %w", err)
	}

	gc, err := newGrokConfig(m.cfg.UserAgent)
	if err != nil {
		os.RemoveAll(profileDir)
		return err
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.ExecPath(execPath),
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.WindowSize(gc.ScreenWidth, gc.ScreenHeight),
		chromedp.UserAgent(gc.UserAgent),
	)
	for _, f := range stealthFlags {
		name, value, hasValue := strings.Cut(f, "=")
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	launchCtx, launchCancel := context.WithTimeout(browserCtx, m.cfg.LaunchTimeout)
	defer launchCancel()
	script := buildEvasionScript(gc)
	if err := chromedp.Run(launchCtx, chromedp.ActionFunc(func(execCtx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(execCtx)
		return err
	})); err != nil {
		browserCancel()
		allocCancel()
		os.RemoveAll(profileDir)
		return fmt.Errorf("browser: launch: %w", err)
	}

	m.allocCtx, m.allocCancel = allocCtx, allocCancel
	m.browserCtx, m.browserCancel = browserCtx, browserCancel
	m.profileDir = profileDir
	m.cfgProfile = gc
	m.cfg.Logger.Info("browser: launched", "exec", execPath, "profile_dir", profileDir)
	return nil
}

// buildEvasionScript concatenates every registered evasion script, in
// dependency order, into a single document-start injection.
func buildEvasionScript(gc grokConfig) string {
	var b strings.Builder
	for _, s := range evasionScripts {
		b.WriteString(s.js(gc))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Manager) teardown() {
	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	if m.profileDir != "" {
		os.RemoveAll(m.profileDir)
	}
	m.browserCtx, m.browserCancel = nil, nil
	m.allocCtx, m.allocCancel = nil, nil
	m.profileDir = ""
}

// Shutdown terminates the browser process and removes its profile directory.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardown()
}

// ProfileDir returns the current browser profile directory, or "" if the
// browser has not been launched yet.
func (m *Manager) ProfileDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileDir
}
