package chart

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"chartabot/internal/metrics"
	"chartabot/internal/model"

	"github.com/chromedp/chromedp"
)

// Engine renders chart documents to PNG through a shared headless browser.
// The browser process is started lazily on first render and reused until
// Shutdown; each render gets its own tab.
type Engine struct {
	width   int
	height  int
	timeout time.Duration

	mu          sync.Mutex
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	down        bool
}

func NewEngine(width, height int, timeout time.Duration) *Engine {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Engine{width: width, height: height, timeout: timeout}
}

// ensureBrowser starts the shared browser process if it is not running yet.
// Startup costs seconds; renders reuse the handle.
func (e *Engine) ensureBrowser() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.down {
		return nil, fmt.Errorf("render engine is shut down")
	}
	if e.browserCtx != nil {
		return e.browserCtx, nil
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.WindowSize(e.width, e.height),
		)...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("start headless browser: %w", err)
	}
	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserStop = browserStop
	return e.browserCtx, nil
}

// Render produces a PNG for the given data and display configuration.
func (e *Engine) Render(ctx context.Context, data model.ChartData, cfg model.DisplayConfig) ([]byte, error) {
	html, err := HTML(data, cfg, e.width, e.height)
	if err != nil {
		return nil, err
	}
	browser, err := e.ensureBrowser()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	// fresh tab per render; the shared browser stays up
	tab, closeTab := chromedp.NewContext(browser)
	defer closeTab()
	tab, cancel := context.WithTimeout(tab, e.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
	var png []byte
	err = chromedp.Run(tab,
		chromedp.EmulateViewport(int64(e.width), int64(e.height)),
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("canvas", chromedp.ByQuery),
		chromedp.Sleep(300*time.Millisecond), // let echarts settle
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("headless render: %w", err)
	}
	metrics.ObserveRenderDuration(start)
	return png, nil
}

// Shutdown releases the shared browser process. Idempotent.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.down {
		return
	}
	e.down = true
	if e.browserStop != nil {
		e.browserStop()
	}
	if e.allocCancel != nil {
		e.allocCancel()
	}
	e.browserCtx = nil
}
