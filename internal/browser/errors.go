package browser

import "errors"

// ErrNotFound is returned by FindExecutable when no Chrome/Chromium binary
// turns up anywhere searched. Unlike the original, which falls back to
// downloading a managed browser via chromiumoxide's bundled fetcher, nothing
// in this pack provides an equivalent fetch-and-cache-a-browser library (
// chromedp deliberately doesn't bundle one), so the fallback here is a clear
// actionable error rather than a best-effort network download of a
// guessed-at release URL.
var ErrNotFound = errors.New("browser: no Chrome/Chromium executable found; set " + execEnvVar + " or install Chrome/Chromium")
