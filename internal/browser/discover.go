package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const execEnvVar = "CITESCRAPE_CHROME_PATH"

// chromiumEnvVar is a second executable override, checked after execEnvVar.
const chromiumEnvVar = "CHROMIUM_PATH"

// candidatePaths are common Chrome/Chromium install locations by platform,
// checked in order after the environment-variable override.
func candidatePaths() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			os.ExpandEnv(`%LOCALAPPDATA%\Google\Chrome\Application\chrome.exe`),
			`C:\Program Files\Chromium\Application\chrome.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Beta.app/Contents/MacOS/Google Chrome Beta",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"),
			"/opt/homebrew/bin/chromium",
		}
	default:
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
			"/usr/local/bin/chromium",
			"/opt/google/chrome/chrome",
		}
	}
}

var lookupNames = []string{"chromium", "chromium-browser", "google-chrome", "chrome"}

// FindExecutable locates a Chrome/Chromium binary: an explicit env override
// first (CITESCRAPE_CHROME_PATH, then CHROMIUM_PATH), then common per-platform
// install paths, then a PATH lookup. It never downloads anything itself — see
// ErrNotFound's doc comment for why.
func FindExecutable() (string, error) {
	for _, env := range []string{execEnvVar, chromiumEnvVar} {
		if p := os.Getenv(env); p != "" && fileExists(p) {
			return p, nil
		}
	}

	for _, p := range candidatePaths() {
		if fileExists(p) {
			return p, nil
		}
	}

	for _, name := range lookupNames {
		if p, err := exec.LookPath(name); err == nil && strings.TrimSpace(p) != "" {
			return p, nil
		}
	}

	return "", ErrNotFound
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
