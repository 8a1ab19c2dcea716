package browser

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// grokConfig is the per-instance fingerprint the stealth scripts present to
// pages: a believable, internally consistent UA/platform/screen profile plus
// a random session seed so repeated crawls of the same site don't all
// present byte-identical fingerprints.
type grokConfig struct {
	UserAgent           string
	Platform            string
	Language            string
	ScreenWidth         int
	ScreenHeight        int
	HardwareConcurrency int
	SessionSeed         string
}

func newGrokConfig(userAgent string) (grokConfig, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return grokConfig{}, fmt.Errorf("browser: generate session seed: %w", err)
	}
	return grokConfig{
		UserAgent:           userAgent,
		Platform:            "Linux x86_64",
		Language:            "en-US",
		ScreenWidth:         1920,
		ScreenHeight:        1080,
		HardwareConcurrency: 8,
		SessionSeed:         hex.EncodeToString(seed),
	}, nil
}

// evasionScript is one document-start evasion, applied in dependency order:
// navigator overrides must land before plugin/WebGL mocks that read them.
type evasionScript struct {
	name string
	js   func(cfg grokConfig) string
}

// evasionScripts mirrors apply_stealth_measures's script list and ordering:
// webdriver flag, UA/language consistency, plugin mocks, a minimal
// window.chrome.runtime shim, and WebGL vendor/renderer spoofing.
var evasionScripts = []evasionScript{
	{
		name: "webdriver",
		js: func(grokConfig) string {
			return `Object.defineProperty(navigator, 'webdriver', { get: () => false });`
		},
	},
	{
		name: "user-agent",
		js: func(cfg grokConfig) string {
			return fmt.Sprintf(`Object.defineProperty(navigator, 'userAgent', { value: %q });`, cfg.UserAgent)
		},
	},
	{
		name: "languages",
		js: func(cfg grokConfig) string {
			return fmt.Sprintf(`Object.defineProperty(navigator, 'languages', { get: () => [%q, 'en'] });`, cfg.Language)
		},
	},
	{
		name: "platform",
		js: func(cfg grokConfig) string {
			return fmt.Sprintf(`Object.defineProperty(navigator, 'platform', { get: () => %q });`, cfg.Platform)
		},
	},
	{
		name: "hardware-concurrency",
		js: func(cfg grokConfig) string {
			return fmt.Sprintf(`Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });`, cfg.HardwareConcurrency)
		},
	},
	{
		name: "screen",
		js: func(cfg grokConfig) string {
			return fmt.Sprintf(`Object.defineProperty(screen, 'width', { get: () => %d });
Object.defineProperty(screen, 'height', { get: () => %d });`, cfg.ScreenWidth, cfg.ScreenHeight)
		},
	},
	{
		name: "plugins",
		js: func(grokConfig) string {
			return `(() => {
  const mockPlugins = [
    { name: 'Chrome PDF Plugin', description: 'Portable Document Format', filename: 'internal-pdf-viewer', mimeTypes: [{ type: 'application/pdf', description: 'Portable Document Format' }] },
    { name: 'Chrome PDF Viewer', description: '', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', mimeTypes: [{ type: 'application/pdf', description: 'Portable Document Format' }] },
    { name: 'Native Client', description: '', filename: 'internal-nacl-plugin', mimeTypes: [] },
  ];
  const proto = Object.getPrototypeOf(navigator.plugins);
  Object.defineProperty(navigator, 'plugins', {
    get: () => {
      const plugins = {};
      mockPlugins.forEach((plugin, i) => { plugins[i] = plugin; plugins[plugin.name] = plugin; });
      Object.setPrototypeOf(plugins, proto);
      Object.defineProperty(plugins, 'length', { value: mockPlugins.length });
      return plugins;
    },
  });
})();`
		},
	},
	{
		name: "chrome-runtime",
		js: func(grokConfig) string {
			return `if (!window.chrome) { window.chrome = {}; }
if (!window.chrome.runtime) {
  window.chrome.runtime = {
    connect: () => ({ onMessage: { addListener: () => {}, removeListener: () => {} }, postMessage: () => {} }),
  };
}`
		},
	},
	{
		name: "webgl-vendor",
		js: func(grokConfig) string {
			return `if (window.WebGLRenderingContext) {
  const getParameter = WebGLRenderingContext.prototype.getParameter;
  WebGLRenderingContext.prototype.getParameter = new Proxy(getParameter, {
    apply(target, ctx, args) {
      const param = (args && args[0]) || null;
      if (param === 37445) return 'Intel Inc.';
      if (param === 37446) return 'Intel Iris OpenGL Engine';
      return Reflect.apply(target, ctx, args);
    },
  });
}`
		},
	},
}
