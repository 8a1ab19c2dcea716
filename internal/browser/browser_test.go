package browser

import (
	"os"
	"strings"
	"testing"
)

func TestFindExecutableHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	fakeChrome := dir + "/chrome"
	if err := os.WriteFile(fakeChrome, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake chrome: %v", err)
	}

	t.Setenv(execEnvVar, fakeChrome)

	got, err := FindExecutable()
	if err != nil {
		t.Fatalf("FindExecutable returned error: %v", err)
	}
	if got != fakeChrome {
		t.Fatalf("expected %q, got %q", fakeChrome, got)
	}
}

func TestFindExecutableIgnoresMissingEnvOverride(t *testing.T) {
	t.Setenv(execEnvVar, "/no/such/binary/exists/here")

	_, err := FindExecutable()
	// With no env override honored (it points nowhere) and no real Chrome
	// installed in the test environment, the PATH/candidate search should
	// also fail, surfacing ErrNotFound rather than the bogus env path.
	if err == nil {
		t.Fatalf("expected an error when neither env override nor system Chrome exist")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if fileExists(dir) {
		t.Fatalf("fileExists should reject directories")
	}

	f := dir + "/binary"
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if !fileExists(f) {
		t.Fatalf("expected fileExists to find %q", f)
	}
	if fileExists(dir + "/missing") {
		t.Fatalf("fileExists should reject missing paths")
	}
}

func TestNewGrokConfigProducesDistinctSeeds(t *testing.T) {
	a, err := newGrokConfig("test-agent")
	if err != nil {
		t.Fatalf("newGrokConfig: %v", err)
	}
	b, err := newGrokConfig("test-agent")
	if err != nil {
		t.Fatalf("newGrokConfig: %v", err)
	}
	if a.SessionSeed == b.SessionSeed {
		t.Fatalf("expected distinct session seeds, got identical %q", a.SessionSeed)
	}
	if len(a.SessionSeed) != 32 {
		t.Fatalf("expected 32 hex chars (16 bytes), got %d: %q", len(a.SessionSeed), a.SessionSeed)
	}
	if a.UserAgent != "test-agent" {
		t.Fatalf("expected UserAgent to be threaded through, got %q", a.UserAgent)
	}
}

func TestBuildEvasionScriptIncludesUserAgent(t *testing.T) {
	gc, err := newGrokConfig("my-agent-string")
	if err != nil {
		t.Fatalf("newGrokConfig: %v", err)
	}
	script := buildEvasionScript(gc)
	if script == "" {
		t.Fatalf("expected non-empty evasion script")
	}
	if !strings.Contains(script, "my-agent-string") {
		t.Fatalf("expected evasion script to embed the user agent, got %q", script)
	}
	if !strings.Contains(script, "webdriver") {
		t.Fatalf("expected webdriver evasion to be present")
	}
}
