package browser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whatsapp-notifier/config"
)

func newTestLocator(env map[string]string, wellKnown []string) *Locator {
	return &Locator{
		getenv:     func(k string) string { return env[k] },
		stat:       os.Stat,
		lookPath:   func(string) (string, error) { return "", errors.New("not in PATH") },
		glob:       func(string) ([]string, error) { return nil, nil },
		wellKnown:  wellKnown,
		pathNames:  PathNames,
		nixPattern: NixStorePattern,
		logger:     zap.NewNop().Sugar(),
	}
}

func makeExec(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755))
	return p
}

func TestLocate_EnvOverrideWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	puppeteer := makeExec(t, dir, "puppeteer-chrome")
	chromeBin := makeExec(t, dir, "chrome-bin")
	known := makeExec(t, dir, "usr/bin/chromium")

	l := newTestLocator(map[string]string{
		"PUPPETEER_EXECUTABLE_PATH": puppeteer,
		"CHROME_BIN":                chromeBin,
	}, []string{known})

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, puppeteer, loc.Path)
	require.Equal(t, SourceEnv, loc.Source)
	require.Equal(t, "PUPPETEER_EXECUTABLE_PATH", loc.Detail)
}

func TestLocate_SecondEnvOverrideWhenFirstMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chromeBin := makeExec(t, dir, "chrome-bin")

	l := newTestLocator(map[string]string{
		"PUPPETEER_EXECUTABLE_PATH": filepath.Join(dir, "missing"),
		"CHROME_BIN":                chromeBin,
	}, nil)

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, chromeBin, loc.Path)
	require.Equal(t, "CHROME_BIN", loc.Detail)
}

func TestLocate_WellKnownInDeclaredOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	second := makeExec(t, dir, "b/chromium")
	third := makeExec(t, dir, "c/chromium")

	l := newTestLocator(nil, []string{filepath.Join(dir, "a/chromium"), second, third})

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, second, loc.Path)
	require.Equal(t, SourceWellKnown, loc.Source)
}

func TestLocate_SkipsDirectoriesAndNonExecutables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	asDir := filepath.Join(dir, "dir-chromium")
	require.NoError(t, os.MkdirAll(asDir, 0o755))
	plain := filepath.Join(dir, "plain-chromium")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))
	good := makeExec(t, dir, "good-chromium")

	l := newTestLocator(nil, []string{asDir, plain, good})

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, good, loc.Path)
}

func TestLocate_PathLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	onPath := makeExec(t, dir, "google-chrome")

	l := newTestLocator(nil, nil)
	l.lookPath = func(name string) (string, error) {
		if name == "google-chrome" {
			return onPath, nil
		}
		return "", errors.New("not found")
	}

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, onPath, loc.Path)
	require.Equal(t, SourcePath, loc.Source)
	require.Equal(t, "google-chrome", loc.Detail)
}

func TestLocate_NixStoreFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	storeBin := makeExec(t, dir, "nix/store/abc-chromium-120.0/bin/chromium")

	l := newTestLocator(nil, nil)
	var gotPattern string
	l.glob = func(pattern string) ([]string, error) {
		gotPattern = pattern
		return []string{filepath.Join(dir, "nix/store/zzz-chromium-1/bin/chromium"), storeBin}, nil
	}

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, NixStorePattern, gotPattern)
	require.Equal(t, storeBin, loc.Path)
	require.Equal(t, SourceNixStore, loc.Source)
}

func TestLocate_NotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := newTestLocator(map[string]string{"CHROME_BIN": filepath.Join(dir, "nope")}, []string{filepath.Join(dir, "missing")})
	l.glob = func(string) ([]string, error) { return nil, errors.New("bad pattern") }

	loc, ok := l.Locate()
	require.False(t, ok)
	require.Equal(t, Location{}, loc)
}

func TestNewLocator_ConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	bin := makeExec(t, dir, "configured-chrome")
	t.Setenv("PUPPETEER_EXECUTABLE_PATH", "")
	t.Setenv("CHROME_BIN", "")

	cfg := &config.Config{}
	cfg.Chrome.ChromeBin = bin

	l := NewLocator(cfg, zap.NewNop().Sugar())
	l.wellKnown = nil

	loc, ok := l.Locate()
	require.True(t, ok)
	require.Equal(t, bin, loc.Path)
	require.Equal(t, "CHROME_BIN", loc.Detail)
}
