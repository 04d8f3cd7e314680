// plugin_test.go: host event handling end to end
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pluginFixture struct {
	plugin   *Plugin
	registry *Registry
	console  *bytes.Buffer
	log      *bytes.Buffer
	logger   *TestLogger
	calls    *callLog
}

func newPluginFixture(t *testing.T) *pluginFixture {
	t.Helper()
	t.Setenv(EnvLogPath, "")

	f := &pluginFixture{
		registry: NewRegistry(nil),
		console:  &bytes.Buffer{},
		log:      &bytes.Buffer{},
		logger:   NewTestLogger(),
		calls:    &callLog{},
	}
	f.plugin = New(f.registry,
		WithConsole(f.console),
		WithLogWriter(f.log),
		WithLogger(f.logger))
	return f
}

func (f *pluginFixture) activate(t *testing.T, composer Composer) {
	t.Helper()
	require.NoError(t, f.plugin.Activate(composer))
}

func TestPlugin_RequiresActivation(t *testing.T) {
	p := New(NewRegistry(nil))

	err := p.OnEvent(context.Background(), Event{Name: EventPostInstallCmd})
	assert.True(t, hasCode(err, ErrCodeNotActivated))
	assert.Equal(t, Summary{}, p.OnRunComplete(context.Background()))
	assert.Nil(t, p.State())
	assert.NoError(t, p.Close())
}

func TestPlugin_ActivateRejectsNilComposer(t *testing.T) {
	f := newPluginFixture(t)
	assert.True(t, hasCode(f.plugin.Activate(nil), ErrCodeConfigValidationError))
}

func TestPlugin_UnknownEvent(t *testing.T) {
	f := newPluginFixture(t)
	f.activate(t, newTestComposer(nil))

	err := f.plugin.OnEvent(context.Background(), Event{Name: "post-autoload-dump"})
	assert.True(t, hasCode(err, ErrCodeUnknownEvent))
	assert.Empty(t, f.console.String())
}

func TestPlugin_PackageWithoutDeclarationIsSilent(t *testing.T) {
	f := newPluginFixture(t)
	f.activate(t, newTestComposer(nil))

	pkg := NewPackage("acme/plain", map[string]any{"branch-alias": map[string]any{}})
	require.NoError(t, f.plugin.OnEvent(context.Background(), Event{Name: EventPostPackageInstall, Package: pkg}))

	assert.Empty(t, f.console.String())
	assert.Empty(t, f.log.String())
	assert.Empty(t, f.calls.list())
}

func TestPlugin_MalformedDeclarationIsSkippedWithWarning(t *testing.T) {
	f := newPluginFixture(t)
	f.activate(t, newTestComposer(nil))

	pkg := NewPackage("acme/odd", map[string]any{KeyHandlers: "Acme\\Single"})
	require.NoError(t, f.plugin.OnEvent(context.Background(), Event{Name: EventPostPackageUpdate, Package: pkg}))

	assert.Empty(t, f.console.String())
	assert.True(t, f.logger.HasMessage("WARN", "Ignoring malformed handler declaration"))
}

func TestPlugin_PackageEventsRouteToMethods(t *testing.T) {
	tests := []struct {
		event  string
		method LifecycleMethod
	}{
		{EventPostPackageInstall, MethodInstall},
		{EventPostPackageUpdate, MethodUpdate},
		{EventPrePackageUninstall, MethodUninstall},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			f := newPluginFixture(t)
			require.NoError(t, f.registry.Register("Acme\\H", scripted(f.calls, nil)))
			f.activate(t, newTestComposer(nil))

			pkg := declaring("acme/lib", "Acme\\H")
			require.NoError(t, f.plugin.OnEvent(context.Background(), Event{Name: tt.event, Package: pkg}))

			assert.Equal(t, []string{"Acme\\H:" + tt.method.String()}, f.calls.list())
			want := fmt.Sprintf("\nRunning %s procedures for package 'acme/lib':\n\n   %-60sOK\n", tt.method, "Acme\\H")
			assert.Equal(t, want, f.console.String())
		})
	}
}

func TestPlugin_PackageEventWithoutPackage(t *testing.T) {
	f := newPluginFixture(t)
	f.activate(t, newTestComposer(nil))

	err := f.plugin.OnEvent(context.Background(), Event{Name: EventPostPackageInstall})
	assert.True(t, hasCode(err, ErrCodeConfigValidationError))
}

func TestPlugin_RootPackageInstallUsesRootPackage(t *testing.T) {
	f := newPluginFixture(t)
	require.NoError(t, f.registry.Register("Acme\\Root", scripted(f.calls, nil)))
	f.activate(t, newTestComposer(declaring("acme/app", "Acme\\Root")))

	require.NoError(t, f.plugin.OnEvent(context.Background(), Event{Name: EventPostRootPackageInstall}))

	assert.Equal(t, []string{"Acme\\Root:install"}, f.calls.list())
	assert.Contains(t, f.console.String(), "Running install procedures for package 'acme/app'")
}

func TestPlugin_FinalizeRunsLocalPackagesThenDrains(t *testing.T) {
	f := newPluginFixture(t)
	step := succeedAfter(1)
	require.NoError(t, f.registry.Register("Acme\\Warm", func(c Composer) any {
		h := &scriptedHandler{
			BaseHandler: NewBaseHandler(c),
			log:         f.calls,
			behavior: map[LifecycleMethod]func(context.Context, *scriptedHandler) error{
				MethodFinalize: func(ctx context.Context, h *scriptedHandler) error {
					return h.Retry(ctx, "warm")
				},
			},
		}
		h.DefineStep("warm", step)
		return h
	}))
	require.NoError(t, f.registry.Register("Acme\\Ok", scripted(f.calls, nil)))

	composer := newTestComposer(nil,
		declaring("acme/cache", "Acme\\Warm"),
		NewPackage("acme/plain", nil),
		declaring("acme/util", "Acme\\Ok"))
	f.activate(t, composer)

	require.NoError(t, f.plugin.OnEvent(context.Background(), Event{Name: EventPostInstallCmd}))

	assert.Equal(t, []string{"Acme\\Warm:finalize", "Acme\\Ok:finalize", "Acme\\Warm:finalize"}, f.calls.list())
	want := "\nRunning finalize procedures for package 'acme/cache':\n\n" +
		fmt.Sprintf("   %-60sRetry\n", "Acme\\Warm") +
		"\nRunning finalize procedures for package 'acme/util':\n\n" +
		fmt.Sprintf("   %-60sOK\n", "Acme\\Ok") +
		"\nRunning method 'finalize' of previously failed procedures:\n\n" +
		fmt.Sprintf("   %-60sOK\n", "Acme\\Warm") +
		"\n"
	assert.Equal(t, want, f.console.String())

	summary := f.plugin.OnRunComplete(context.Background())
	assert.False(t, summary.Failed())
	assert.Empty(t, summary.Message)
	assert.Equal(t, want, f.console.String(), "nothing left to drain")
}

func TestPlugin_FinalizeUsesEventPackages(t *testing.T) {
	f := newPluginFixture(t)
	require.NoError(t, f.registry.Register("Acme\\Ok", scripted(f.calls, nil)))
	f.activate(t, newTestComposer(nil, declaring("acme/local", "Acme\\Ok")))

	event := Event{Name: EventPostUpdateCmd, Packages: []Package{declaring("acme/explicit", "Acme\\Ok", "Acme\\Ok")}}
	require.NoError(t, f.plugin.OnEvent(context.Background(), event))

	assert.Len(t, f.calls.list(), 2)
	assert.Contains(t, f.console.String(), "'acme/explicit'")
	assert.NotContains(t, f.console.String(), "'acme/local'")
}

func TestPlugin_ShortCommandEventsFinalize(t *testing.T) {
	for _, name := range []string{EventPostInstall, EventPostUpdate, EventPostCreateProject} {
		t.Run(name, func(t *testing.T) {
			f := newPluginFixture(t)
			require.NoError(t, f.registry.Register("Acme\\Ok", scripted(f.calls, nil)))
			f.activate(t, newTestComposer(nil, declaring("acme/local", "Acme\\Ok")))

			require.NoError(t, f.plugin.OnEvent(context.Background(), Event{Name: name}))

			assert.Equal(t, []string{"Acme\\Ok:finalize"}, f.calls.list())
			assert.Contains(t, f.console.String(), "Running finalize procedures for package 'acme/local'")

			method, err := MethodForEvent(name)
			require.NoError(t, err)
			assert.Equal(t, MethodFinalize, method)
		})
	}
}

func TestPlugin_FinalizeEventTwiceDoesNotReattempt(t *testing.T) {
	f := newPluginFixture(t)
	require.NoError(t, f.registry.Register("Acme\\Busy", scripted(f.calls, map[LifecycleMethod]func(context.Context, *scriptedHandler) error{
		MethodInstall: alwaysRetry,
	})))
	f.activate(t, newTestComposer(nil))

	ctx := context.Background()
	require.NoError(t, f.plugin.OnEvent(ctx, Event{Name: EventPostPackageInstall, Package: declaring("acme/a", "Acme\\Busy")}))
	require.NoError(t, f.plugin.OnEvent(ctx, Event{Name: EventPostInstallCmd}))
	require.NoError(t, f.plugin.OnEvent(ctx, Event{Name: EventPostCreateProjectCmd}))

	assert.Len(t, f.calls.list(), 2)
	assert.Equal(t, 1, f.plugin.State().Errors())
}

func TestPlugin_OnRunCompleteDrainsAndSummarizes(t *testing.T) {
	f := newPluginFixture(t)
	require.NoError(t, f.registry.Register("Acme\\Busy", scripted(f.calls, map[LifecycleMethod]func(context.Context, *scriptedHandler) error{
		MethodUpdate: alwaysRetry,
	})))
	f.activate(t, newTestComposer(nil))

	ctx := context.Background()
	pkg := declaring("acme/a", "Acme\\Busy", "Acme\\Missing")
	require.NoError(t, f.plugin.OnEvent(ctx, Event{Name: EventPostPackageUpdate, Package: pkg}))

	summary := f.plugin.OnRunComplete(ctx)

	assert.Equal(t, 2, summary.Errors)
	assert.True(t, summary.Failed())
	assert.Equal(t, DefaultLogPath, summary.LogPath)
	assert.Equal(t, f.plugin.State().ID, summary.RunID)
	assert.Equal(t, "2 procedure(s) failed. For more info check the log './composer-events.log'\n\n", summary.Message)
	assert.True(t, strings.HasSuffix(f.console.String(), summary.Message))
	assert.Len(t, f.calls.list(), 2)

	lines := strings.Split(strings.TrimSuffix(f.log.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `["Acme\\Busy"] still busy`)
	assert.Contains(t, lines[1], `["Acme\\Missing"] The class do not exists`)
	assert.Contains(t, lines[2], `["Acme\\Busy"] Installation still not works after retry: still busy`)

	before := f.console.Len()
	again := f.plugin.OnRunComplete(ctx)
	assert.Equal(t, summary, again)
	assert.Equal(t, before, f.console.Len(), "summary is written once")
}

func TestPlugin_ReactivationStartsFreshRun(t *testing.T) {
	f := newPluginFixture(t)
	f.activate(t, newTestComposer(nil))
	f.plugin.OnEvent(context.Background(), Event{Name: EventPostPackageInstall, Package: declaring("acme/a", "Acme\\Missing")})
	first := f.plugin.State()
	require.Equal(t, 1, first.Errors())

	f.activate(t, newTestComposer(nil))

	assert.NotEqual(t, first.ID, f.plugin.State().ID)
	assert.Equal(t, 0, f.plugin.State().Errors())
}

func TestPlugin_LogPathResolution(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		f := newPluginFixture(t)
		f.activate(t, newTestComposer(nil))
		assert.Equal(t, DefaultLogPath, f.plugin.Config().LogPath)
	})

	t.Run("RootPackageOverride", func(t *testing.T) {
		f := newPluginFixture(t)
		root := NewPackage("acme/app", map[string]any{KeyLogPath: "var/log/events.log"})
		f.activate(t, newTestComposer(root))
		assert.Equal(t, "var/log/events.log", f.plugin.Config().LogPath)
	})

	t.Run("EnvironmentWins", func(t *testing.T) {
		f := newPluginFixture(t)
		t.Setenv(EnvLogPath, "/tmp/override.log")
		root := NewPackage("acme/app", map[string]any{KeyLogPath: "var/log/events.log"})
		f.activate(t, newTestComposer(root))
		assert.Equal(t, "/tmp/override.log", f.plugin.Config().LogPath)
	})

	t.Run("ExpandsPlaceholders", func(t *testing.T) {
		f := newPluginFixture(t)
		t.Setenv("EVENTS_TEST_LOG_DIR", "/srv/logs")
		root := NewPackage("acme/app", map[string]any{KeyLogPath: "${EVENTS_TEST_LOG_DIR}/events.log"})
		f.activate(t, newTestComposer(root))
		assert.Equal(t, "/srv/logs/events.log", f.plugin.Config().LogPath)
	})

	t.Run("InvalidOverride", func(t *testing.T) {
		f := newPluginFixture(t)
		root := NewPackage("acme/app", map[string]any{KeyLogPath: "var/log/"})
		err := f.plugin.Activate(newTestComposer(root))
		assert.True(t, hasCode(err, ErrCodeConfigValidationError))
	})
}

func TestPlugin_WritesLogFileLazily(t *testing.T) {
	t.Setenv(EnvLogPath, "")
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "events.log")

	registry := NewRegistry(nil)
	require.NoError(t, registry.Register("Acme\\Ok", scripted(nil, nil)))
	p := New(registry, WithConsole(&bytes.Buffer{}), WithConfig(Config{LogPath: logPath}))
	require.NoError(t, p.Activate(newTestComposer(nil)))

	ctx := context.Background()
	require.NoError(t, p.OnEvent(ctx, Event{Name: EventPostPackageInstall, Package: declaring("acme/a", "Acme\\Ok")}))
	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err), "no failure, no log file")

	require.NoError(t, p.OnEvent(ctx, Event{Name: EventPostPackageInstall, Package: declaring("acme/b", "Acme\\Missing")}))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `["Acme\\Missing"] The class do not exists`)
}

func TestPlugin_SummaryReportsSinkErrors(t *testing.T) {
	t.Setenv(EnvLogPath, "")
	logger := NewTestLogger()
	p := New(NewRegistry(nil), WithConsole(&bytes.Buffer{}), WithLogWriter(failingWriter{}), WithLogger(logger))
	require.NoError(t, p.Activate(newTestComposer(nil)))

	ctx := context.Background()
	require.NoError(t, p.OnEvent(ctx, Event{Name: EventPostPackageInstall, Package: declaring("acme/a", "Acme\\Missing")}))
	summary := p.OnRunComplete(ctx)

	require.Error(t, summary.Err)
	assert.Equal(t, 1, summary.Errors)
	assert.True(t, logger.HasMessage("ERROR", "Report sink write failed"))
}
