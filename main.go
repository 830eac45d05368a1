package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chxlky/issue-to-shortcut/config"
	"github.com/chxlky/issue-to-shortcut/handler"
	"github.com/chxlky/issue-to-shortcut/integrations"
	"github.com/chxlky/issue-to-shortcut/internal/reconcile"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	flags := config.NewFlagSet("issue-to-shortcut")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flags)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if help, _ := flags.GetBool("help"); help {
		printHelp(flags)
		return
	}

	levelStr, _ := flags.GetString("log-level")
	logger := newLogger(levelStr)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if code := exitCode(run(context.Background(), flags)); code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

// exitCode logs a failed run and maps it to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var remoteErr *integrations.RemoteError
	if errors.As(err, &remoteErr) {
		zap.L().Error("Remote call failed",
			zap.String("service", remoteErr.Service),
			zap.Int("status", remoteErr.StatusCode),
			zap.String("body", remoteErr.Body))
	}
	zap.L().Error("Action failed", zap.Error(err))
	return 1
}

func newLogger(levelStr string) *zap.Logger {
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}
	levelStr = strings.ToLower(levelStr)
	if levelStr == "" {
		levelStr = "debug"
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

func run(ctx context.Context, flags *pflag.FlagSet) error {
	env, err := config.Load(flags)
	if err != nil {
		return err
	}

	if !env.IsIssuesEvent() {
		zap.L().Info("Event is not an issue event; nothing to do", zap.String("eventName", env.EventName))
		return nil
	}
	zap.L().Debug("Loaded configuration", env.LogFields()...)

	event, err := config.LoadEvent(env.EventPath)
	if err != nil {
		return err
	}

	shortcut := integrations.NewShortcutClient(env.ShortcutToken, env.ShortcutAPIURL, env.HTTPTimeout)
	github, err := integrations.NewGitHubClient(env.GitHubToken, event.Repository.FullName, env.GitHubAPIURL, env.HTTPTimeout)
	if err != nil {
		return err
	}

	setting, err := reconcile.NewSetting(ctx, shortcut, env, event)
	if err != nil {
		return err
	}
	zap.L().Debug("Resolved setting", setting.LogFields()...)

	h := &handler.Handler{
		Stories: shortcut,
		Issues:  github,
		Setting: setting,
	}
	return h.HandleIssueEvent(ctx)
}

func printHelp(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `issue-to-shortcut: create and update a Shortcut story for a GitHub issue event.

Usage:
  %s [flags]

Flags:
%s
Environment:
  INPUT_GITHUB_TOKEN                 GitHub token (required)
  GITHUB_EVENT_NAME                  triggering event name (required)
  GITHUB_EVENT_PATH                  event payload path (required)
  INPUT_SHORTCUT_API_TOKEN           Shortcut API token (required)
  INPUT_SHORTCUT_DEFAULT_USER_NAME   default Shortcut member (required)
  INPUT_SHORTCUT_WORKFLOW            Shortcut workflow name (required)
  INPUT_SHORTCUT_TEAM                Shortcut team name
  INPUT_SHORTCUT_PROJECT             Shortcut project name
  INPUT_GH_SC_USER_MAP               {"login": "member"} or login:member,...
  INPUT_GH_ACTION_SC_STATE_MAP       {"action": "state name"}
  INPUT_HTTP_TIMEOUT                 per-request timeout (default 30s)
  LOG_LEVEL                          debug, info, warn, error (default debug)
`, os.Args[0], flags.FlagUsages())
}
