package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/chxlky/issue-to-shortcut/integrations"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	KeyGitHubToken      = "github_token"
	KeyEventName        = "github_event_name"
	KeyEventPath        = "github_event_path"
	KeyGitHubAPIURL     = "github_api_url"
	KeyShortcutToken    = "shortcut_api_token"
	KeyShortcutAPIURL   = "shortcut_api_url"
	KeyShortcutUser     = "shortcut_default_user_name"
	KeyShortcutWorkflow = "shortcut_workflow"
	KeyShortcutTeam     = "shortcut_team"
	KeyShortcutProject  = "shortcut_project"
	KeyUserMap          = "gh_sc_user_map"
	KeyStateMap         = "gh_action_sc_state_map"
	KeyHTTPTimeout      = "http_timeout"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	IssuesEventName    = "issues"
)

var envBindings = map[string]string{
	KeyGitHubToken:      "INPUT_GITHUB_TOKEN",
	KeyEventName:        "GITHUB_EVENT_NAME",
	KeyEventPath:        "GITHUB_EVENT_PATH",
	KeyGitHubAPIURL:     "GITHUB_API_URL",
	KeyShortcutToken:    "INPUT_SHORTCUT_API_TOKEN",
	KeyShortcutAPIURL:   "INPUT_SHORTCUT_API_URL",
	KeyShortcutUser:     "INPUT_SHORTCUT_DEFAULT_USER_NAME",
	KeyShortcutWorkflow: "INPUT_SHORTCUT_WORKFLOW",
	KeyShortcutTeam:     "INPUT_SHORTCUT_TEAM",
	KeyShortcutProject:  "INPUT_SHORTCUT_PROJECT",
	KeyUserMap:          "INPUT_GH_SC_USER_MAP",
	KeyStateMap:         "INPUT_GH_ACTION_SC_STATE_MAP",
	KeyHTTPTimeout:      "INPUT_HTTP_TIMEOUT",
}

var flagBindings = map[string]string{
	KeyEventPath: "event-path",
	KeyEventName: "event-name",
}

// Environ is every recognized option for one run. Team, project and both
// mappings are optional; everything else is checked by Validate.
type Environ struct {
	GitHubToken    string
	EventName      string
	EventPath      string
	GitHubAPIURL   string
	ShortcutToken  string
	ShortcutAPIURL string

	DefaultUserName string
	Workflow        string
	Team            string
	Project         string

	UserMap  map[string]string
	StateMap map[string]string

	HTTPTimeout time.Duration
}

func NewFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "optional config file (toml, yaml or json)")
	flags.String("env-file", "", "load environment variables from this file (default: .env if present)")
	flags.String("event-path", "", "path to the GitHub event payload (overrides GITHUB_EVENT_PATH)")
	flags.String("event-name", "", "GitHub event name (overrides GITHUB_EVENT_NAME)")
	flags.String("log-level", "", "log level (overrides LOG_LEVEL)")
	flags.BoolP("help", "h", false, "show help")
	return flags
}

// Load reads options from, in decreasing precedence, flags, the process
// environment (after the optional env file) and the optional config file.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Environ, error) {
	envFile, configFile := "", ""
	if flags != nil {
		envFile, _ = flags.GetString("env-file")
		configFile, _ = flags.GetString("config")
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &ConfigError{Keys: []string{"env-file"}, Reason: err.Error()}
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetDefault(KeyShortcutAPIURL, integrations.DefaultShortcutAPIURL)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout.String())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("unable to bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Keys: []string{"config"}, Reason: err.Error()}
		}
	}

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("unable to bind --%s: %w", name, err)
				}
			}
		}
	}

	env := &Environ{
		GitHubToken:     v.GetString(KeyGitHubToken),
		EventName:       v.GetString(KeyEventName),
		EventPath:       v.GetString(KeyEventPath),
		GitHubAPIURL:    v.GetString(KeyGitHubAPIURL),
		ShortcutToken:   v.GetString(KeyShortcutToken),
		ShortcutAPIURL:  v.GetString(KeyShortcutAPIURL),
		DefaultUserName: v.GetString(KeyShortcutUser),
		Workflow:        v.GetString(KeyShortcutWorkflow),
		Team:            v.GetString(KeyShortcutTeam),
		Project:         v.GetString(KeyShortcutProject),
	}

	// GetDuration would turn "abc" into 0 and "30" into 30ns without complaint.
	timeout, err := time.ParseDuration(v.GetString(KeyHTTPTimeout))
	if err != nil {
		return nil, &ConfigError{Keys: []string{envBindings[KeyHTTPTimeout]}, Reason: fmt.Sprintf("not a duration: %v", err)}
	}
	env.HTTPTimeout = timeout

	env.UserMap = parseOrEmpty(ParseUserMap, v.Get(KeyUserMap))
	env.StateMap = parseOrEmpty(ParseStateMap, v.Get(KeyStateMap))

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func parseOrEmpty(parse func(any) (map[string]string, error), raw any) map[string]string {
	m, err := parse(raw)
	if err != nil {
		var mpe *MappingParseError
		if errors.As(err, &mpe) {
			zap.L().Warn("Ignoring malformed mapping", zap.String("key", mpe.Key), zap.Error(mpe.Err))
		} else {
			zap.L().Warn("Ignoring malformed mapping", zap.Error(err))
		}
		return map[string]string{}
	}
	return m
}

// Validate checks every required option at once, before any network call.
func (e *Environ) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyEventName, e.EventName},
		{KeyEventPath, e.EventPath},
		{KeyGitHubToken, e.GitHubToken},
		{KeyShortcutToken, e.ShortcutToken},
		{KeyShortcutUser, e.DefaultUserName},
		{KeyShortcutWorkflow, e.Workflow},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, envBindings[r.key])
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Keys: missing, Reason: "required but not set"}
	}

	if e.HTTPTimeout < 0 {
		return &ConfigError{Keys: []string{envBindings[KeyHTTPTimeout]}, Reason: "must not be negative"}
	}
	return nil
}

// IsIssuesEvent reports whether the triggering event is one this tool handles.
func (e *Environ) IsIssuesEvent() bool {
	return e.EventName == IssuesEventName
}

// LogFields summarizes the environ with both tokens redacted.
func (e *Environ) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("eventName", e.EventName),
		zap.String("eventPath", e.EventPath),
		zap.String("githubToken", redact(e.GitHubToken)),
		zap.String("shortcutToken", redact(e.ShortcutToken)),
		zap.String("defaultUser", e.DefaultUserName),
		zap.String("workflow", e.Workflow),
		zap.String("team", e.Team),
		zap.String("project", e.Project),
		zap.Any("userMap", e.UserMap),
		zap.Any("stateMap", e.StateMap),
		zap.Duration("httpTimeout", e.HTTPTimeout),
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
