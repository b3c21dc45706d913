package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	bcerrors "github.com/systmms/blueconnect/internal/errors"
	"github.com/systmms/blueconnect/internal/logging"
	"github.com/systmms/blueconnect/internal/secretsource"
	"github.com/systmms/blueconnect/pkg/client"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "blueconnect.yaml"

// Environment overrides.
const (
	EnvEmail    = "BLUECONNECT_EMAIL"
	EnvPassword = "BLUECONNECT_PASSWORD"
)

// Defaults applied to unset fields.
const (
	DefaultLanguage    = "en"
	DefaultTimeoutMs   = 30000
	DefaultMetricsPort = 9108
	DefaultMetricsPath = "/metrics"
)

//go:embed schema.json
var schemaJSON []byte

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition

	// LookupEnv replaces os.LookupEnv (for tests).
	LookupEnv func(string) (string, bool)

	// ClientOverrides are appended to the options derived from the file.
	ClientOverrides []client.Option
}

// Definition represents the blueconnect.yaml structure
type Definition struct {
	Version int     `yaml:"version"`
	Account Account `yaml:"account"`
	API     API     `yaml:"api"`
	Metrics Metrics `yaml:"metrics"`
}

// Account identifies the Blue Connect account.
type Account struct {
	Email    string           `yaml:"email"`
	Password secretsource.Ref `yaml:"password"`
}

// API holds endpoint and transport settings.
type API struct {
	BaseURL            string `yaml:"base_url"`
	Region             string `yaml:"region"`
	Service            string `yaml:"service"`
	Language           string `yaml:"language"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify"`
	CACert             string `yaml:"ca_cert"`
	TimeoutMs          int    `yaml:"timeout_ms"`
}

// Metrics configures the Prometheus exporter.
type Metrics struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// Timeout is the per-request timeout.
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// SkipVerify reports whether TLS certificates are left unverified.
func (a API) SkipVerify() bool {
	return a.InsecureSkipVerify == nil || *a.InsecureSkipVerify
}

// Addr is the exporter listen address.
func (m Metrics) Addr() string {
	return fmt.Sprintf(":%d", m.Port)
}

func (c *Config) lookupEnv(key string) (string, bool) {
	if c.LookupEnv != nil {
		return c.LookupEnv(key)
	}
	return os.LookupEnv(key)
}

func (c *Config) envSet(key string) bool {
	v, ok := c.lookupEnv(key)
	return ok && v != ""
}

// Load reads, validates and completes the configuration file. A missing
// file is accepted when the account is fully given by the environment.
func (c *Config) Load() error {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && c.envSet(EnvEmail) && c.envSet(EnvPassword):
		data = nil
	case os.IsNotExist(err):
		return bcerrors.ConfigError{
			Field:      "path",
			Value:      path,
			Message:    "configuration file not found",
			Suggestion: fmt.Sprintf("Create %s or export %s and %s", path, EnvEmail, EnvPassword),
		}
	case err != nil:
		return bcerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}

	c.applyEnv(def)
	if err := def.check(); err != nil {
		return err
	}

	c.Definition = def
	return nil
}

// Parse validates raw YAML against the configuration schema, decodes it
// and fills in defaults. Environment overrides are not applied.
func Parse(data []byte) (*Definition, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, bcerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, bcerrors.ConfigError{
			Message:    fmt.Sprintf("cannot decode configuration: %v", err),
			Suggestion: "Compare the file with the documented blueconnect.yaml layout",
		}
	}

	def.applyDefaults()
	return &def, nil
}

func validate(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return bcerrors.ConfigError{
			Message:    "configuration cannot be represented as JSON",
			Suggestion: "Use string keys only",
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	var details []string
	for _, desc := range errs {
		details = append(details, desc.String())
	}
	first := errs[0]
	field := first.Field()
	if field == "(root)" {
		field = ""
	}
	return bcerrors.ConfigError{
		Field:      field,
		Value:      first.Value(),
		Message:    strings.Join(details, "; "),
		Suggestion: suggestionFor(field),
	}
}

func suggestionFor(field string) string {
	switch {
	case strings.HasPrefix(field, "account.password"):
		return "Set exactly one of env, literal, keyring, aws_secretsmanager, aws_ssm, azure_keyvault or gcp_secretmanager"
	case field == "version":
		return "Set 'version: 0' at the top of your blueconnect.yaml file"
	case strings.HasPrefix(field, "api.base_url"):
		return "Use an http(s) URL such as " + client.DefaultBaseURL
	default:
		return ""
	}
}

func (d *Definition) applyDefaults() {
	if d.API.BaseURL == "" {
		d.API.BaseURL = client.DefaultBaseURL
	}
	if d.API.Region == "" {
		d.API.Region = client.DefaultRegion
	}
	if d.API.Service == "" {
		d.API.Service = client.DefaultService
	}
	if d.API.Language == "" {
		d.API.Language = DefaultLanguage
	}
	if d.API.InsecureSkipVerify == nil {
		skip := true
		d.API.InsecureSkipVerify = &skip
	}
	if d.API.TimeoutMs == 0 {
		d.API.TimeoutMs = DefaultTimeoutMs
	}
	if d.Metrics.Port == 0 {
		d.Metrics.Port = DefaultMetricsPort
	}
	if d.Metrics.Path == "" {
		d.Metrics.Path = DefaultMetricsPath
	}
}

func (c *Config) applyEnv(d *Definition) {
	if v, ok := c.lookupEnv(EnvEmail); ok && v != "" {
		d.Account.Email = v
	}
	if c.envSet(EnvPassword) {
		d.Account.Password = secretsource.Ref{Env: EnvPassword}
	}
}

func (d *Definition) check() error {
	if d.Account.Email == "" {
		return bcerrors.ConfigError{
			Field:      "account.email",
			Message:    "account email is required",
			Suggestion: "Set account.email or export " + EnvEmail,
		}
	}
	if d.Account.Password.IsZero() {
		return bcerrors.ConfigError{
			Field:      "account.password",
			Message:    "no password source configured",
			Suggestion: "Set account.password or export " + EnvPassword,
		}
	}
	return nil
}

// Password resolves the account password from its configured source.
func (c *Config) Password(ctx context.Context, opts ...secretsource.Option) (string, error) {
	if c.Definition == nil {
		return "", bcerrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	opts = append([]secretsource.Option{secretsource.WithEnvLookup(c.lookupEnv)}, opts...)
	src, err := secretsource.New(c.Definition.Account.Password, opts...)
	if err != nil {
		return "", bcerrors.ConfigError{
			Field:   "account.password",
			Message: err.Error(),
		}
	}
	if c.Logger != nil {
		c.Logger.Debug("Resolving account password from %s", src.Name())
	}
	return src.Resolve(ctx)
}

// ClientOptions translates the API settings into client options.
func (c *Config) ClientOptions() ([]client.Option, error) {
	if c.Definition == nil {
		return nil, bcerrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}
	api := c.Definition.API

	transport, err := client.NewHTTPTransport(client.HTTPTransportConfig{
		InsecureSkipVerify: api.SkipVerify(),
		CACert:             api.CACert,
		Timeout:            api.Timeout(),
	})
	if err != nil {
		return nil, bcerrors.ConfigError{
			Field:   "api.ca_cert",
			Value:   api.CACert,
			Message: err.Error(),
		}
	}

	opts := []client.Option{
		client.WithBaseURL(api.BaseURL),
		client.WithRegion(api.Region),
		client.WithService(api.Service),
		client.WithTransport(transport),
	}
	if c.Logger != nil {
		opts = append(opts, client.WithLogger(c.Logger))
	}
	return append(opts, c.ClientOverrides...), nil
}
