// Package secretsource resolves the account password from the place the
// configuration points at: an environment variable, a literal, the OS
// keyring or a cloud secret store (AWS Secrets Manager, AWS SSM Parameter
// Store, Azure Key Vault, GCP Secret Manager).
package secretsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound means the referenced secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Source resolves one secret value.
type Source interface {
	// Name identifies the backend, e.g. "env" or "aws_ssm".
	Name() string
	// Resolve returns the secret. Backends that miss the secret return an
	// error matching ErrNotFound.
	Resolve(ctx context.Context) (string, error)
}

// Ref points at a secret. Exactly one field must be set.
type Ref struct {
	Env               string             `yaml:"env,omitempty" json:"env,omitempty"`
	Literal           string             `yaml:"literal,omitempty" json:"literal,omitempty"`
	Keyring           *KeyringRef        `yaml:"keyring,omitempty" json:"keyring,omitempty"`
	AWSSecretsManager *SecretsManagerRef `yaml:"aws_secretsmanager,omitempty" json:"aws_secretsmanager,omitempty"`
	AWSSSM            *SSMRef            `yaml:"aws_ssm,omitempty" json:"aws_ssm,omitempty"`
	AzureKeyVault     *AzureKeyVaultRef  `yaml:"azure_keyvault,omitempty" json:"azure_keyvault,omitempty"`
	GCPSecretManager  *GCPSecretRef      `yaml:"gcp_secretmanager,omitempty" json:"gcp_secretmanager,omitempty"`
}

// Kind returns the name of the backend the ref selects, or "" if none or
// several are set.
func (r Ref) Kind() string {
	var kinds []string
	if r.Env != "" {
		kinds = append(kinds, "env")
	}
	if r.Literal != "" {
		kinds = append(kinds, "literal")
	}
	if r.Keyring != nil {
		kinds = append(kinds, "keyring")
	}
	if r.AWSSecretsManager != nil {
		kinds = append(kinds, "aws_secretsmanager")
	}
	if r.AWSSSM != nil {
		kinds = append(kinds, "aws_ssm")
	}
	if r.AzureKeyVault != nil {
		kinds = append(kinds, "azure_keyvault")
	}
	if r.GCPSecretManager != nil {
		kinds = append(kinds, "gcp_secretmanager")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// IsZero reports whether no backend is set.
func (r Ref) IsZero() bool {
	return r.Env == "" && r.Literal == "" && r.Keyring == nil &&
		r.AWSSecretsManager == nil && r.AWSSSM == nil && r.AzureKeyVault == nil && r.GCPSecretManager == nil
}

// SourceError wraps a backend failure with the reference that failed.
type SourceError struct {
	Source     string
	Ref        string
	Suggestion string
	Err        error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s secret %q: %v", e.Source, e.Ref, e.Err)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

type options struct {
	lookupEnv      func(string) (string, bool)
	secretsManager SecretsManagerClientAPI
	ssm            SSMClientAPI
	azureKeyVault  AzureKeyVaultClientAPI
	gcpSecrets     GCPSecretManagerClientAPI
	keyring        KeyringClient
}

// Option configures New.
type Option func(*options)

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookupEnv = fn
	}
}

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(c SecretsManagerClientAPI) Option {
	return func(o *options) {
		o.secretsManager = c
	}
}

// WithSSMClient sets a custom SSM client (for testing)
func WithSSMClient(c SSMClientAPI) Option {
	return func(o *options) {
		o.ssm = c
	}
}

// WithAzureKeyVaultClient sets a custom Key Vault client (for testing)
func WithAzureKeyVaultClient(c AzureKeyVaultClientAPI) Option {
	return func(o *options) {
		o.azureKeyVault = c
	}
}

// WithGCPSecretManagerClient sets a custom Secret Manager client (for testing)
func WithGCPSecretManagerClient(c GCPSecretManagerClientAPI) Option {
	return func(o *options) {
		o.gcpSecrets = c
	}
}

// WithKeyring replaces the OS keyring.
func WithKeyring(k KeyringClient) Option {
	return func(o *options) {
		o.keyring = k
	}
}

// New builds the Source selected by ref.
func New(ref Ref, opts ...Option) (Source, error) {
	o := &options{lookupEnv: os.LookupEnv, keyring: osKeyring{}}
	for _, opt := range opts {
		opt(o)
	}

	switch ref.Kind() {
	case "env":
		return &EnvSource{Var: ref.Env, lookup: o.lookupEnv}, nil
	case "literal":
		return LiteralSource(ref.Literal), nil
	case "keyring":
		return newKeyringSource(*ref.Keyring, o.keyring)
	case "aws_secretsmanager":
		return newSecretsManagerSource(*ref.AWSSecretsManager, o.secretsManager)
	case "aws_ssm":
		return newSSMSource(*ref.AWSSSM, o.ssm)
	case "azure_keyvault":
		return newAzureKeyVaultSource(*ref.AzureKeyVault, o.azureKeyVault)
	case "gcp_secretmanager":
		return newGCPSecretSource(*ref.GCPSecretManager, o.gcpSecrets)
	}

	if ref.IsZero() {
		return nil, errors.New("no secret source configured")
	}
	return nil, errors.New("exactly one secret source must be configured")
}

// EnvSource reads an environment variable.
type EnvSource struct {
	Var    string
	lookup func(string) (string, bool)
}

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Resolve(_ context.Context) (string, error) {
	lookup := s.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(s.Var)
	if !ok || strings.TrimSpace(v) == "" {
		return "", &SourceError{
			Source:     s.Name(),
			Ref:        s.Var,
			Suggestion: "export " + s.Var,
			Err:        ErrNotFound,
		}
	}
	return v, nil
}

// LiteralSource is a value written directly into the configuration.
type LiteralSource string

func (s LiteralSource) Name() string { return "literal" }

func (s LiteralSource) Resolve(_ context.Context) (string, error) {
	return string(s), nil
}

var errNotJSON = errors.New("secret is not a JSON object")

// jsonField returns secret unchanged when key is empty, otherwise the
// string value of key in the JSON object secret.
func jsonField(secret, key string) (string, error) {
	if key == "" {
		return secret, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(secret), &fields); err != nil {
		return "", fmt.Errorf("%w: %v", errNotJSON, err)
	}
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: key %q", ErrNotFound, key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("key %q is not a string", key)
	}
	return str, nil
}

func jsonFieldSuggestion(err error) string {
	if errors.Is(err, errNotJSON) {
		return "remove json_key or store the secret as JSON"
	}
	return ""
}
