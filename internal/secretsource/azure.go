package secretsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// AzureKeyVaultRef names a Key Vault secret. Without ManagedIdentityClientID
// the default Azure credential chain (environment, workload identity, CLI)
// is used.
type AzureKeyVaultRef struct {
	VaultURL                string `yaml:"vault_url" json:"vault_url"`
	Name                    string `yaml:"name" json:"name"`
	Version                 string `yaml:"version,omitempty" json:"version,omitempty"`
	JSONKey                 string `yaml:"json_key,omitempty" json:"json_key,omitempty"`
	ManagedIdentityClientID string `yaml:"managed_identity_client_id,omitempty" json:"managed_identity_client_id,omitempty"`
}

// AzureKeyVaultClientAPI is the subset of the Key Vault client in use.
type AzureKeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultSource reads the password from Azure Key Vault.
type AzureKeyVaultSource struct {
	ref    AzureKeyVaultRef
	client AzureKeyVaultClientAPI
}

func newAzureKeyVaultSource(ref AzureKeyVaultRef, client AzureKeyVaultClientAPI) (*AzureKeyVaultSource, error) {
	if ref.VaultURL == "" || ref.Name == "" {
		return nil, fmt.Errorf("azure_keyvault vault_url and name are required")
	}
	if client == nil {
		var err error
		client, err = newAzureKeyVaultClient(ref)
		if err != nil {
			return nil, err
		}
	}
	return &AzureKeyVaultSource{ref: ref, client: client}, nil
}

func newAzureKeyVaultClient(ref AzureKeyVaultRef) (*azsecrets.Client, error) {
	var cred azcore.TokenCredential
	var err error
	if ref.ManagedIdentityClientID != "" {
		cred, err = azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ID: azidentity.ClientID(ref.ManagedIdentityClientID),
		})
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(ref.VaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return client, nil
}

func (s *AzureKeyVaultSource) Name() string { return "azure_keyvault" }

func (s *AzureKeyVaultSource) Resolve(ctx context.Context) (string, error) {
	resp, err := s.client.GetSecret(ctx, s.ref.Name, s.ref.Version, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return "", s.fail(err, azureSuggestion(err))
	}
	if resp.Value == nil {
		return "", s.fail(errors.New("secret has no value"), "")
	}

	value, err := jsonField(*resp.Value, s.ref.JSONKey)
	if err != nil {
		return "", s.fail(err, jsonFieldSuggestion(err))
	}
	return value, nil
}

func (s *AzureKeyVaultSource) fail(err error, suggestion string) error {
	return &SourceError{Source: s.Name(), Ref: s.ref.VaultURL + "/" + s.ref.Name, Suggestion: suggestion, Err: err}
}

func azureSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, ErrNotFound):
		return "verify the vault URL and secret name"
	case strings.Contains(errStr, "forbidden"):
		return "grant the identity the 'Key Vault Secrets User' role on the vault"
	case strings.Contains(errStr, "credential"):
		return "sign in with 'az login' or configure a managed identity"
	default:
		return ""
	}
}
