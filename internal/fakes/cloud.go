package fakes

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/blueconnect/internal/secretsource"
)

// FakeAzureKeyVaultClient serves Key Vault secrets from memory. Keys are
// "name" for the current version and "name/version" for a pinned one.
type FakeAzureKeyVaultClient struct {
	mu      sync.Mutex
	Secrets map[string]string
	Errors  map[string]error
}

var _ secretsource.AzureKeyVaultClientAPI = (*FakeAzureKeyVaultClient)(nil)

// NewFakeAzureKeyVaultClient creates an empty fake.
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// GetSecret implements secretsource.AzureKeyVaultClientAPI.
func (f *FakeAzureKeyVaultClient) GetSecret(_ context.Context, name string, version string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := name
	if version != "" {
		key = name + "/" + version
	}
	if err, ok := f.Errors[key]; ok {
		return azsecrets.GetSecretResponse{}, err
	}
	v, ok := f.Secrets[key]
	if !ok {
		return azsecrets.GetSecretResponse{}, AzureError(http.StatusNotFound, "SecretNotFound")
	}
	value := v
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &value}}, nil
}

// AzureError builds the error the Azure SDK returns for a failed call.
func AzureError(statusCode int, code string) error {
	return &azcore.ResponseError{StatusCode: statusCode, ErrorCode: code}
}

// FakeGCPSecretManagerClient serves Secret Manager versions from memory,
// keyed by full resource name.
type FakeGCPSecretManagerClient struct {
	mu       sync.Mutex
	Versions map[string][]byte
	Errors   map[string]error
	calls    []string
}

var _ secretsource.GCPSecretManagerClientAPI = (*FakeGCPSecretManagerClient)(nil)

// NewFakeGCPSecretManagerClient creates an empty fake.
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Versions: make(map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// AccessSecretVersion implements secretsource.GCPSecretManagerClientAPI.
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetName()
	f.calls = append(f.calls, name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	data, ok := f.Versions[name]
	if !ok {
		return nil, status.Error(codes.NotFound, fmt.Sprintf("Secret [%s] not found or has no versions.", name))
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    name,
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	}, nil
}

// Calls returns the requested resource names in order.
func (f *FakeGCPSecretManagerClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
