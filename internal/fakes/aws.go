package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/systmms/blueconnect/internal/secretsource"
)

// FakeSecretsManagerClient serves secrets from memory.
type FakeSecretsManagerClient struct {
	mu sync.Mutex
	// Secrets maps secret IDs to secret strings
	Secrets map[string]string
	// Binary maps secret IDs to binary secrets
	Binary map[string][]byte
	// Errors maps secret IDs to errors to return
	Errors map[string]error
	calls  []string
}

var _ secretsource.SecretsManagerClientAPI = (*FakeSecretsManagerClient)(nil)

// NewFakeSecretsManagerClient creates an empty fake.
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]string),
		Binary:  make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

// GetSecretValue implements secretsource.SecretsManagerClientAPI.
func (f *FakeSecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(params.SecretId)
	f.calls = append(f.calls, id)

	if err, ok := f.Errors[id]; ok {
		return nil, err
	}
	if s, ok := f.Secrets[id]; ok {
		return &secretsmanager.GetSecretValueOutput{
			Name:         aws.String(id),
			SecretString: aws.String(s),
			VersionId:    aws.String("v1"),
		}, nil
	}
	if b, ok := f.Binary[id]; ok {
		return &secretsmanager.GetSecretValueOutput{Name: aws.String(id), SecretBinary: b}, nil
	}
	return nil, &smtypes.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", id)),
	}
}

// Calls returns the requested secret IDs in order.
func (f *FakeSecretsManagerClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FakeSSMClient serves parameters from memory.
type FakeSSMClient struct {
	mu sync.Mutex
	// Parameters maps parameter names to values
	Parameters map[string]string
	// Errors maps parameter names to errors to return
	Errors map[string]error
	// Decrypted records the WithDecryption flag of each call
	Decrypted []bool
}

var _ secretsource.SSMClientAPI = (*FakeSSMClient)(nil)

// NewFakeSSMClient creates an empty fake.
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]string),
		Errors:     make(map[string]error),
	}
}

// GetParameter implements secretsource.SSMClientAPI.
func (f *FakeSSMClient) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.Name)
	f.Decrypted = append(f.Decrypted, aws.ToBool(params.WithDecryption))

	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	v, ok := f.Parameters[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{Message: aws.String(name)}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:  aws.String(name),
			Type:  ssmtypes.ParameterTypeSecureString,
			Value: aws.String(v),
		},
	}, nil
}

// FakeKeyring is an in-memory secretsource.KeyringClient.
type FakeKeyring struct {
	mu      sync.Mutex
	entries map[string]string
	// Err, when set, is returned by every call
	Err error
}

var _ secretsource.KeyringClient = (*FakeKeyring)(nil)

// NewFakeKeyring creates an empty keyring.
func NewFakeKeyring() *FakeKeyring {
	return &FakeKeyring{entries: make(map[string]string)}
}

func (k *FakeKeyring) Get(service, account string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return "", k.Err
	}
	v, ok := k.entries[service+"\x00"+account]
	if !ok {
		return "", secretsource.ErrNotFound
	}
	return v, nil
}

func (k *FakeKeyring) Set(service, account, secret string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.Err != nil {
		return k.Err
	}
	k.entries[service+"\x00"+account] = secret
	return nil
}
