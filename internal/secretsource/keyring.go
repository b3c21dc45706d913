package secretsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringRef names an entry in the OS keyring.
type KeyringRef struct {
	Service string `yaml:"service" json:"service"`
	Account string `yaml:"account" json:"account"`
}

// DefaultKeyringService is the keyring service used by "login --save".
const DefaultKeyringService = "blueconnect"

// KeyringClient is the subset of the keyring API in use.
type KeyringClient interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

func (osKeyring) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

// KeyringSource reads from the OS keyring (Keychain, Secret Service,
// Windows Credential Manager).
type KeyringSource struct {
	ref    KeyringRef
	client KeyringClient
}

func newKeyringSource(ref KeyringRef, client KeyringClient) (*KeyringSource, error) {
	if ref.Account == "" {
		return nil, fmt.Errorf("keyring account is required")
	}
	if ref.Service == "" {
		ref.Service = DefaultKeyringService
	}
	if client == nil {
		client = osKeyring{}
	}
	return &KeyringSource{ref: ref, client: client}, nil
}

func (s *KeyringSource) Name() string { return "keyring" }

func (s *KeyringSource) Resolve(_ context.Context) (string, error) {
	secret, err := s.client.Get(s.ref.Service, s.ref.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			err = ErrNotFound
		}
		return "", &SourceError{
			Source:     s.Name(),
			Ref:        s.ref.Service + "/" + s.ref.Account,
			Suggestion: "store it with 'blueconnect login --save'",
			Err:        err,
		}
	}
	return secret, nil
}

// SaveToKeyring stores password under service/account in the OS keyring.
func SaveToKeyring(ref KeyringRef, password string, opts ...Option) error {
	o := &options{keyring: osKeyring{}}
	for _, opt := range opts {
		opt(o)
	}
	if ref.Service == "" {
		ref.Service = DefaultKeyringService
	}
	if err := o.keyring.Set(ref.Service, ref.Account, password); err != nil {
		return &SourceError{Source: "keyring", Ref: ref.Service + "/" + ref.Account, Err: err}
	}
	return nil
}
