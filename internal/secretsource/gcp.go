package secretsource

import (
	"context"
	"errors"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPSecretRef names a Secret Manager secret version. Version defaults to
// "latest"; CredentialsFile overrides application default credentials.
type GCPSecretRef struct {
	Project         string `yaml:"project" json:"project"`
	Secret          string `yaml:"secret" json:"secret"`
	Version         string `yaml:"version,omitempty" json:"version,omitempty"`
	JSONKey         string `yaml:"json_key,omitempty" json:"json_key,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty" json:"credentials_file,omitempty"`
}

// ResourceName is the full secret version name.
func (r GCPSecretRef) ResourceName() string {
	version := r.Version
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", r.Project, r.Secret, version)
}

// GCPSecretManagerClientAPI is the subset of the Secret Manager client in use.
type GCPSecretManagerClientAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// GCPSecretSource reads the password from Google Cloud Secret Manager.
type GCPSecretSource struct {
	ref    GCPSecretRef
	client GCPSecretManagerClientAPI
}

func newGCPSecretSource(ref GCPSecretRef, client GCPSecretManagerClientAPI) (*GCPSecretSource, error) {
	if ref.Project == "" || ref.Secret == "" {
		return nil, fmt.Errorf("gcp_secretmanager project and secret are required")
	}
	return &GCPSecretSource{ref: ref, client: client}, nil
}

func (s *GCPSecretSource) Name() string { return "gcp_secretmanager" }

// Resolve dials Secret Manager for the single read unless a client was
// injected.
func (s *GCPSecretSource) Resolve(ctx context.Context) (string, error) {
	client := s.client
	if client == nil {
		var clientOptions []option.ClientOption
		if s.ref.CredentialsFile != "" {
			clientOptions = append(clientOptions, option.WithCredentialsFile(s.ref.CredentialsFile))
		}
		c, err := secretmanager.NewClient(ctx, clientOptions...)
		if err != nil {
			return "", s.fail(fmt.Errorf("failed to create Secret Manager client: %w", err), gcpSuggestion(err))
		}
		defer c.Close()
		client = c
	}

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.ref.ResourceName(),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return "", s.fail(err, gcpSuggestion(err))
	}
	if result.GetPayload() == nil || result.GetPayload().GetData() == nil {
		return "", s.fail(errors.New("secret has no data"), "")
	}

	value, err := jsonField(string(result.GetPayload().GetData()), s.ref.JSONKey)
	if err != nil {
		return "", s.fail(err, jsonFieldSuggestion(err))
	}
	return value, nil
}

func (s *GCPSecretSource) fail(err error, suggestion string) error {
	return &SourceError{Source: s.Name(), Ref: s.ref.ResourceName(), Suggestion: suggestion, Err: err}
}

func gcpSuggestion(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "verify the project and secret name"
	}
	switch status.Code(err) {
	case codes.PermissionDenied:
		return "check IAM permission secretmanager.versions.access"
	case codes.Unauthenticated:
		return "set GOOGLE_APPLICATION_CREDENTIALS or run 'gcloud auth application-default login'"
	default:
		return ""
	}
}
