package secretsource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AWSAccess selects the AWS identity used to read a secret. Zero values
// fall back to the default credential chain.
type AWSAccess struct {
	Region     string `yaml:"region,omitempty" json:"region,omitempty"`
	Profile    string `yaml:"profile,omitempty" json:"profile,omitempty"`
	AssumeRole string `yaml:"assume_role,omitempty" json:"assume_role,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// roleSessionName tags assumed-role sessions in CloudTrail.
const roleSessionName = "blueconnect"

// SecretsManagerRef names a Secrets Manager secret. When JSONKey is set the
// secret string is a JSON object and the password is that key's value.
type SecretsManagerRef struct {
	SecretID  string `yaml:"secret_id" json:"secret_id"`
	JSONKey   string `yaml:"json_key,omitempty" json:"json_key,omitempty"`
	AWSAccess `yaml:",inline"`
}

// SSMRef names a Parameter Store parameter.
type SSMRef struct {
	Name      string `yaml:"name" json:"name"`
	AWSAccess `yaml:",inline"`
}

// SecretsManagerClientAPI is the subset of the Secrets Manager client in use.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SSMClientAPI is the subset of the SSM client in use.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func loadAWSConfig(access AWSAccess) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error
	if access.Region != "" {
		configOpts = append(configOpts, config.WithRegion(access.Region))
	}
	if access.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(access.Profile))
	}
	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if access.AssumeRole != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), access.AssumeRole,
			func(o *stscreds.AssumeRoleOptions) {
				o.RoleSessionName = roleSessionName
			})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	return cfg, nil
}

// SecretsManagerSource reads the password from AWS Secrets Manager.
type SecretsManagerSource struct {
	ref    SecretsManagerRef
	client SecretsManagerClientAPI
}

func newSecretsManagerSource(ref SecretsManagerRef, client SecretsManagerClientAPI) (*SecretsManagerSource, error) {
	if ref.SecretID == "" {
		return nil, fmt.Errorf("aws_secretsmanager secret_id is required")
	}
	if client == nil {
		cfg, err := loadAWSConfig(ref.AWSAccess)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*secretsmanager.Options)
		if ref.Endpoint != "" {
			endpoint := ref.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}
	return &SecretsManagerSource{ref: ref, client: client}, nil
}

func (s *SecretsManagerSource) Name() string { return "aws_secretsmanager" }

func (s *SecretsManagerSource) Resolve(ctx context.Context) (string, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.ref.SecretID),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return "", s.fail(err, awsSuggestion(err, "secretsmanager:GetSecretValue"))
	}

	var secret string
	switch {
	case result.SecretString != nil:
		secret = *result.SecretString
	case result.SecretBinary != nil:
		secret = string(result.SecretBinary)
	default:
		return "", s.fail(errors.New("secret has no value"), "")
	}

	value, err := jsonField(secret, s.ref.JSONKey)
	if err != nil {
		return "", s.fail(err, jsonFieldSuggestion(err))
	}
	return value, nil
}

func (s *SecretsManagerSource) fail(err error, suggestion string) error {
	return &SourceError{Source: s.Name(), Ref: s.ref.SecretID, Suggestion: suggestion, Err: err}
}

// SSMSource reads the password from AWS SSM Parameter Store, decrypting
// SecureString parameters.
type SSMSource struct {
	ref    SSMRef
	client SSMClientAPI
}

func newSSMSource(ref SSMRef, client SSMClientAPI) (*SSMSource, error) {
	if ref.Name == "" {
		return nil, fmt.Errorf("aws_ssm name is required")
	}
	if client == nil {
		cfg, err := loadAWSConfig(ref.AWSAccess)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*ssm.Options)
		if ref.Endpoint != "" {
			endpoint := ref.Endpoint
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		client = ssm.NewFromConfig(cfg, clientOpts...)
	}
	return &SSMSource{ref: ref, client: client}, nil
}

func (s *SSMSource) Name() string { return "aws_ssm" }

func (s *SSMSource) Resolve(ctx context.Context) (string, error) {
	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.ref.Name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return "", &SourceError{Source: s.Name(), Ref: s.ref.Name, Suggestion: awsSuggestion(err, "ssm:GetParameter and kms:Decrypt"), Err: err}
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", &SourceError{Source: s.Name(), Ref: s.ref.Name, Err: errors.New("parameter has no value")}
	}
	return *result.Parameter.Value, nil
}

func awsSuggestion(err error, permission string) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, ErrNotFound):
		return "verify the name and region; names are case-sensitive"
	case strings.Contains(errStr, "assumerole"):
		return "check that the role trusts your identity and that assume_role is a full role ARN"
	case strings.Contains(errStr, "accessdenied"):
		return "check IAM permissions for " + permission
	case strings.Contains(errStr, "credentials"):
		return "configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	case strings.Contains(errStr, "throttl"):
		return "request was throttled, try again shortly"
	default:
		return ""
	}
}
