package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// ErrSecretNotFound is returned when an override is not configured: the
// secret does not exist or holds no string value.
var ErrSecretNotFound = errors.New("secret not found")

type secretValueAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient resolves configuration overrides from Secrets Manager.
// Found values are kept for the life of the process; misses are not.
type SecretsClient struct {
	api   secretValueAPI
	mu    sync.Mutex
	found map[string]string
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg))
}

func newSecretsClient(api secretValueAPI) *SecretsClient {
	return &SecretsClient{api: api, found: map[string]string{}}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.found[name]; ok {
		return v, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	var missing *types.ResourceNotFoundException
	switch {
	case errors.As(err, &missing):
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	case err != nil:
		return "", fmt.Errorf("read secret %s: %w", name, err)
	case out.SecretString == nil:
		return "", fmt.Errorf("%w: %s has no string value", ErrSecretNotFound, name)
	}

	s.found[name] = *out.SecretString
	return *out.SecretString, nil
}
