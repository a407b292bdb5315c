package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMConfig names the Parameter Store entries read in production.
// An empty name leaves the corresponding value from the config untouched.
type SSMConfig struct {
	FeedKey          string `mapstructure:"feed_key"`
	FeedSecret       string `mapstructure:"feed_secret"`
	FeedPassphrase   string `mapstructure:"feed_passphrase"`
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
}

// ParameterStore is the subset of the SSM client used to resolve secrets.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewParameterStore creates an SSM client from the default AWS credential chain.
func NewParameterStore(ctx context.Context) (ParameterStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// ResolveSecrets replaces credentials with Parameter Store values when
// running in prod. Other environments are left as loaded.
func (c *Config) ResolveSecrets(ctx context.Context, store ParameterStore) error {
	if c.Environment != "prod" {
		return nil
	}

	targets := []struct {
		name string
		dst  *string
	}{
		{c.SSM.FeedKey, &c.Feed.Key},
		{c.SSM.FeedSecret, &c.Feed.Secret},
		{c.SSM.FeedPassphrase, &c.Feed.Passphrase},
		{c.SSM.PostgresHost, &c.Postgres.Host},
		{c.SSM.PostgresUser, &c.Postgres.User},
		{c.SSM.PostgresPassword, &c.Postgres.Password},
	}

	for _, t := range targets {
		if t.name == "" {
			continue
		}
		value, err := getParameterStoreValue(ctx, store, t.name, true)
		if err != nil {
			return err
		}
		*t.dst = value
	}

	return nil
}

func getParameterStoreValue(ctx context.Context, store ParameterStore, parameterName string, decrypt bool) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := store.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", parameterName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", parameterName)
	}

	return *result.Parameter.Value, nil
}
