package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultRoleSessionName is used when assuming a role before querying
	// the organization.
	DefaultRoleSessionName = "AssumeRoleForOrgVis"

	// defaultRegion is used when nothing is configured. Organizations is a
	// global service served from us-east-1.
	defaultRegion = "us-east-1"
)

// SessionOptions controls how AWS credentials are obtained.
type SessionOptions struct {
	Profile         string
	Region          string
	Endpoint        string
	AssumeRole      string
	RoleSessionName string
}

// CallerIdentityAPI is the STS call used to find the account a role lives in.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// LoadAWSConfig loads the shared AWS configuration and, when a role name is
// set, replaces the credentials with ones for that role in the caller's own
// account.
func LoadAWSConfig(ctx context.Context, opts SessionOptions) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{}

	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Endpoint != "" {
		// Use BaseEndpoint for LocalStack support
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	if opts.AssumeRole == "" {
		return cfg, nil
	}

	stsClient := sts.NewFromConfig(cfg)

	roleARN, err := RoleARN(ctx, stsClient, opts.AssumeRole)
	if err != nil {
		return aws.Config{}, err
	}

	sessionName := opts.RoleSessionName
	if sessionName == "" {
		sessionName = DefaultRoleSessionName
	}

	provider := stscreds.NewAssumeRoleProvider(stsClient, roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = sessionName
	})
	cfg.Credentials = aws.NewCredentialsCache(provider)

	log.Debug().Str("role_arn", roleARN).Str("session_name", sessionName).Msg("assuming role for organization queries")

	return cfg, nil
}

// RoleARN builds the ARN of roleName in the caller's account and partition.
func RoleARN(ctx context.Context, api CallerIdentityAPI, roleName string) (string, error) {
	ident, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", wrapAWSError(err, "failed to get caller identity")
	}

	account := aws.ToString(ident.Account)
	if account == "" {
		return "", fmt.Errorf("caller identity has no account")
	}

	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition(aws.ToString(ident.Arn)), account, roleName), nil
}

// partition extracts the partition from an ARN, defaulting to "aws".
func partition(arn string) string {
	parts := strings.SplitN(arn, ":", 3)
	if len(parts) < 3 || parts[0] != "arn" || parts[1] == "" {
		return "aws"
	}
	return parts[1]
}
