package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/orgviz/internal/org"
	"github.com/wolfeidau/orgviz/internal/telemetry"
)

// OrganizationsAPI is the subset of the Organizations client used by Client.
type OrganizationsAPI interface {
	ListRoots(ctx context.Context, params *organizations.ListRootsInput, optFns ...func(*organizations.Options)) (*organizations.ListRootsOutput, error)
	ListChildren(ctx context.Context, params *organizations.ListChildrenInput, optFns ...func(*organizations.Options)) (*organizations.ListChildrenOutput, error)
	DescribeOrganizationalUnit(ctx context.Context, params *organizations.DescribeOrganizationalUnitInput, optFns ...func(*organizations.Options)) (*organizations.DescribeOrganizationalUnitOutput, error)
	DescribeAccount(ctx context.Context, params *organizations.DescribeAccountInput, optFns ...func(*organizations.Options)) (*organizations.DescribeAccountOutput, error)
	DescribeOrganization(ctx context.Context, params *organizations.DescribeOrganizationInput, optFns ...func(*organizations.Options)) (*organizations.DescribeOrganizationOutput, error)
}

// RetryOptions bounds the retries made for throttled requests.
type RetryOptions struct {
	MaxTries        uint
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryOptions suits the Organizations API's low per account request
// rate.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxTries:        8,
		MaxElapsedTime:  2 * time.Minute,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     20 * time.Second,
	}
}

var _ org.Directory = (*Client)(nil)

// Client implements org.Directory on top of AWS Organizations.
type Client struct {
	api     OrganizationsAPI
	retry   RetryOptions
	metrics *telemetry.Metrics
}

// New creates a Client using api.
func New(api OrganizationsAPI, retry RetryOptions) *Client {
	return &Client{
		api:     api,
		retry:   retry,
		metrics: telemetry.GetMetrics(),
	}
}

// NewFromConfig creates a Client with an Organizations client built from cfg.
func NewFromConfig(cfg aws.Config, retry RetryOptions) *Client {
	return New(organizations.NewFromConfig(cfg), retry)
}

// ListRoots returns the ids of all roots, following pagination.
func (c *Client) ListRoots(ctx context.Context) ([]string, error) {
	var (
		ids   []string
		token *string
		seen  = map[string]struct{}{}
	)

	for {
		out, err := call(ctx, c, "ListRoots", func(ctx context.Context) (*organizations.ListRootsOutput, error) {
			return c.api.ListRoots(ctx, &organizations.ListRootsInput{NextToken: token})
		})
		if err != nil {
			return nil, err
		}

		for _, root := range out.Roots {
			ids = append(ids, aws.ToString(root.Id))
		}

		next := aws.ToString(out.NextToken)
		if next == "" {
			return ids, nil
		}
		if _, ok := seen[next]; ok {
			return nil, fmt.Errorf("list roots: continuation token %q repeated", next)
		}
		seen[next] = struct{}{}
		token = out.NextToken
	}
}

// ListChildren returns one page of children of parentID.
func (c *Client) ListChildren(ctx context.Context, parentID string, childType org.ChildType, nextToken string) (org.ChildrenPage, error) {
	input := &organizations.ListChildrenInput{
		ParentId:  aws.String(parentID),
		ChildType: awsChildType(childType),
	}
	if nextToken != "" {
		input.NextToken = aws.String(nextToken)
	}

	out, err := call(ctx, c, "ListChildren", func(ctx context.Context) (*organizations.ListChildrenOutput, error) {
		return c.api.ListChildren(ctx, input)
	})
	if err != nil {
		return org.ChildrenPage{}, err
	}

	page := org.ChildrenPage{
		IDs:       make([]string, 0, len(out.Children)),
		NextToken: aws.ToString(out.NextToken),
	}
	for _, child := range out.Children {
		page.IDs = append(page.IDs, aws.ToString(child.Id))
	}

	return page, nil
}

// DescribeUnit returns the descriptive record of an organizational unit.
func (c *Client) DescribeUnit(ctx context.Context, id string) (org.UnitRecord, error) {
	out, err := call(ctx, c, "DescribeOrganizationalUnit", func(ctx context.Context) (*organizations.DescribeOrganizationalUnitOutput, error) {
		return c.api.DescribeOrganizationalUnit(ctx, &organizations.DescribeOrganizationalUnitInput{
			OrganizationalUnitId: aws.String(id),
		})
	})
	if err != nil {
		return org.UnitRecord{}, err
	}
	if out.OrganizationalUnit == nil {
		return org.UnitRecord{}, wrapAWSError(errEmptyResponse, "DescribeOrganizationalUnit")
	}

	return org.UnitRecord{
		ID:   aws.ToString(out.OrganizationalUnit.Id),
		Name: aws.ToString(out.OrganizationalUnit.Name),
		Arn:  aws.ToString(out.OrganizationalUnit.Arn),
	}, nil
}

// DescribeAccount returns the descriptive record of an account.
func (c *Client) DescribeAccount(ctx context.Context, id string) (org.AccountRecord, error) {
	out, err := call(ctx, c, "DescribeAccount", func(ctx context.Context) (*organizations.DescribeAccountOutput, error) {
		return c.api.DescribeAccount(ctx, &organizations.DescribeAccountInput{
			AccountId: aws.String(id),
		})
	})
	if err != nil {
		return org.AccountRecord{}, err
	}
	if out.Account == nil {
		return org.AccountRecord{}, wrapAWSError(errEmptyResponse, "DescribeAccount")
	}

	acct := out.Account
	return org.AccountRecord{
		ID:              aws.ToString(acct.Id),
		Name:            aws.ToString(acct.Name),
		Email:           aws.ToString(acct.Email),
		Arn:             aws.ToString(acct.Arn),
		Status:          string(acct.Status),
		JoinedMethod:    string(acct.JoinedMethod),
		JoinedTimestamp: aws.ToTime(acct.JoinedTimestamp),
	}, nil
}

// DescribeOrganization returns the organization record, including the
// management account id.
func (c *Client) DescribeOrganization(ctx context.Context) (org.OrganizationRecord, error) {
	out, err := call(ctx, c, "DescribeOrganization", func(ctx context.Context) (*organizations.DescribeOrganizationOutput, error) {
		return c.api.DescribeOrganization(ctx, &organizations.DescribeOrganizationInput{})
	})
	if err != nil {
		return org.OrganizationRecord{}, err
	}
	if out.Organization == nil {
		return org.OrganizationRecord{}, wrapAWSError(errEmptyResponse, "DescribeOrganization")
	}

	return org.OrganizationRecord{
		ID:                  aws.ToString(out.Organization.Id),
		Arn:                 aws.ToString(out.Organization.Arn),
		ManagementAccountID: aws.ToString(out.Organization.MasterAccountId),
		FeatureSet:          string(out.Organization.FeatureSet),
	}, nil
}

func awsChildType(childType org.ChildType) types.ChildType {
	if childType == org.ChildTypeUnit {
		return types.ChildTypeOrganizationalUnit
	}
	return types.ChildTypeAccount
}

// call runs fn, retrying with exponential backoff while the API throttles.
// Any other error is returned immediately.
func call[T any](ctx context.Context, c *Client, operation string, fn func(context.Context) (T, error)) (T, error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	started := time.Now()

	b := backoff.NewExponentialBackOff()
	if c.retry.InitialInterval > 0 {
		b.InitialInterval = c.retry.InitialInterval
	}
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.metrics.DirectoryRetriesTotal.Add(ctx, 1, attrs)
			log.Debug().Err(err).Str("operation", operation).Dur("backoff", next).Msg("organizations request throttled, retrying")
		}),
	}
	if c.retry.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(c.retry.MaxTries))
	}
	if c.retry.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.retry.MaxElapsedTime))
	}

	out, err := backoff.Retry(ctx, func() (T, error) {
		c.metrics.DirectoryRequestsTotal.Add(ctx, 1, attrs)

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if isThrottle(err) {
			c.metrics.DirectoryThrottlesTotal.Add(ctx, 1, attrs)
			return out, err
		}
		return out, backoff.Permanent(err)
	}, opts...)

	c.metrics.DirectoryRequestDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	if err != nil {
		c.metrics.DirectoryErrorsTotal.Add(ctx, 1, attrs)
		var zero T
		return zero, wrapAWSError(err, operation)
	}

	return out, nil
}
