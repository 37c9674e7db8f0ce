package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/require"
)

type fakeSTS struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return f.out, f.err
}

func TestRoleARN(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeSTS
		want    string
		wantErr bool
	}{
		{
			name: "commercial partition",
			api: &fakeSTS{out: &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws:iam::123456789012:user/alice"),
			}},
			want: "arn:aws:iam::123456789012:role/OrgReader",
		},
		{
			name: "gov cloud partition",
			api: &fakeSTS{out: &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws-us-gov:sts::123456789012:assumed-role/admin/session"),
			}},
			want: "arn:aws-us-gov:iam::123456789012:role/OrgReader",
		},
		{
			name:    "missing account",
			api:     &fakeSTS{out: &sts.GetCallerIdentityOutput{}},
			wantErr: true,
		},
		{
			name:    "sts failure",
			api:     &fakeSTS{err: errors.New("ExpiredToken")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arn, err := RoleARN(context.Background(), tt.api, "OrgReader")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, arn)
		})
	}
}

func TestPartition(t *testing.T) {
	require.Equal(t, "aws", partition(""))
	require.Equal(t, "aws", partition("not-an-arn"))
	require.Equal(t, "aws-cn", partition("arn:aws-cn:iam::123456789012:root"))
}

func TestLoadAWSConfig_DefaultsRegion(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	cfg, err := LoadAWSConfig(context.Background(), SessionOptions{})
	require.NoError(t, err)
	require.Equal(t, "us-east-1", cfg.Region)

	cfg, err = LoadAWSConfig(context.Background(), SessionOptions{Region: "ap-southeast-2"})
	require.NoError(t, err)
	require.Equal(t, "ap-southeast-2", cfg.Region)
}
