package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultRegion is used when neither the config nor AWS_REGION names one.
const DefaultRegion = "us-east-1"

// S3Config configures the S3 client built by Open. Empty credential fields
// fall back to AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN.
type S3Config struct {
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	PathStyle       bool   `yaml:"path_style,omitempty" json:"path_style,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"-"`
	SessionToken    string `yaml:"session_token,omitempty" json:"-"`
}

func (c S3Config) region() string {
	if c.Region != "" {
		return c.Region
	}
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return DefaultRegion
}

func (c S3Config) credentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			SessionToken:    c.SessionToken,
			Source:          "wombscape",
		}
		if creds.AccessKeyID == "" {
			creds.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
			creds.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
			creds.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
			creds.Source = "environment"
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, fmt.Errorf("storage: no S3 credentials in config or environment")
		}
		return creds, nil
	})
}

// Client builds an *s3.Client from the config.
func (c S3Config) Client() *s3.Client {
	opts := s3.Options{
		Region:       c.region(),
		Credentials:  aws.NewCredentialsCache(c.credentials()),
		UsePathStyle: c.PathStyle,
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
	}
	return s3.New(opts)
}

// ParseS3URL splits s3://bucket/key into bucket and key.
func ParseS3URL(target string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(target, "s3://")
	if !ok {
		return "", "", fmt.Errorf("storage: not an s3 URL: %q", target)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("storage: s3 URL needs a bucket and an object key: %q", target)
	}
	return bucket, key, nil
}

// Open resolves a render target into a store and a key. Targets starting
// with s3:// go to S3; anything else is a local file path whose directory
// becomes the store root.
func Open(ctx context.Context, target string, cfg S3Config) (Store, string, error) {
	if strings.HasPrefix(target, "s3://") {
		bucket, key, err := ParseS3URL(target)
		if err != nil {
			return nil, "", err
		}
		return NewS3(cfg.Client(), bucket, ""), key, nil
	}
	if target == "" {
		return nil, "", fmt.Errorf("storage: empty target")
	}
	local, err := NewLocal(filepath.Dir(target))
	if err != nil {
		return nil, "", err
	}
	return local, filepath.Base(target), nil
}
