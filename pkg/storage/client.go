package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/unalkalkan/s3provider/pkg/types"
)

// newS3Client builds the S3 client for cfg. cfg must already be validated.
func newS3Client(ctx context.Context, cfg types.ProviderConfig) (*s3.Client, error) {
	clientOpts, err := clientOptions(cfg.ClientOptions)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Credentials.AccessKeyID,
			cfg.Credentials.SecretAccessKey,
			cfg.Credentials.SessionToken,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// newUploader wraps client in a multipart uploader tuned by opts
func newUploader(client manager.UploadAPIClient, opts types.UploadOpts) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.Concurrency = opts.Concurrency
		u.LeavePartsOnError = opts.LeavePartsOnError
		if opts.PartSizeMB > 0 {
			u.PartSize = opts.PartSizeMB << 20
		}
	})
}

// clientOptions translates the passthrough map into S3 client options
func clientOptions(m map[string]string) ([]func(*s3.Options), error) {
	var opts []func(*s3.Options)
	for k, v := range m {
		switch k {
		case "use_accelerate", "use_arn_region", "disable_multi_region_access_points":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: client option %s=%q: %v", ErrInvalidConfig, k, v, err)
			}
			opts = append(opts, boolClientOption(k, b))
		case "retry_max_attempts":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: client option %s=%q", ErrInvalidConfig, k, v)
			}
			opts = append(opts, func(o *s3.Options) { o.RetryMaxAttempts = n })
		default:
			return nil, fmt.Errorf("%w: client option %q", ErrUnknownParam, k)
		}
	}
	return opts, nil
}

func boolClientOption(name string, b bool) func(*s3.Options) {
	return func(o *s3.Options) {
		switch name {
		case "use_accelerate":
			o.UseAccelerate = b
		case "use_arn_region":
			o.UseARNRegion = b
		case "disable_multi_region_access_points":
			o.DisableMultiRegionAccessPoints = b
		}
	}
}
