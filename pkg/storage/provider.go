// Package storage uploads host files to an S3-compatible bucket under a
// deterministic key and removes them again by recomputing that key.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/unalkalkan/s3provider/pkg/types"
)

const (
	DefaultRegion      = "us-east-1"
	DefaultACL         = string(s3types.ObjectCannedACLPublicRead)
	DefaultConcurrency = 4
)

const (
	OpUpload = "upload"
	OpDelete = "delete"
)

// Uploader performs (possibly multipart) object uploads.
// *manager.Uploader satisfies it.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ObjectAPI is the subset of *s3.Client the provider calls directly.
type ObjectAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Observer is told about every finished backend call.
type Observer interface {
	ObserveOperation(op string, duration time.Duration, bytes int64, err error)
}

// Option configures optional provider collaborators
type Option func(*Provider)

// WithLogger sets the logger backend failures are reported to
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver registers an observer for backend calls
func WithObserver(o Observer) Option {
	return func(p *Provider) {
		p.observer = o
	}
}

// Provider stores host files in a single bucket.
// It holds no mutable state and is safe for concurrent use.
type Provider struct {
	cfg      types.ProviderConfig
	uploader Uploader
	api      ObjectAPI
	defaults []Param
	logger   *zap.Logger
	observer Observer
}

// Init validates cfg and builds a provider backed by a real S3 client
func Init(ctx context.Context, cfg types.ProviderConfig, opts ...Option) (*Provider, error) {
	cfg = WithDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return New(cfg, newUploader(client, cfg.Upload), client, opts...)
}

// New builds a provider over the given backend primitives.
func New(cfg types.ProviderConfig, uploader Uploader, api ObjectAPI, opts ...Option) (*Provider, error) {
	cfg = WithDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if uploader == nil || api == nil {
		return nil, fmt.Errorf("%w: backend client is required", ErrInvalidConfig)
	}

	defaults, err := ParamsFromMap(cfg.Params)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:      cloneConfig(cfg),
		uploader: uploader,
		api:      api,
		defaults: defaults,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("bucket", cfg.Bucket))

	return p, nil
}

// WithDefaults fills unset optional fields of cfg
func WithDefaults(cfg types.ProviderConfig) types.ProviderConfig {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.ACL == "" {
		cfg.ACL = DefaultACL
	}
	if cfg.Upload.Concurrency <= 0 {
		cfg.Upload.Concurrency = DefaultConcurrency
	}
	cfg.Folder = strings.Trim(cfg.Folder, "/")
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

// ValidateConfig reports whether cfg has everything needed to talk to the backend
func ValidateConfig(cfg types.ProviderConfig) error {
	if cfg.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}
	if cfg.Credentials.AccessKeyID == "" || cfg.Credentials.SecretAccessKey == "" {
		return fmt.Errorf("%w: credentials are required", ErrInvalidConfig)
	}
	if cfg.Upload.PartSizeMB < 0 {
		return fmt.Errorf("%w: negative part size", ErrInvalidConfig)
	}
	if cfg.Upload.PartSizeMB > 0 && cfg.Upload.PartSizeMB<<20 < manager.MinUploadPartSize {
		return fmt.Errorf("%w: part size must be at least %d bytes", ErrInvalidConfig, manager.MinUploadPartSize)
	}
	return nil
}

// Config returns a copy of the provider configuration
func (p *Provider) Config() types.ProviderConfig {
	return cloneConfig(p.cfg)
}

// Key returns the object key for f under this provider's configuration
func (p *Provider) Key(f *types.File) string {
	return Key(p.cfg, f)
}

// Upload stores the file's payload and sets f.URL on success.
// On failure f.URL is left untouched and the error is logged and returned.
func (p *Provider) Upload(ctx context.Context, f *types.File, params ...Param) error {
	if err := checkFile(f); err != nil {
		return err
	}

	body, size, err := payloadBody(f)
	if err != nil {
		return err
	}

	key := p.Key(f)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ACL:         s3types.ObjectCannedACL(p.cfg.ACL),
		Body:        body,
		ContentType: aws.String(f.Mime),
	}
	for _, param := range p.defaults {
		param(input)
	}
	for _, param := range params {
		param(input)
	}

	start := time.Now()
	out, err := p.uploader.Upload(ctx, input)
	p.observe(OpUpload, start, size, err)
	if err != nil {
		return p.fail(OpUpload, key, err)
	}

	if p.cfg.BaseURL != "" {
		f.URL = p.cfg.BaseURL + "/" + key
	} else {
		f.URL = out.Location
	}

	p.logger.Debug("file uploaded", zap.String("key", key), zap.String("url", f.URL))
	return nil
}

// UploadStream is the stream entry point of the host contract. It behaves
// exactly like Upload.
func (p *Provider) UploadStream(ctx context.Context, f *types.File, params ...Param) error {
	return p.Upload(ctx, f, params...)
}

// Delete removes the object an earlier Upload of f created.
func (p *Provider) Delete(ctx context.Context, f *types.File, params ...DeleteParam) error {
	if err := checkFile(f); err != nil {
		return err
	}

	key := p.Key(f)
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}
	for _, param := range params {
		param(input)
	}

	start := time.Now()
	_, err := p.api.DeleteObject(ctx, input)
	p.observe(OpDelete, start, 0, err)
	if err != nil {
		return p.fail(OpDelete, key, err)
	}

	p.logger.Debug("file deleted", zap.String("key", key))
	return nil
}

// Ping checks that the bucket exists and is reachable with the configured credentials
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.cfg.Bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", p.cfg.Bucket, err)
	}
	return nil
}

func (p *Provider) fail(op, key string, err error) error {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.String("code", apiErr.ErrorCode()))
	}
	p.logger.Error("s3 operation failed", fields...)

	return &OperationError{Op: op, Bucket: p.cfg.Bucket, Key: key, Err: err}
}

func (p *Provider) observe(op string, start time.Time, size int64, err error) {
	if p.observer != nil {
		p.observer.ObserveOperation(op, time.Since(start), size, err)
	}
}

func checkFile(f *types.File) error {
	if f == nil {
		return fmt.Errorf("%w: nil file", ErrInvalidFile)
	}
	if f.Hash == "" {
		return fmt.Errorf("%w: hash is required", ErrInvalidFile)
	}
	return nil
}

// payloadBody returns the request body for f and its size when known
func payloadBody(f *types.File) (io.Reader, int64, error) {
	switch pl := f.Payload.(type) {
	case types.StreamPayload:
		if pl.Reader == nil {
			return nil, 0, fmt.Errorf("%w: stream payload has no reader", ErrInvalidFile)
		}
		return pl.Reader, f.Size, nil
	case types.BufferPayload:
		return bytes.NewReader(pl.Data), int64(len(pl.Data)), nil
	case nil:
		return nil, 0, fmt.Errorf("%w: no payload", ErrInvalidFile)
	default:
		return nil, 0, fmt.Errorf("%w: unsupported payload %T", ErrInvalidFile, pl)
	}
}

func cloneConfig(cfg types.ProviderConfig) types.ProviderConfig {
	cfg.Params = maps.Clone(cfg.Params)
	cfg.ClientOptions = maps.Clone(cfg.ClientOptions)
	return cfg
}
