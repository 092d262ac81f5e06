package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/buildledger/docpipe/internal/common"
)

// S3Fetcher resolves s3://bucket/key references.
type S3Fetcher struct {
	client  *s3.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewS3Fetcher(ctx context.Context, cfg common.FetchConfig, logger *slog.Logger) (*S3Fetcher, error) {
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Fetcher{
		client:  s3.NewFromConfig(awsCfg),
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := splitS3Ref(ref)
	if err != nil {
		return nil, common.NewFetchError(ref, err)
	}

	start := time.Now()
	getCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		getCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.client.GetObject(getCtx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		f.logger.Error("fetch.s3.get_error", "ref", ref, "error", err)
		return nil, common.NewFetchError(ref, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewFetchError(ref, err)
	}

	f.logger.Info("fetch.s3.ok",
		"ref", ref, "bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}

func splitS3Ref(ref string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(ref, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 reference %q", ref)
	}
	return bucket, key, nil
}
