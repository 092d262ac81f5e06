package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buildledger/docpipe/internal/common"
)

// Fetcher resolves a document reference to raw bytes. A single attempt;
// retries are a pipeline-level concern and do not belong here.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// HTTPFetcher downloads http(s) references (typically signed URLs) with
// a bounded timeout and response size cap.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, common.NewFetchError(ref, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("fetch.http.send_error", "ref", ref, "error", err)
		return nil, common.NewFetchError(ref, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("fetch.http.body_close_error", "ref", ref, "error", err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		f.logger.Error("fetch.http.bad_status", "ref", ref, "status", resp.StatusCode)
		return nil, common.NewFetchError(ref, fmt.Errorf("non-2xx status: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, common.NewFetchError(ref, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, common.NewFetchError(ref, fmt.Errorf("document exceeds %d bytes", f.maxBytes))
	}

	f.logger.Info("fetch.http.ok",
		"ref", ref, "bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}

// Resolver dispatches on the reference scheme: s3:// references go to
// the S3 fetcher when one is configured, everything else over HTTP.
type Resolver struct {
	HTTP *HTTPFetcher
	S3   *S3Fetcher
}

func (r *Resolver) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "s3://") {
		if r.S3 == nil {
			return nil, common.NewFetchError(ref, fmt.Errorf("s3 fetcher not configured"))
		}
		return r.S3.Fetch(ctx, ref)
	}
	return r.HTTP.Fetch(ctx, ref)
}
