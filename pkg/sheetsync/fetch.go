package sheetsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
)

const (
	defaultFetchTimeout       = 30 * time.Second
	defaultFetchAttempts      = 4
	defaultFetchRetryInterval = 500 * time.Millisecond
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var xlsxMagic = []byte("PK\x03\x04")

// Fetcher downloads the published spreadsheet, or reads it from disk when
// the source is not an http(s) URL.
type Fetcher struct {
	log           *slog.Logger
	client        *resty.Client
	maxAttempts   uint
	retryInterval time.Duration
}

type FetcherConfig struct {
	Logger        *slog.Logger
	Client        *resty.Client
	Timeout       time.Duration
	MaxAttempts   uint
	RetryInterval time.Duration
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultFetchAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultFetchRetryInterval
	}
	client := cfg.Client
	if client == nil {
		client = resty.New()
		client.SetTimeout(cfg.Timeout)
	}
	return &Fetcher{
		log:           cfg.Logger,
		client:        client,
		maxAttempts:   cfg.MaxAttempts,
		retryInterval: cfg.RetryInterval,
	}, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch returns the raw spreadsheet bytes and their detected format.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, Format, error) {
	if source == "" {
		return nil, "", errors.New("sheet source is empty")
	}
	if !isRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read sheet file: %w", err)
		}
		return data, detectFormat(source, "", data), nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryInterval

	var contentType string
	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		resp, err := f.client.R().SetContext(ctx).Get(source)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			f.log.Warn("sync: sheet download failed, retrying", "error", err)
			return nil, err
		}
		status := resp.StatusCode()
		switch {
		case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
			f.log.Warn("sync: sheet download failed, retrying", "status", status)
			return nil, fmt.Errorf("unexpected status %d", status)
		case status != http.StatusOK:
			return nil, backoff.Permanent(fmt.Errorf("unexpected status %d", status))
		}
		contentType = resp.Header().Get("Content-Type")
		return resp.Body(), nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.maxAttempts),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download sheet: %w", err)
	}
	return data, detectFormat(source, contentType, data), nil
}

func detectFormat(source, contentType string, data []byte) Format {
	if bytes.HasPrefix(data, xlsxMagic) {
		return FormatXLSX
	}
	if strings.Contains(contentType, "spreadsheetml") {
		return FormatXLSX
	}
	if strings.EqualFold(filepath.Ext(source), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}
