// Package images probes remote images for their pixel dimensions. The
// probe is the only network fetch the update pipeline depends on, so it is
// the one place retries are allowed: bounded attempts with backoff.
package images

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const maxImageBytes = 10 << 20

type Dimensions struct {
	Width  int
	Height int
}

type Prober struct {
	client      *http.Client
	maxAttempts uint64
	backoff     time.Duration
}

func NewProber(timeout time.Duration, maxAttempts uint64, backoff time.Duration) *Prober {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Prober{
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Probe fetches the image at url and decodes its dimensions. Failures are
// retried with exponential backoff up to the configured attempt count.
func (p *Prober) Probe(ctx context.Context, url string) (Dimensions, error) {
	var dims Dimensions

	backoff := retry.WithMaxRetries(p.maxAttempts-1, retry.NewExponential(p.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		d, err := p.fetch(ctx, url)
		if err != nil {
			return retry.RetryableError(err)
		}
		dims = d
		return nil
	})
	if err != nil {
		return Dimensions{}, fmt.Errorf("probe image %s: %w", url, err)
	}

	return dims, nil
}

func (p *Prober) fetch(ctx context.Context, url string) (Dimensions, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Dimensions{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Dimensions{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Dimensions{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	config, _, err := image.DecodeConfig(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image config: %w", err)
	}

	return Dimensions{Width: config.Width, Height: config.Height}, nil
}
