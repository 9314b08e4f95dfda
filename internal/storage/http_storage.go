package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CardFetcher retrieves raw card image bytes from a remote source. Decoding
// happens later in the preprocessing step, so fetchers deal in bytes plus the
// declared media type only.
type CardFetcher interface {
	FetchCard(ctx context.Context, imageURL string) ([]byte, string, error)
}

// HTTPCardFetcher implements CardFetcher over plain HTTP(S)
type HTTPCardFetcher struct {
	client *http.Client
}

// NewHTTPCardFetcher creates an HTTP card image fetcher tuned for small
// single-image downloads. A non-positive timeout falls back to 30s.
func NewHTTPCardFetcher(timeout time.Duration) CardFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPCardFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

func (h *HTTPCardFetcher) FetchCard(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, */*")
	req.Header.Set("User-Agent", "Go-Card-Extractor/1.0")

	// Input acquisition may retry transient upstream failures; the inference
	// call itself never does.
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if err != nil {
			lastErr = err
		} else {
			code := resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			resp = nil

			// 4xx means the URL itself is wrong; retrying cannot help
			if code >= 400 && code < 500 {
				return nil, "", fmt.Errorf("client error: status code %d", code)
			}
			lastErr = fmt.Errorf("server error: status code %d", code)
		}

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if resp == nil {
		return nil, "", fmt.Errorf("failed to fetch card image after 3 attempts: %w", lastErr)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read card image body: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}
