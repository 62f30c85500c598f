package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultIconURL serves "<code>@2x.png" condition icons.
const DefaultIconURL = "https://openweathermap.org/img/wn"

// IconSource returns the raster icon for a provider icon code such as "10d".
type IconSource interface {
	Icon(ctx context.Context, code string) (image.Image, error)
}

// HTTPIcons fetches icons from the provider's image host.
type HTTPIcons struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHTTPIcons(baseURL string) *HTTPIcons {
	if baseURL == "" {
		baseURL = DefaultIconURL
	}
	return &HTTPIcons{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPIcons) Icon(ctx context.Context, code string) (image.Image, error) {
	u := h.BaseURL + "/" + url.PathEscape(code) + "@2x.png"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icon %s: %w", code, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon %s: status %d", code, resp.StatusCode)
	}
	img, err := png.Decode(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("icon %s: decode: %w", code, err)
	}
	return img, nil
}
