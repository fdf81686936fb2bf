package openvsx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/entity"
)

const (
	DefaultAPIURL = "https://open-vsx.org/api"

	defaultTimeout = 30 * time.Second
	pathSeparator  = "/"
)

// metadata is the part of the registry response the engine cares
// about. Newer registry versions expose files.download, older ones
// downloads.universal.
type metadata struct {
	Files struct {
		Download string `json:"download"`
	} `json:"files"`
	Downloads struct {
		Universal string `json:"universal"`
	} `json:"downloads"`
}

// Client queries the Open VSX registry for extension availability.
type Client struct {
	apiURL string
	cl     *http.Client
	log    *slog.Logger
}

func NewClient(apiURL string, log *slog.Logger) *Client {
	return NewClientWithHTTPClient(apiURL, &http.Client{Timeout: defaultTimeout}, log)
}

func NewClientWithHTTPClient(apiURL string, cl *http.Client, log *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		apiURL: strings.TrimRight(apiURL, pathSeparator),
		cl:     cl,
		log:    log.With(slog.String("item", "OpenVSXClient")),
	}
}

// Lookup returns the registry download URL for the given id. A
// registry miss, a transport failure and a response without a download
// URL all collapse into common.ErrExtensionNotFound: any registry
// trouble sends the caller to the marketplace fallback.
func (c *Client) Lookup(ctx context.Context, id entity.ExtensionID) (string, error) {
	url := c.apiURL + pathSeparator + id.Publisher + pathSeparator + id.Name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("cannot build registry request: %w", err)
	}

	resp, err := c.cl.Do(req)
	if err != nil {
		c.log.Debug("Registry request failed", slog.String("id", id.String()), slog.Any("error", err))

		return "", common.ErrExtensionNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Debug("Registry miss", slog.String("id", id.String()), slog.Int("status", resp.StatusCode))

		return "", common.ErrExtensionNotFound
	}

	var m metadata
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		c.log.Debug("Cannot decode registry response", slog.String("id", id.String()), slog.Any("error", err))

		return "", common.ErrExtensionNotFound
	}

	if m.Files.Download != "" {
		return m.Files.Download, nil
	}

	if m.Downloads.Universal != "" {
		return m.Downloads.Universal, nil
	}

	return "", common.ErrExtensionNotFound
}
