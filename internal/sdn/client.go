// Package sdn ingests the OFAC Specially Designated Nationals list and
// publishes immutable snapshots to the sanctions index holder.
package sdn

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
)

// SnapshotSource produces one full list snapshot per call. Implemented
// by the HTTP downloader and the local-file loader.
type SnapshotSource interface {
	Load(ctx context.Context) ([]domain.SanctionEntity, Meta, error)
}

// Meta describes one loaded snapshot.
type Meta struct {
	PublishDate time.Time `json:"publish_date,omitzero"`
	Records     int       `json:"records"`
	Origin      string    `json:"origin"`
}

// Client downloads the SDN list over HTTP. The zip bundle is tried
// first; the plain XML URL is the fallback, since the publisher has
// historically broken one or the other.
type Client struct {
	httpClient *http.Client
	zipURL     string
	xmlURL     string
	logger     *slog.Logger
}

// NewClient creates an SDN downloader.
func NewClient(zipURL, xmlURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		zipURL:     zipURL,
		xmlURL:     xmlURL,
		logger:     logger,
	}
}

// Load downloads and parses the current list.
func (c *Client) Load(ctx context.Context) ([]domain.SanctionEntity, Meta, error) {
	raw, origin, err := c.download(ctx)
	if err != nil {
		return nil, Meta{}, err
	}

	entities, meta, err := Parse(raw)
	if err != nil {
		return nil, Meta{}, err
	}
	meta.Origin = origin
	return entities, meta, nil
}

func (c *Client) download(ctx context.Context) ([]byte, string, error) {
	if c.zipURL != "" {
		data, err := c.downloadZip(ctx)
		if err == nil {
			return data, c.zipURL, nil
		}
		c.logger.Warn("SDN zip download failed, falling back to plain XML", "error", err)
	}

	data, err := c.get(ctx, c.xmlURL)
	if err != nil {
		return nil, "", fmt.Errorf("download SDN XML: %w", err)
	}
	return data, c.xmlURL, nil
}

func (c *Client) downloadZip(ctx context.Context) ([]byte, error) {
	data, err := c.get(ctx, c.zipURL)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		if len(f.Name) < 4 || f.Name[len(f.Name)-4:] != ".xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in zip: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("zip contains no XML file")
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return io.ReadAll(resp.Body)
}
