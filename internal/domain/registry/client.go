// Package registry is the client side of the Register Document Set-b
// transaction: it forwards submission metadata to the document registry and
// relays the registry's verdict.
package registry

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// ErrRegistryUnavailable wraps any transport or protocol failure that
// prevents the registry from rendering a verdict.
var ErrRegistryUnavailable = errors.New("document registry not available")

// Client submits document metadata to the registry. An explicit rejection by
// the registry is returned as a non-success response with a nil error; the
// error return is reserved for failures to reach the registry at all.
type Client interface {
	Submit(ctx context.Context, req *ebxml.SubmitObjectsRequest) (*ebxml.RegistryResponse, error)
}

// HTTPClient talks to a registry endpoint over HTTP, posting the
// SubmitObjectsRequest as XML.
type HTTPClient struct {
	url                string
	repositoryUniqueID string
	client             *http.Client
	log                zerolog.Logger
}

func NewHTTPClient(url, repositoryUniqueID string, timeout time.Duration, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		url:                url,
		repositoryUniqueID: repositoryUniqueID,
		client:             &http.Client{Timeout: timeout},
		log:                log,
	}
}

// Submit stamps each document entry with this repository's unique id and
// posts the metadata to the registry.
func (c *HTTPClient) Submit(ctx context.Context, req *ebxml.SubmitObjectsRequest) (*ebxml.RegistryResponse, error) {
	for _, eo := range req.ExtrinsicObjects {
		if !ebxml.HasSlot(eo.Slots, ebxml.SlotRepositoryUniqueID) {
			eo.AddSlot(ebxml.SlotRepositoryUniqueID, c.repositoryUniqueID)
		}
	}

	body, err := xml.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/xml")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Error().Err(err).Str("url", c.url).Msg("registry request failed")
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Str("url", c.url).Msg("registry returned unexpected status")
		return nil, fmt.Errorf("%w: registry returned status %d", ErrRegistryUnavailable, resp.StatusCode)
	}

	var rr ebxml.RegistryResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("%w: decode registry response: %v", ErrRegistryUnavailable, err)
	}
	return &rr, nil
}
