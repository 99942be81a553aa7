// Package clientapi is the thin external-facing client for the
// Partitioner's HTTP surface: insert, list_regions, start_stop, and
// raycast. Grounded on the teacher's cmd/cli/cli/object.go idiom of a
// small helper wrapping an http.Client and jsoniter against a fixed
// server base URL, simplified here to a single-purpose library (no
// cli.Context/flag parsing) since this is a programmatic client, not a
// CLI command.
package clientapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/steadyum/steadyum-go/cmn/cos"
	"github.com/steadyum/steadyum-go/simobjects"
)

var wireJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a thin wrapper around the Partitioner's control-plane and
// bulk-insert HTTP listeners. One value per Partitioner endpoint pair;
// safe for concurrent use since http.Client is.
type Client struct {
	// ControlBaseURL points at the control-plane listener (spec.md
	// §4.4's /initialized /region /list_regions /start_stop /raycast
	// /healthz routes), e.g. "http://127.0.0.1:3535".
	ControlBaseURL string

	// BulkBaseURL points at the fasthttp-served bulk /insert listener,
	// e.g. "http://127.0.0.1:3536". May equal ControlBaseURL if the
	// Partitioner was configured with both on the same address.
	BulkBaseURL string

	HTTPClient *http.Client
}

// New returns a Client with a default 30s-timeout http.Client, mirroring
// the teacher's cmd/cli default transport.
func New(controlBaseURL, bulkBaseURL string) *Client {
	return &Client{
		ControlBaseURL: controlBaseURL,
		BulkBaseURL:    bulkBaseURL,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) postJSON(ctx context.Context, baseURL, path string, body, out any) error {
	buf, err := wireJSON.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, cos.BHead(respBody))
	}
	if out == nil {
		return nil
	}
	return wireJSON.Unmarshal(respBody, out)
}

// Insert publishes a batch of bodies (and any impulse joints between
// them) to the bulk-ingest path. Routed to BulkBaseURL since this is
// the high-throughput data path split off from the control plane
// (SPEC_FULL.md §4.4).
func (c *Client) Insert(ctx context.Context, req simobjects.InsertRequest) error {
	return c.postJSON(ctx, c.BulkBaseURL, "/insert", req, nil)
}

// ListRegions fetches the current region-to-worker assignment snapshot.
func (c *Client) ListRegions(ctx context.Context) (simobjects.RegionList, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ControlBaseURL+"/list_regions", nil)
	if err != nil {
		return simobjects.RegionList{}, err
	}
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return simobjects.RegionList{}, err
	}
	defer resp.Body.Close()

	var rl simobjects.RegionList
	if err := wireJSON.NewDecoder(resp.Body).Decode(&rl); err != nil {
		return simobjects.RegionList{}, err
	}
	return rl, nil
}

// StartStop toggles the simulation's global play/pause state.
func (c *Client) StartStop(ctx context.Context, running bool) error {
	return c.postJSON(ctx, c.ControlBaseURL, "/start_stop", simobjects.StartStopRequest{Running: running}, nil)
}

// RayCast issues a ray-cast query against whichever region the ray
// originates in.
func (c *Client) RayCast(ctx context.Context, q simobjects.RayCastQuery) (simobjects.RayCastResponse, error) {
	var resp simobjects.RayCastResponse
	err := c.postJSON(ctx, c.ControlBaseURL, "/raycast", q, &resp)
	return resp, err
}
