package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

var partitionerJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// AnnounceInitialized calls the Partitioner's POST /initialized, the
// process's one-time announcement that it has subscribed to its
// command topic and is ready to receive an AssignRegion (spec.md
// §4.4). Callers should wait for WaitStarted before calling this.
func (w *Worker) AnnounceInitialized(ctx context.Context) error {
	body, err := partitionerJSON.Marshal(simobjects.InitializedRequest{UUID: w.UUID})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.PartitionerURL+"/initialized", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("partitioner /initialized: status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// resolveRegionOwner calls the Partitioner's idempotent POST /region,
// returning the Worker UUID that owns (or has just been assigned) dest
// — spec.md §4.6: "sends them directly to the destination Worker
// (itself obtained from the Partitioner)."
func (w *Worker) resolveRegionOwner(ctx context.Context, dest regionmath.Region) (simobjects.RegionAssignment, error) {
	reqBody, err := partitionerJSON.Marshal(simobjects.RegionRequest{Region: dest})
	if err != nil {
		return simobjects.RegionAssignment{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.PartitionerURL+"/region", bytes.NewReader(reqBody))
	if err != nil {
		return simobjects.RegionAssignment{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return simobjects.RegionAssignment{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return simobjects.RegionAssignment{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return simobjects.RegionAssignment{}, fmt.Errorf("partitioner /region: status %d: %s", resp.StatusCode, string(body))
	}

	var assignment simobjects.RegionAssignment
	if err := partitionerJSON.Unmarshal(body, &assignment); err != nil {
		return simobjects.RegionAssignment{}, err
	}
	return assignment, nil
}
