package partitioner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/steadyum/steadyum-go/cmn/cos"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// handleRayCast is the Client API's RayCast supplement (SPEC_FULL.md
// §4.7): the Partitioner has no solver of its own, so it resolves
// which Worker's region the ray originates in and forwards the query
// to that Worker's own POST /raycast — the same
// resolve-owner-then-forward idiom ais/prxs3.go uses to redirect S3
// object requests to the node that owns the bucket.
func (p *Partitioner) handleRayCast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var q simobjects.RayCastQuery
	if err := httpJSON.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSONErr(w, err, http.StatusBadRequest)
		return
	}

	width := int64(p.cfg.RegionWidth)
	origin := regionmath.AABB{
		Mins: [3]float64{q.Origin.X, q.Origin.Y, q.Origin.Z},
		Maxs: [3]float64{q.Origin.X, q.Origin.Y, q.Origin.Z},
	}
	region := regionmath.RegionOf(origin, width)

	p.mu.Lock()
	h, ok := p.assigned[region.Key()]
	p.mu.Unlock()
	if !ok {
		// No Worker owns this region (yet): nothing there to hit.
		json.NewEncoder(w).Encode(simobjects.RayCastResponse{})
		return
	}

	resp, err := p.forwardRayCast(r.Context(), h.port, q)
	if err != nil {
		writeJSONErr(w, err, http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (p *Partitioner) forwardRayCast(ctx context.Context, port uint32, q simobjects.RayCastQuery) (simobjects.RayCastResponse, error) {
	body, err := httpJSON.Marshal(q)
	if err != nil {
		return simobjects.RayCastResponse{}, err
	}

	url := fmt.Sprintf("http://127.0.0.1:%d/raycast", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return simobjects.RayCastResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return simobjects.RayCastResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return simobjects.RayCastResponse{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return simobjects.RayCastResponse{}, fmt.Errorf("worker raycast: status %d: %s", resp.StatusCode, cos.BHead(respBody))
	}

	var out simobjects.RayCastResponse
	if err := httpJSON.Unmarshal(respBody, &out); err != nil {
		return simobjects.RayCastResponse{}, err
	}
	return out, nil
}
