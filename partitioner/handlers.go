package partitioner

import (
	"encoding/json"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/simobjects"
)

var httpJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Mux builds the Partitioner's control-plane HTTP surface: the five
// spec.md §4.4 endpoints plus /raycast and the ambient /healthz route
// (serveControlPlane adds /metrics). Modeled on ais/prxs3.go's handler idiom (jsoniter decode,
// nlog verbosity-gated logging) adapted from aistore's S3-passthrough
// surface to this simpler fixed-route control plane.
func (p *Partitioner) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/initialized", p.handleInitialized)
	mux.HandleFunc("/region", p.handleRegion)
	mux.HandleFunc("/insert", func(w http.ResponseWriter, r *http.Request) {
		var req simobjects.InsertRequest
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		} else if err := httpJSON.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONErr(w, err, http.StatusBadRequest)
		} else if err := p.Insert(r.Context(), req); err != nil {
			writeJSONErr(w, err, http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/list_regions", p.handleListRegions)
	mux.HandleFunc("/start_stop", p.handleStartStop)
	mux.HandleFunc("/raycast", p.handleRayCast)
	mux.HandleFunc("/healthz", p.handleHealthz)
	return mux
}

func writeJSONErr(w http.ResponseWriter, err error, status int) {
	http.Error(w, err.Error(), status)
}

func (p *Partitioner) handleInitialized(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req simobjects.InitializedRequest
	if err := httpJSON.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErr(w, err, http.StatusBadRequest)
		return
	}
	if req.UUID == uuid.Nil {
		writeJSONErr(w, errors.New("missing worker uuid"), http.StatusBadRequest)
		return
	}
	if nlog.FastV(4, "partitioner") {
		nlog.Infof("partitioner: /initialized %s", req.UUID)
	}
	if err := p.Initialized(req.UUID); err != nil {
		writeJSONErr(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (p *Partitioner) handleRegion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req simobjects.RegionRequest
	if err := httpJSON.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErr(w, err, http.StatusBadRequest)
		return
	}
	assignment, err := p.AssignRegion(r.Context(), req.Region)
	if err != nil {
		writeJSONErr(w, err, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assignment)
}

func (p *Partitioner) handleListRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p.ListRegions())
}

func (p *Partitioner) handleStartStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req simobjects.StartStopRequest
	if err := httpJSON.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErr(w, err, http.StatusBadRequest)
		return
	}
	if err := p.StartStop(r.Context(), req.Running); err != nil {
		writeJSONErr(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (p *Partitioner) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
