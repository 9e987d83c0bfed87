package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"ontolarium/internal/domain"
	"ontolarium/internal/repository"
	"ontolarium/internal/service"
)

// StageHandler handles diagram API requests
type StageHandler struct {
	stage *service.Stage
	svc   *service.GraphService
}

// NewStageHandler creates a new stage handler
func NewStageHandler(stage *service.Stage, svc *service.GraphService) *StageHandler {
	return &StageHandler{stage: stage, svc: svc}
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps domain sentinel errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDanglingEdge), errors.Is(err, domain.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoGraph):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// emptyGraphJSON is what GET /api/graph serves before anything is loaded
const emptyGraphJSON = `{"nodes":[],"edges":[]}`

// GetGraph returns the current graph with its live geometry
func (h *StageHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export("json")
	if err != nil {
		if errors.Is(err, service.ErrNoGraph) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, emptyGraphJSON)
			return
		}
		log.Printf("Failed to export graph: %v", err)
		h.writeError(w, "Failed to export graph", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// ReplaceGraph stages a whole snapshot from the request body. A snapshot
// that fails integrity checks is rejected and the current graph stays.
func (h *StageHandler) ReplaceGraph(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	format := "json"
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = "yaml"
	}

	if err := h.svc.Import(data, format); err != nil {
		h.writeError(w, "Invalid graph", err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateRequest asks a generator backend for a fresh graph
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate builds a graph from a prompt and stages it
func (h *StageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, "Prompt required", "", http.StatusBadRequest)
		return
	}

	if _, err := h.svc.Generate(r.Context(), req.Prompt); err != nil {
		log.Printf("Generation failed: %v", err)
		// Integrity failures are the caller's problem; everything else
		// is the backend's.
		status := http.StatusBadGateway
		if s := statusFor(err); s != http.StatusInternalServerError {
			status = s
		}
		h.writeError(w, "Generation failed", err.Error(), status)
		return
	}

	data, err := h.svc.Export("json")
	if err != nil {
		log.Printf("Failed to export generated graph: %v", err)
		h.writeError(w, "Failed to export graph", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// NodeRequest carries the fields for a new node
type NodeRequest struct {
	Label       string `json:"label"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// CreateNode adds a node to the diagram
func (h *StageHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	node, err := h.svc.AddNode(req.Label, domain.Category(req.Category), req.Description)
	if err != nil {
		log.Printf("Failed to create node: %v", err)
		h.writeError(w, "Failed to create node", err.Error(), statusOr(err, http.StatusBadRequest))
		return
	}

	h.writeJSON(w, node, http.StatusCreated)
}

// UpdateNode edits a node's label, category, or description
func (h *StageHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, "Invalid node ID", "Node ID is required", http.StatusBadRequest)
		return
	}

	var update service.NodeUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	node, err := h.svc.UpdateNode(id, update)
	if err != nil {
		log.Printf("Failed to update node: %v", err)
		h.writeError(w, "Failed to update node", err.Error(), statusOr(err, http.StatusBadRequest))
		return
	}

	h.writeJSON(w, node, http.StatusOK)
}

// DeleteNode removes a node and every edge touching it
func (h *StageHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, "Invalid node ID", "Node ID is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteNode(id); err != nil {
		log.Printf("Failed to delete node: %v", err)
		h.writeError(w, "Failed to delete node", err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EdgeRequest carries the fields for a new edge
type EdgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// CreateEdge adds a labeled relation between two nodes
func (h *StageHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req EdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	edge, err := h.svc.AddEdge(req.Source, req.Target, req.Label)
	if err != nil {
		log.Printf("Failed to create edge: %v", err)
		h.writeError(w, "Failed to create edge", err.Error(), statusOr(err, http.StatusBadRequest))
		return
	}

	h.writeJSON(w, edge, http.StatusCreated)
}

// DeleteEdge removes an edge. There is no edge update: the id is
// derived from endpoints and label, so relabeling is delete and create.
func (h *StageHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, "Invalid edge ID", "Edge ID is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteEdge(id); err != nil {
		log.Printf("Failed to delete edge: %v", err)
		h.writeError(w, "Failed to delete edge", err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PointerRequest is a pointer gesture sample in screen coordinates
type PointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerDown begins a gesture: a drag when it lands on a node, a pan
// or click otherwise
func (h *StageHandler) PointerDown(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	h.stage.PointerDown(req.X, req.Y)
	w.WriteHeader(http.StatusNoContent)
}

// PointerMove continues a gesture
func (h *StageHandler) PointerMove(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	h.stage.PointerMove(req.X, req.Y)
	w.WriteHeader(http.StatusNoContent)
}

// PointerUp ends a gesture; an unmoved press lands as a click
func (h *StageHandler) PointerUp(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	h.stage.PointerUp(req.X, req.Y)
	w.WriteHeader(http.StatusNoContent)
}

// WheelRequest zooms by factor around the anchor point
type WheelRequest struct {
	Factor float64 `json:"factor"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Wheel zooms the viewport around the pointer
func (h *StageHandler) Wheel(w http.ResponseWriter, r *http.Request) {
	var req WheelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Factor <= 0 {
		h.writeError(w, "Invalid zoom factor", "factor must be positive", http.StatusBadRequest)
		return
	}
	h.stage.Wheel(req.Factor, req.X, req.Y)
	h.writeJSON(w, h.stage.View(), http.StatusOK)
}

// GetView returns the current viewport transform
func (h *StageHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.stage.View(), http.StatusOK)
}

// ResetView restores the identity transform
func (h *StageHandler) ResetView(w http.ResponseWriter, r *http.Request) {
	h.stage.ResetView()
	h.writeJSON(w, h.stage.View(), http.StatusOK)
}

// SelectionResponse names the selected node or edge, if any
type SelectionResponse struct {
	NodeID string `json:"node_id,omitempty"`
	EdgeID string `json:"edge_id,omitempty"`
}

// GetSelection returns the current selection
func (h *StageHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	nodeID, edgeID := h.stage.Selected()
	h.writeJSON(w, SelectionResponse{NodeID: nodeID, EdgeID: edgeID}, http.StatusOK)
}

// SetSelection selects a node or an edge by id
func (h *StageHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case req.NodeID != "" && req.EdgeID != "":
		h.writeError(w, "Invalid selection", "node_id and edge_id are mutually exclusive", http.StatusBadRequest)
		return
	case req.NodeID != "":
		if err := h.stage.SelectNode(req.NodeID); err != nil {
			h.writeError(w, "Failed to select node", err.Error(), statusFor(err))
			return
		}
	case req.EdgeID != "":
		if err := h.stage.SelectEdge(req.EdgeID); err != nil {
			h.writeError(w, "Failed to select edge", err.Error(), statusFor(err))
			return
		}
	default:
		h.writeError(w, "Invalid selection", "node_id or edge_id required", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearSelection deselects everything
func (h *StageHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.stage.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

// GetSim reports simulation alpha, tick count, and whether it settled
func (h *StageHandler) GetSim(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.stage.SimStatus(), http.StatusOK)
}

// RestartRequest reheats the simulation to the given alpha
type RestartRequest struct {
	Alpha float64 `json:"alpha"`
}

// RestartSim reheats the layout without resetting geometry
func (h *StageHandler) RestartSim(w http.ResponseWriter, r *http.Request) {
	req := RestartRequest{Alpha: 1.0}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Alpha <= 0 || req.Alpha > 1 {
		h.writeError(w, "Invalid alpha", "alpha must be in (0, 1]", http.StatusBadRequest)
		return
	}

	h.stage.Reheat(req.Alpha)
	h.writeJSON(w, h.stage.SimStatus(), http.StatusOK)
}

// StopSim freezes the layout where it stands
func (h *StageHandler) StopSim(w http.ResponseWriter, r *http.Request) {
	h.stage.StopSim()
	h.writeJSON(w, h.stage.SimStatus(), http.StatusOK)
}

// ExportGraph serializes the graph in the requested format
func (h *StageHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	data, err := h.svc.Export(format)
	if err != nil {
		if errors.Is(err, service.ErrNoGraph) {
			h.writeError(w, "No graph loaded", "", http.StatusConflict)
			return
		}
		h.writeError(w, "Export failed", err.Error(), http.StatusBadRequest)
		return
	}

	switch format {
	case "yaml", "yml":
		w.Header().Set("Content-Type", "application/x-yaml")
		w.Header().Set("Content-Disposition", "attachment; filename=graph.yaml")
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=graph.md")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=graph.json")
	}
	w.Write(data)
}

// ListGraphs enumerates stored snapshots
func (h *StageHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.ListGraphs(r.Context())
	if err != nil {
		log.Printf("Failed to list graphs: %v", err)
		h.writeError(w, "Failed to list graphs", err.Error(), http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []repository.GraphInfo{}
	}
	h.writeJSON(w, infos, http.StatusOK)
}

// SaveGraph stores the current graph under the path name
func (h *StageHandler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.writeError(w, "Invalid graph name", "Graph name is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.SaveGraph(r.Context(), name); err != nil {
		log.Printf("Failed to save graph: %v", err)
		h.writeError(w, "Failed to save graph", err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LoadGraph stages a stored snapshot and returns it
func (h *StageHandler) LoadGraph(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.writeError(w, "Invalid graph name", "Graph name is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.LoadGraph(r.Context(), name); err != nil {
		log.Printf("Failed to load graph: %v", err)
		h.writeError(w, "Failed to load graph", err.Error(), statusFor(err))
		return
	}

	data, err := h.svc.Export("json")
	if err != nil {
		log.Printf("Failed to export loaded graph: %v", err)
		h.writeError(w, "Failed to export graph", err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// DeleteGraph removes a stored snapshot
func (h *StageHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.writeError(w, "Invalid graph name", "Graph name is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteGraph(r.Context(), name); err != nil {
		log.Printf("Failed to delete graph: %v", err)
		h.writeError(w, "Failed to delete graph", err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

// statusOr maps err through statusFor, falling back when no sentinel
// matches instead of reporting an internal error
func statusOr(err error, fallback int) int {
	if s := statusFor(err); s != http.StatusInternalServerError {
		return s
	}
	return fallback
}

func (h *StageHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *StageHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
