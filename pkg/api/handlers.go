package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"reneu/pkg/dendrogram"
	"reneu/pkg/errors"
	"reneu/pkg/geom"
	"reneu/pkg/skeleton"
	"reneu/pkg/store"
)

const (
	maxSnapBody = 1024

	contentTypeBinary = "application/octet-stream"
	contentTypeSWC    = "application/x-swc"
)

// Upload size limits in bytes.
var (
	maxSkeletonBody int64 = 64 << 20
	maxDendroBody   int64 = 256 << 20
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store     store.Store
	precision int
}

// NewHandlers creates handlers backed by s. precision is the default number
// of fractional digits for SWC output.
func NewHandlers(s store.Store, precision int) *Handlers {
	return &Handlers{
		store:     s,
		precision: precision,
	}
}

// HandleGetSkeleton handles GET /api/v1/skeletons/{id}.
func (h *Handlers) HandleGetSkeleton(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadSkeleton(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", contentTypeBinary)
	w.Write(skeleton.EncodePrecomputed(t))
}

// HandleGetSWC handles GET /api/v1/skeletons/{id}/swc.
func (h *Handlers) HandleGetSWC(w http.ResponseWriter, r *http.Request) {
	precision := h.precision
	if v := r.URL.Query().Get("precision"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 0 || p > 9 {
			writeError(w, http.StatusBadRequest, "invalid_request", "precision")
			return
		}
		precision = p
	}

	t, ok := h.loadSkeleton(w, r)
	if !ok {
		return
	}
	data, err := skeleton.MarshalSWC(t, precision)
	if err != nil {
		writeCodedError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeSWC)
	w.Write(data)
}

// HandleSkeletonInfo handles GET /api/v1/skeletons/{id}/info.
func (h *Handlers) HandleSkeletonInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}
	t, ok := h.loadSkeleton(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SkeletonInfoResponse{
		ID:           id,
		NumNodes:     t.NodeCount(),
		NumEdges:     t.EdgeCount(),
		NumRoots:     len(t.Roots()),
		NumLeaves:    len(t.Leaves()),
		NumBranches:  len(t.BranchPoints()),
		PathLength:   t.PathLength(),
		EncodedBytes: len(skeleton.EncodePrecomputed(t)),
	})
}

// HandlePutSkeleton handles PUT /api/v1/skeletons/{id}. The body is a
// precomputed buffer or SWC text depending on Content-Type.
func (h *Handlers) HandlePutSkeleton(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}

	var decode func([]byte) (*skeleton.Tree, error)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case contentTypeBinary:
		decode = skeleton.DecodePrecomputed
	case contentTypeSWC, "text/plain":
		decode = func(b []byte) (*skeleton.Tree, error) { return skeleton.ParseSWC(bytes.NewReader(b)) }
	default:
		writeError(w, http.StatusUnsupportedMediaType, "invalid_request", "content_type")
		return
	}

	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSkeletonBody))
	if err != nil {
		writeCodedError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	t, err := decode(buf)
	if err != nil {
		writeCodedError(w, err)
		return
	}

	if err := h.store.PutSkeleton(r.Context(), id, t); err != nil {
		writeCodedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteSkeleton handles DELETE /api/v1/skeletons/{id}.
func (h *Handlers) HandleDeleteSkeleton(w http.ResponseWriter, r *http.Request) {
	id, ok := segmentID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSkeleton(r.Context(), id); err != nil {
		writeCodedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSnap handles POST /api/v1/skeletons/{id}/snap.
func (h *Handlers) HandleSnap(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req SnapRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if err := validateCoord(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}

	t, ok := h.loadSkeleton(w, r)
	if !ok {
		return
	}
	res, err := skeleton.NewIndex(t).Snap(geom.Point{Z: req.Z, Y: req.Y, X: req.X}, req.MaxDist)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_skeleton", "")
			return
		}
		writeCodedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SnapResponse{
		Child:  res.Child,
		Parent: res.Parent,
		Ratio:  res.Ratio,
		Dist:   res.Dist,
	})
}

// HandleGetDendrogram handles GET /api/v1/dendrograms/{name}.
// ?format=text returns the printable listing instead of the binary form.
func (h *Handlers) HandleGetDendrogram(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.GetDendrogram(r.Context(), r.PathValue("name"))
	if err != nil {
		writeCodedError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "binary":
		w.Header().Set("Content-Type", contentTypeBinary)
		d.WriteTo(w)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		d.Fprint(w)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "format")
	}
}

// HandlePutDendrogram handles PUT /api/v1/dendrograms/{name}.
func (h *Handlers) HandlePutDendrogram(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != contentTypeBinary {
		writeError(w, http.StatusUnsupportedMediaType, "invalid_request", "content_type")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDendroBody))
	if err != nil {
		writeCodedError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	d := new(dendrogram.Dendrogram)
	if err := d.UnmarshalBinary(data); err != nil {
		writeCodedError(w, err)
		return
	}
	if err := h.store.PutDendrogram(r.Context(), r.PathValue("name"), d); err != nil {
		writeCodedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ListSkeletons(r.Context())
	if err != nil {
		writeCodedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{NumSkeletons: len(ids)})
}

func (h *Handlers) loadSkeleton(w http.ResponseWriter, r *http.Request) (*skeleton.Tree, bool) {
	id, ok := segmentID(w, r)
	if !ok {
		return nil, false
	}
	t, err := h.store.GetSkeleton(r.Context(), id)
	if err != nil {
		writeCodedError(w, err)
		return nil, false
	}
	return t, true
}

func segmentID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id")
		return 0, false
	}
	return id, true
}

func validateCoord(req SnapRequest) error {
	for _, v := range []float64{req.Z, req.Y, req.X, req.MaxDist} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return stderrors.New("coordinates must be finite numbers")
		}
	}
	if req.MaxDist < 0 {
		return stderrors.New("max_dist must not be negative")
	}
	return nil
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeShapeMismatch, errors.ErrCodeInvalidTopology, errors.ErrCodeInvalidBlockShape,
		errors.ErrCodeFormat, errors.ErrCodeTruncatedBuffer, errors.ErrCodeUndersizedBuffer:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeCodedError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		return
	}
	// A body over the limit surfaces wrapped by whichever decoder hit it.
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid_request", "body")
		return
	}

	code := errors.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		writeError(w, status, "internal_error", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   strings.ToLower(string(code)),
		Message: errors.UserMessage(err),
	})
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error("encode response", "err", err)
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
