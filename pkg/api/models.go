package api

// SnapRequest is the JSON body for POST /api/v1/skeletons/{id}/snap.
type SnapRequest struct {
	Z       float64 `json:"z"`
	Y       float64 `json:"y"`
	X       float64 `json:"x"`
	MaxDist float64 `json:"max_dist,omitempty"`
}

// SnapResponse is the JSON response for a successful snap query.
type SnapResponse struct {
	Child  int     `json:"child"`
	Parent int     `json:"parent"`
	Ratio  float64 `json:"ratio"`
	Dist   float64 `json:"dist"`
}

// SkeletonInfoResponse summarizes a stored skeleton.
type SkeletonInfoResponse struct {
	ID           uint64  `json:"id"`
	NumNodes     int     `json:"num_nodes"`
	NumEdges     int     `json:"num_edges"`
	NumRoots     int     `json:"num_roots"`
	NumLeaves    int     `json:"num_leaves"`
	NumBranches  int     `json:"num_branch_points"`
	PathLength   float64 `json:"path_length"`
	EncodedBytes int     `json:"encoded_bytes"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumSkeletons int `json:"num_skeletons"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
