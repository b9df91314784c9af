package dto

import "qrguard/internal/model"

// HealthResponse reports liveness and whether predictions can be served.
type HealthResponse struct {
	OK          bool `json:"ok"`
	ModelLoaded bool `json:"model_loaded"`
}

// ScanResponse lists one prediction per decoded symbol.
type ScanResponse struct {
	Results []model.ScanResult `json:"results"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StreamError answers a websocket frame that failed, with the status the HTTP
// endpoint would have used. Successful frames are answered with ScanResponse.
type StreamError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// RunsResponse lists recent offline runs from the ledger.
type RunsResponse struct {
	DecodeRuns   []model.DecodeRun   `json:"decode_runs"`
	TrainingRuns []model.TrainingRun `json:"training_runs"`
}

// DecodeRunResponse is one decode run with the bitmaps it could not read.
type DecodeRunResponse struct {
	Run      *model.DecodeRun      `json:"run"`
	Failures []model.DecodeFailure `json:"failures"`
}
