package handler

import (
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"qrguard/internal/repository"
	"strconv"
)

// RunsHandler lists the most recent decode and training runs. The optional
// "limit" query parameter defaults to 10.
func RunsHandler(decodeRuns repository.DecodeRunRepository, trainingRuns repository.TrainingRunRepository,
	logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if decodeRuns == nil || trainingRuns == nil {
			writeJSON(w, logger, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Run ledger is disabled"})
			return
		}

		limit := atoiDefault(r.URL.Query().Get("limit"), 10)

		decodes, err := decodeRuns.GetRecent(limit)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		trainings, err := trainingRuns.GetRecent(limit)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		resp := dto.RunsResponse{DecodeRuns: decodes, TrainingRuns: trainings}
		if resp.DecodeRuns == nil {
			resp.DecodeRuns = []model.DecodeRun{}
		}
		if resp.TrainingRuns == nil {
			resp.TrainingRuns = []model.TrainingRun{}
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// DecodeRunHandler returns the decode run named by the {id} path segment
// together with its failed bitmap indexes.
func DecodeRunHandler(decodeRuns repository.DecodeRunRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if decodeRuns == nil {
			writeJSON(w, logger, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Run ledger is disabled"})
			return
		}

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, logger, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid run id"})
			return
		}

		run, err := decodeRuns.GetByID(id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if run == nil {
			writeJSON(w, logger, http.StatusNotFound, dto.ErrorResponse{Error: "Run not found"})
			return
		}

		failures, err := decodeRuns.GetFailures(id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if failures == nil {
			failures = []model.DecodeFailure{}
		}
		writeJSON(w, logger, http.StatusOK, dto.DecodeRunResponse{Run: run, Failures: failures})
	}
}
