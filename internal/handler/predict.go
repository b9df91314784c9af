package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"qrguard/internal/service/prediction"
)

// PredictHandler scores the JSON payload {"payload": "..."}. A body that is
// not valid JSON is handled like a missing payload.
func PredictHandler(svc *prediction.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, logger, err)
				return
			}
			req = dto.PredictRequest{}
		}

		result, err := svc.Predict(req.Text())
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, result)
	}
}
