package handler

import (
	"errors"
	"io"
	"net/http"
	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"qrguard/internal/service/prediction"
	"qrguard/internal/service/scan"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

// ScanImageHandler decodes the QR codes in the multipart field "file" and
// scores each payload.
func ScanImageHandler(svc *prediction.Service, scanner *scan.Scanner, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.ModelLoaded() {
			writeError(w, logger, prediction.ErrModelUnavailable)
			return
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, logger, http.StatusBadRequest, dto.ErrorResponse{Error: MissingFileMessage})
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, logger, http.StatusBadRequest, dto.ErrorResponse{Error: MissingFileMessage})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		results, err := scanner.Scan(data)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		logger.Info("Scanned %s (%d bytes): %d symbols", header.Filename, len(data), len(results))
		writeJSON(w, logger, http.StatusOK, dto.ScanResponse{Results: results})
	}
}
