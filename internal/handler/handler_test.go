package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"qrguard/internal/dto"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"qrguard/internal/repository"
	"qrguard/internal/repository/sqlite"
	"qrguard/internal/service/prediction"
	"qrguard/internal/service/scan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	symbols []model.DecodedSymbol
	err     error
}

func (d stubDecoder) Decode([]byte) ([]model.DecodedSymbol, error) {
	return d.symbols, d.err
}

// keywordPredictor flags payloads containing "phish".
type keywordPredictor struct{}

func (keywordPredictor) PredictProbability(payload string) float64 {
	if strings.Contains(payload, "phish") {
		return 0.97
	}
	return 0.03
}

func loadedService() *prediction.Service {
	return prediction.New(keywordPredictor{}, 0.5, logger.Discard())
}

func emptyService() *prediction.Service {
	return prediction.New(nil, 0.5, logger.Discard())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	for _, tt := range []struct {
		name   string
		svc    *prediction.Service
		loaded bool
	}{
		{name: "with model", svc: loadedService(), loaded: true},
		{name: "without model", svc: emptyService(), loaded: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthHandler(tt.svc, logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			var body dto.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.OK)
			assert.Equal(t, tt.loaded, body.ModelLoaded)
		})
	}
}

func TestPredictHandler(t *testing.T) {
	tests := []struct {
		name       string
		svc        *prediction.Service
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "no model", svc: emptyService(), body: `{"payload":"http://x"}`, wantStatus: 503, wantError: prediction.ErrModelUnavailable.Error()},
		{name: "no model beats empty payload", svc: emptyService(), body: `{}`, wantStatus: 503},
		{name: "empty payload", svc: loadedService(), body: `{"payload":"   "}`, wantStatus: 400, wantError: "payload is empty"},
		{name: "missing payload", svc: loadedService(), body: `{}`, wantStatus: 400},
		{name: "malformed json", svc: loadedService(), body: `{"payload":`, wantStatus: 400},
		{name: "non-string payload", svc: loadedService(), body: `{"payload":42}`, wantStatus: 400},
		{name: "benign", svc: loadedService(), body: `{"payload":" https://example.com "}`, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			PredictHandler(tt.svc, logger.Discard())(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec))
			}
		})
	}
}

func TestPredictHandler_ResponseShape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"payload":"http://phish.example/login"}`))
	rec := httptest.NewRecorder()
	PredictHandler(loadedService(), logger.Discard())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "http://phish.example/login", body["payload"])
	assert.Equal(t, 0.97, body["prob_malicious"])
	assert.Equal(t, float64(1), body["label"])
	assert.Equal(t, 0.5, body["threshold"])
}

func TestScanImageHandler(t *testing.T) {
	qr := []model.DecodedSymbol{
		{Payload: "https://example.com", Symbology: model.SymbologyQRCode},
		{Payload: "http://phish.example", Symbology: model.SymbologyQRCode},
	}

	tests := []struct {
		name       string
		svc        *prediction.Service
		decoder    stubDecoder
		field      string
		data       []byte
		wantStatus int
		wantError  string
	}{
		{name: "no model checked first", svc: emptyService(), field: "", wantStatus: 503},
		{name: "missing file field", svc: loadedService(), field: "", wantStatus: 400, wantError: MissingFileMessage},
		{name: "wrong field name", svc: loadedService(), field: "image", data: []byte("png"), wantStatus: 400, wantError: MissingFileMessage},
		{name: "empty upload", svc: loadedService(), field: "file", data: []byte{}, wantStatus: 400, wantError: "Empty upload"},
		{name: "unreadable image", svc: loadedService(), decoder: stubDecoder{err: errors.New("bad header")}, field: "file", data: []byte("junk"), wantStatus: 400},
		{name: "blank payload aborts", svc: loadedService(), decoder: stubDecoder{symbols: []model.DecodedSymbol{qr[0], {Payload: " "}}}, field: "file", data: []byte("png"), wantStatus: 400, wantError: "payload is empty"},
		{name: "two symbols", svc: loadedService(), decoder: stubDecoder{symbols: qr}, field: "file", data: []byte("png"), wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.field, tt.data)
			req := httptest.NewRequest(http.MethodPost, "/api/scan-image", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			scanner := scan.NewScanner(tt.decoder, tt.svc, logger.Discard())
			ScanImageHandler(tt.svc, scanner, logger.Discard())(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec))
			}
		})
	}
}

func TestScanImageHandler_Results(t *testing.T) {
	svc := loadedService()
	scanner := scan.NewScanner(stubDecoder{symbols: []model.DecodedSymbol{
		{Payload: "http://phish.example", Symbology: model.SymbologyQRCode},
	}}, svc, logger.Discard())

	body, contentType := multipartBody(t, "file", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/scan-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ScanImageHandler(svc, scanner, logger.Discard())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "QRCODE", resp.Results[0]["qr_type"])
	assert.Equal(t, "http://phish.example", resp.Results[0]["payload"])
	assert.Equal(t, float64(1), resp.Results[0]["label"])
}

func TestScanImageHandler_NoSymbols(t *testing.T) {
	svc := loadedService()
	scanner := scan.NewScanner(stubDecoder{symbols: []model.DecodedSymbol{}}, svc, logger.Discard())

	body, contentType := multipartBody(t, "file", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/scan-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ScanImageHandler(svc, scanner, logger.Discard())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestScanImageHandler_UnreadableImage(t *testing.T) {
	svc := loadedService()
	scanner := scan.NewScanner(stubDecoder{err: errors.New("image: unknown format")}, svc, logger.Discard())

	body, contentType := multipartBody(t, "file", []byte("not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/scan-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ScanImageHandler(svc, scanner, logger.Discard())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Could not read image"}`, rec.Body.String())
}

func TestModelInfoHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ModelInfoHandler(emptyService(), logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	ModelInfoHandler(loadedService(), logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var info model.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 0.5, info.Threshold)
}

func TestRunsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	RunsHandler(nil, nil, logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	db, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()
	decodeRuns := sqlite.NewDecodeRunRepository(db)
	trainingRuns := sqlite.NewTrainingRunRepository(db)

	rec = httptest.NewRecorder()
	RunsHandler(decodeRuns, trainingRuns, logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"decode_runs":[],"training_runs":[]}`, rec.Body.String())

	_, err = trainingRuns.Insert(&model.TrainingRun{CreatedAt: time.Now().UTC(), DataPath: "d.csv", ModelPath: "m.json", ROCAUC: 0.99})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	RunsHandler(decodeRuns, trainingRuns, logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.TrainingRuns, 1)
	assert.Equal(t, 0.99, body.TrainingRuns[0].ROCAUC)
}

func TestDecodeRunHandler(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()
	decodeRuns := sqlite.NewDecodeRunRepository(db)

	now := time.Now().UTC()
	id, err := decodeRuns.Insert(&model.DecodeRun{StartedAt: now, FinishedAt: now, Attempted: 3, Decoded: 1, Dropped: 2},
		[]model.DecodeFailure{{BitmapIndex: 2, Label: 0}, {BitmapIndex: 0, Label: 1}})
	require.NoError(t, err)

	get := func(repo *sqlite.DecodeRunRepository, idText string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/runs/decode/"+idText, nil)
		req.SetPathValue("id", idText)
		rec := httptest.NewRecorder()
		var runs repository.DecodeRunRepository
		if repo != nil {
			runs = repo
		}
		DecodeRunHandler(runs, logger.Discard())(rec, req)
		return rec
	}

	rec := get(decodeRuns, strconv.FormatInt(id, 10))
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.DecodeRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Run)
	assert.Equal(t, 2, body.Run.Dropped)
	require.Len(t, body.Failures, 2)
	assert.Equal(t, 0, body.Failures[0].BitmapIndex)
	assert.Equal(t, 2, body.Failures[1].BitmapIndex)

	assert.Equal(t, http.StatusNotFound, get(decodeRuns, "999").Code)
	assert.Equal(t, http.StatusBadRequest, get(decodeRuns, "abc").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(nil, "1").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(prediction.ErrModelUnavailable))
	assert.Equal(t, http.StatusBadRequest, statusFor(prediction.ErrEmptyPayload))
	assert.Equal(t, http.StatusBadRequest, statusFor(scan.ErrInvalidImage))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(&http.MaxBytesError{Limit: 10}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk on fire")))
}
