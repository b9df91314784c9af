package dto

// PredictRequest is the body of POST /api/predict. Payload is left untyped so
// a non-string value can be treated as missing instead of failing to decode.
type PredictRequest struct {
	Payload interface{} `json:"payload"`
}

// Text returns the payload when it is a JSON string.
func (r PredictRequest) Text() string {
	s, _ := r.Payload.(string)
	return s
}
