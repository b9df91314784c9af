package model

// SymbologyQRCode is reported for every symbol read by the QR detector.
const SymbologyQRCode = "QRCODE"

// DecodedSymbol is one barcode found in an image.
type DecodedSymbol struct {
	Payload   string `json:"payload"`
	Symbology string `json:"symbology"`
}

// Prediction is the classifier verdict for a single payload.
type Prediction struct {
	Payload     string  `json:"payload"`
	Probability float64 `json:"prob_malicious"`
	Label       int     `json:"label"`
	Threshold   float64 `json:"threshold"`
}

// ScanResult is a Prediction tagged with the symbology it was read from.
type ScanResult struct {
	Symbology string `json:"qr_type"`
	Prediction
}
