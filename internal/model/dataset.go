package model

// DatasetRow is one decoded training example.
type DatasetRow struct {
	Index   int
	Payload string
	Label   int
}
