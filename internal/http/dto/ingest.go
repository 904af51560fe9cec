package dto

// IngestResponse reports a processed upload.
type IngestResponse struct {
	Status          string `json:"status"`
	Filename        string `json:"filename"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// StatusResponse is the generic status+message body used by index operations.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DocumentsResponse lists the ingested documents.
type DocumentsResponse struct {
	Status    string            `json:"status"`
	Documents []DocumentSummary `json:"documents"`
}

type DocumentSummary struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}
