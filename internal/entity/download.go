package entity

import "time"

// DownloadInfo records one download attempt, keyed by extension id.
// The ledger keeps at most one entry per id: a new write for an
// existing id replaces the old entry in full.
type DownloadInfo struct {
	ID                string    `json:"id"`
	MarketplaceURL    string    `json:"marketplace_url"`
	DirectDownloadURL string    `json:"direct_download_url"`
	DownloadPath      string    `json:"download_path"`
	FileName          string    `json:"file_name"`
	Version           string    `json:"version,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	Success           bool      `json:"success"`
}

// DownloadSummary is the outcome of a batch download pass.
type DownloadSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
