package models

import "time"

// DownloadEntry mirrors shared.Download for the downloads endpoint.
type DownloadEntry struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Filename  string     `json:"filename"`
	TabID     string     `json:"tab_id,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Size      int64      `json:"size"`
	Progress  int64      `json:"progress"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// DownloadsResponse lists recently completed downloads.
type DownloadsResponse struct {
	Downloads []DownloadEntry `json:"downloads"`
	Count     int             `json:"count"`
}
