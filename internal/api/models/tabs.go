package models

// TabHistoryEntry mirrors tab.HistoryEntry.
type TabHistoryEntry struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	ScrollY float64 `json:"scroll_y"`
}

// TabResponse mirrors tab.Snapshot for the tabs/:id endpoint.
type TabResponse struct {
	ID           string            `json:"id"`
	History      []TabHistoryEntry `json:"history"`
	HistoryIndex int               `json:"history_index"`
	Zoom         float64           `json:"zoom"`
	ScrollX      float64           `json:"scroll_x"`
	ScrollY      float64           `json:"scroll_y"`
	Title        string            `json:"title"`
	ContentType  string            `json:"content_type,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// LoaderStatusResponse mirrors loader.Status.
type LoaderStatusResponse struct {
	Loading       int `json:"loading"`
	Queued        int `json:"queued"`
	MaxConcurrent int `json:"max_concurrent"`
}
