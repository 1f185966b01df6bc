package usecase

// StatusRes — сводка состояния движка для GET /status.
type StatusRes struct {
	RecordsQueueDepth int    `json:"records_queue_depth"`
	CatalogQueueDepth int    `json:"catalog_queue_depth"`
	RecordsEnqueued   uint64 `json:"records_enqueued_total"`
	CatalogEnqueued   uint64 `json:"catalog_enqueued_total"`
	TrackerSize       int    `json:"tracker_size"`
	Uptime            int64  `json:"uptime_seconds"`
}
