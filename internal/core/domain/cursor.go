package domain

// Cursor is the single durable watermark per dataset. NextWindowStart
// only advances, and only after every row of the window ending at that
// boundary has been emitted to the sink.
type Cursor struct {
	DatasetID       string `json:"dataset_id"`
	NextWindowStart int64  `json:"next_window_start"`
}

// WindowPlan is one bounded sync window, recomputed each cycle and
// never persisted independently of the Cursor.
type WindowPlan struct {
	Start int64
	End   int64
}

// Advances reports whether the window covers any time at all. A plan
// that does not advance means the dataset is caught up to now.
func (w WindowPlan) Advances() bool {
	return w.End > w.Start
}
