package model

// PrefetchJob asks a background worker to warm the cache for one player.
type PrefetchJob struct {
	ID     string
	Player string // canonical roster name, "Last, First"
	Type   PlayerType
	Range  DateRange
}

// Key identifies the data a job fetches; jobs with equal keys are duplicates.
func (j PrefetchJob) Key() string {
	return string(j.Type) + "|" + j.Player + "|" + j.Range.String()
}
