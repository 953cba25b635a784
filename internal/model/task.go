package model

// UnrankedTask is an accepted submission awaiting classification.
// All string fields are owned by the task; the connection handler copies
// them out of its decode buffer before enqueueing.
type UnrankedTask struct {
	ID        string
	Text      string
	Callback  string
	ModelID   uint64 // 0 means any model
	MaxTokens int
}

// RankedTask is a classified task awaiting dispatch.
// Seq is assigned at enqueue time into the ranked queue and breaks ties
// between tasks of equal priority.
type RankedTask struct {
	ID        string
	Text      string
	Callback  string
	ModelID   uint64
	MaxTokens int
	Priority  Priority
	Seq       uint64
}

// Ranked produces the ranked form of t, carrying every field through.
func (t *UnrankedTask) Ranked(p Priority) *RankedTask {
	return &RankedTask{
		ID:        t.ID,
		Text:      t.Text,
		Callback:  t.Callback,
		ModelID:   t.ModelID,
		MaxTokens: t.MaxTokens,
		Priority:  p,
	}
}
