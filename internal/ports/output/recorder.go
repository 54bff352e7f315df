package output

// Recorder receives lifecycle counters.
type Recorder interface {
	Transition(op, result string)
	TxConflict(op string)
	Subscriptions(delta int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Transition(string, string) {}
func (NopRecorder) TxConflict(string)         {}
func (NopRecorder) Subscriptions(int)         {}
