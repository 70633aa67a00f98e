package logpi

// NullProgressBar is the ProgressBar the pipeline runs with; it draws nothing.
type NullProgressBar struct {
}

func (p NullProgressBar) Finish() {
	// Nothing to do
}

func (p NullProgressBar) SetTotal(total int) {
	// Nothing to do
}

func (p NullProgressBar) Start() {
	// Nothing to do
}

func (p NullProgressBar) Set(current int) {
	// Nothing to do
}
