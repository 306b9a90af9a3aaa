package compose

// Task is one per-recipient compose job. Immutable once constructed; owned
// exclusively by the worker executing it.
type Task struct {
	TrackingID     string
	Email          string
	Subject        string
	HTMLBody       string
	AttachmentPath string
}
