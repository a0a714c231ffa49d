package stac

// State is the lifecycle stage of a document. A document only moves forward:
// Unsaved -> Saved -> Published.
type State int

const (
	// Unsaved documents exist only in memory.
	Unsaved State = iota
	// Saved documents have been read from or written to a filename.
	Saved
	// Published documents carry an absolute self URL.
	Published
)

func (s State) String() string {
	switch s {
	case Unsaved:
		return "unsaved"
	case Saved:
		return "saved"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}
