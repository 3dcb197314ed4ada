package oaf

// ProgressEvent represents a progress update while building an archive.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the fragment or index file being written, if applicable.
	Path string

	// Assets lists the assets of the fragment just written
	// (StageWritingFragment only).
	Assets []AssetSource

	// BytesDone is the number of bytes written so far.
	BytesDone uint64

	// BytesTotal is the total bytes to write.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of fragments written.
	FilesDone int

	// FilesTotal is the total number of fragments.
	// Zero indicates the total is unknown (e.g., during listing).
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for archive builds.
const (
	// StageListing indicates input patterns are being expanded.
	StageListing ProgressStage = iota

	// StagePacking indicates assets are being assigned to fragments.
	StagePacking

	// StageWritingFragment indicates a fragment file has been written.
	StageWritingFragment

	// StageWritingIndex indicates the index file is being written.
	StageWritingIndex
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageListing:
		return "listing"
	case StagePacking:
		return "packing"
	case StageWritingFragment:
		return "writing fragment"
	case StageWritingIndex:
		return "writing index"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
