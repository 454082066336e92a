package bridge

// Filter narrows the result of a pattern listing.
type Filter string

const (
	// FilterNone keeps every listed file.
	FilterNone Filter = ""
	// FilterLatest keeps only the most recently modified file.
	FilterLatest Filter = "latest"
)

// FileSpec describes remote files to locate. It is either a set of literal
// paths or a pattern handed to ls on the device, optionally filtered.
type FileSpec struct {
	// Paths are literal remote paths, returned verbatim when Pattern is empty.
	Paths []string
	// Pattern is a shell glob expanded on the device.
	Pattern string
	// Filter applies to Pattern listings only.
	Filter Filter
}

// Path builds a FileSpec for a single literal remote path.
func Path(remotePath string) FileSpec {
	return FileSpec{Paths: []string{remotePath}}
}

// Paths builds a FileSpec for an ordered list of literal remote paths.
func Paths(remotePaths ...string) FileSpec {
	return FileSpec{Paths: remotePaths}
}

// Pattern builds a FileSpec resolved by listing the pattern on the device.
func Pattern(pattern string, filter Filter) FileSpec {
	return FileSpec{Pattern: pattern, Filter: filter}
}

// IsPattern reports whether resolving the spec requires a remote listing.
func (s FileSpec) IsPattern() bool {
	return s.Pattern != ""
}
