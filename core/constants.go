package core

import "time"

const (
	FilePerm = 0644
	DirPerm  = 0755

	// Suffix of the scratch file a compaction writes before it is renamed
	// over the datafile.
	CompactSuffix = ".compact"

	MinimumAutocompactionInterval = 5 * time.Second
)
