package scanner

import (
	"os"
	"time"
)

func GetDirectorySize(path string) (uint64, error) {
	r, err := getDirSize(path)
	return r.Size, err
}

// GetLastModifiedAt returns the zero time when the modification time cannot
// be read.
func GetLastModifiedAt(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
