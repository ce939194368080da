//go:build windows

package scanner

import (
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// TODO: Probably use windows specific APIs for this one!

func getDirSize(path string) (sizeResult, error) {
	var total atomic.Uint64
	var files atomic.Int64
	walk := func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files.Add(1)
		total.Add(uint64(info.Size()))
		return nil
	}
	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, path, walk)
	return sizeResult{Size: total.Load(), FilesScanned: files.Load()}, err
}
