//go:build unix

package scanner

import (
	"io/fs"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charlievieth/fastwalk"
)

func getDirSize(path string) (sizeResult, error) {
	var total atomic.Uint64
	var files atomic.Int64
	var mu sync.Mutex
	seen := make(map[DevIno]struct{})

	walk := func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		files.Add(1)

		// Hard links share their bytes, count each inode once
		if st, ok := info.Sys().(*syscall.Stat_t); ok && st.Nlink > 1 {
			key := DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}
			mu.Lock()
			if _, dup := seen[key]; dup {
				mu.Unlock()
				return nil
			}
			seen[key] = struct{}{}
			mu.Unlock()
		}

		total.Add(uint64(info.Size()))
		return nil
	}

	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, path, walk)
	return sizeResult{Size: total.Load(), FilesScanned: files.Load()}, err
}
