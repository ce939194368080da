package session

import (
	"context"
	"sync"

	"github.com/riadafridishibly/nmremover/scanner"
)

type scanOutcome struct {
	entries []*scanner.NodeModuleInfo
	err     error
}

// scanTask runs one scan on its own goroutine. The worker is the only writer
// of current and result; the controller reads both from Poll.
type scanTask struct {
	root   string
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	current string
	result  *scanOutcome
}

func startScanTask(parent context.Context, backend Backend, root string) *scanTask {
	ctx, cancel := context.WithCancel(parent)
	t := &scanTask{
		root:   root,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		entries, err := backend.Scan(ctx, root, t.setCurrent)
		t.deposit(&scanOutcome{entries: entries, err: err})
	}()

	return t
}

func (t *scanTask) setCurrent(path string) {
	t.mu.Lock()
	t.current = path
	t.mu.Unlock()
}

func (t *scanTask) currentPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *scanTask) deposit(o *scanOutcome) {
	t.mu.Lock()
	t.result = o
	t.mu.Unlock()
}

// take hands out the result once; later calls return nil.
func (t *scanTask) take() *scanOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.result
	t.result = nil
	return o
}

func (t *scanTask) stop() {
	t.cancel()
	<-t.done
}
