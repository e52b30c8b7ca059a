package main

import (
	"os"
	"sync"
)

// shutdown runs cleanup functions exactly once, newest first, either when
// interactive returns or when a termination signal arrives while the read
// loop is blocked on stdin.
type shutdown struct {
	mu   sync.Mutex
	fns  []func()
	once sync.Once
}

func (s *shutdown) add(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
}

func (s *shutdown) run() {
	s.once.Do(func() {
		s.mu.Lock()
		fns := s.fns
		s.fns = nil
		s.mu.Unlock()
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}

// watch waits for a signal on ch, runs the cleanups and calls exit. It
// returns without exiting if ch is closed first.
func (s *shutdown) watch(ch <-chan os.Signal, exit func(int)) {
	if _, ok := <-ch; !ok {
		return
	}
	s.run()
	exit(1)
}
