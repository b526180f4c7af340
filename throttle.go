package atlas

import "sync"

// throttle bounds the number of per-tissue workers running at once.
// Tissue tables are independent, so execution order doesn't affect
// results; callers keep outputs ordered by writing into fixed slots.
type throttle struct {
	ch chan bool
	wg sync.WaitGroup
}

func newThrottle(max int) *throttle {
	if max < 1 {
		max = 1
	}
	return &throttle{ch: make(chan bool, max)}
}

func (t *throttle) Go(f func()) {
	t.wg.Add(1)
	t.ch <- true
	go func() {
		defer func() {
			<-t.ch
			t.wg.Done()
		}()
		f()
	}()
}

func (t *throttle) Wait() {
	t.wg.Wait()
}
