package util

import "sync"

// Parallel takes a list of functions and calls them all in parallel, returning
// when all the functions are done.
func Parallel(f ...func()) {
	Spawn(len(f), func(i int) {
		f[i]()
	})
}

// Spawn calls fn(i) for i in [0, count) each in its own go-routine, and
// returns when all calls have returned.
//
// This doesn't have any nice error or panic handling, callers that need it
// should wrap fn with Monitor.CapturePanic.
func Spawn(count int, fn func(i int)) {
	wg := sync.WaitGroup{}
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}
