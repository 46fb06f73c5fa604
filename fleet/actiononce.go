package fleet

import "sync"

// actionOnce is a wrapper that ensures we only forward one successful stop
// and one successful terminate request to the cloud, and never a stop after a
// terminate.
//
// Concurrent callers block until the request in flight has returned. A failed
// request is not recorded, so the next call will try again.
type actionOnce struct {
	m          sync.Mutex
	stopped    bool
	terminated bool
}

// Stop calls stop, if neither Stop() or Terminate() have succeeded before.
func (o *actionOnce) Stop(stop func() error) error {
	o.m.Lock()
	defer o.m.Unlock()

	if o.stopped || o.terminated {
		return nil
	}
	if err := stop(); err != nil {
		return err
	}
	o.stopped = true
	return nil
}

// Terminate calls terminate, if Terminate() haven't succeeded before.
func (o *actionOnce) Terminate(terminate func() error) error {
	o.m.Lock()
	defer o.m.Unlock()

	if o.terminated {
		return nil
	}
	if err := terminate(); err != nil {
		return err
	}
	o.terminated = true
	return nil
}
