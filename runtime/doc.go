// Package runtime contains the interfaces shared by the retention controller,
// the life-cycle policies and the fleet manager.
//
// The most notable is the Monitor interface, which every component is given in
// place of a logger. Concrete monitors are created by the runtime/monitoring
// package from configuration, while runtime/mocks provides a Monitor suitable
// for unit tests.
package runtime
