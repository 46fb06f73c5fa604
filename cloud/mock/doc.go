// Package mock implements an in-memory cloud.Provider.
//
// Instances move through the same states as EC2 instances, spending
// transitionSeconds in pending, stopping and shutting-down before they
// settle. The provider is registered as "mock" and is intended for tests and
// local experiments with life-cycle policies.
package mock
