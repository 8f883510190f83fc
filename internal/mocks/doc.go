// Package mocks provides hand-rolled mock implementations of service
// interfaces for use in tests across packages.
package mocks
