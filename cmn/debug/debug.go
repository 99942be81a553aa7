// Package debug mirrors the teacher's cmn/debug: assertions compiled
// to no-ops unless the "debug" build tag is set, so they carry zero
// cost in a production build but catch invariant violations in tests
// and CI.
package debug

// Assert and AssertNoErr are implemented in debug_on.go / debug_off.go
// depending on build tags.
