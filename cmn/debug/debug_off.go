//go:build !debug

package debug

const Enabled = false

func Assert(cond bool, args ...any)                {}
func Assertf(cond bool, format string, args ...any) {}
func AssertNoErr(err error)                         {}
