// Package nlog is a small leveled logger used throughout steadyum-go in
// place of the stdlib log/fmt.Println, mirroring the teacher's own
// cmn/nlog package shape.
package nlog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

type level int32

const (
	lvlError level = iota
	lvlWarning
	lvlInfo
)

var (
	std  = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	verb int32 // global verbosity threshold, see FastV
)

// SetVerbosity sets the process-wide verbosity threshold used by FastV.
func SetVerbosity(v int32) { atomic.StoreInt32(&verb, v) }

// FastV reports whether the given verbosity level is currently enabled.
// module is accepted for call-site symmetry with the teacher's
// cmn.Rom.FastV(v, module) and is otherwise unused (steadyum-go has no
// per-module verbosity table).
func FastV(v int32, _ string) bool { return atomic.LoadInt32(&verb) >= v }

func logf(l level, format string, args ...any) {
	prefix := [...]string{"E", "W", "I"}[l]
	std.Output(3, prefix+" "+fmt.Sprintf(format, args...))
}

func logln(l level, args ...any) {
	prefix := [...]string{"E", "W", "I"}[l]
	std.Output(3, prefix+" "+fmt.Sprintln(args...))
}

func Infof(format string, args ...any)    { logf(lvlInfo, format, args...) }
func Infoln(args ...any)                  { logln(lvlInfo, args...) }
func Warningf(format string, args ...any) { logf(lvlWarning, format, args...) }
func Warningln(args ...any)               { logln(lvlWarning, args...) }
func Errorf(format string, args ...any)   { logf(lvlError, format, args...) }
func Errorln(args ...any)                 { logln(lvlError, args...) }
