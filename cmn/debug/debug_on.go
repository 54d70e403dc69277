//go:build debug

package debug

import "fmt"

func ON() bool { return true }

func Infof(format string, a ...any) { fmt.Printf("[debug] "+format+"\n", a...) }

func Func(f func()) { f() }

func Assert(cond bool, a ...any) {
	if !cond {
		panic(fmt.Sprint("assertion failed", fmt.Sprint(a...)))
	}
}

func AssertFunc(f func() bool, a ...any) { Assert(f(), a...) }

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func Assertf(cond bool, format string, a ...any) {
	if !cond {
		panic(fmt.Sprintf(format, a...))
	}
}
