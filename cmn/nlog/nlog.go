// Package nlog is the logger used throughout this module: buffered,
// timestamped, severity-leveled, writing either to stderr or to a single
// log file set with SetOutputFile.
/*
 * Adapted from the aistore project's cmn/nlog package; the dual fixed-size
 * buffer pool and file-rotation-on-size machinery of the original is
 * replaced here by a single bufio.Writer guarded by a mutex - nlog is an
 * ambient concern for this module, not one of its core subsystems, and the
 * simpler implementation preserves the same public surface (Info/Warning/
 * Error, depth-aware variants, Flush).
 */
package nlog

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

const sevChars = "IWE"

var (
	toStderr     bool
	alsoToStderr bool

	mu  sync.Mutex
	out = bufio.NewWriterSize(os.Stderr, 32*1024)
	cur *os.File // non-nil once redirected to a file via SetOutputFile

	lastFlush time.Time
)

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of a file")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as a file")
}

// SetOutputFile redirects subsequent log lines to f; passing nil reverts
// to stderr. The caller owns f's lifecycle.
func SetOutputFile(f *os.File) {
	mu.Lock()
	defer mu.Unlock()
	flushLocked()
	cur = f
	if f == nil {
		out = bufio.NewWriterSize(os.Stderr, 32*1024)
	} else {
		out = bufio.NewWriterSize(f, 32*1024)
	}
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth+1, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 1, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 1, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 1, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 1, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth+1, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 1, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 1, format, args...) }

func log(sev severity, depth int, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	line := render(sev, depth+1, format, args...)
	if toStderr || cur == nil {
		os.Stderr.WriteString(line)
	} else {
		out.WriteString(line)
		if alsoToStderr || sev >= sevErr {
			os.Stderr.WriteString(line)
		}
		if time.Since(lastFlush) > time.Second || sev >= sevWarn {
			flushLocked()
		}
	}
}

func render(sev severity, depth int, format string, args ...any) string {
	var b strings.Builder
	b.WriteByte(sevChars[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if _, fn, ln, ok := runtime.Caller(depth + 1); ok {
		if idx := strings.LastIndexByte(fn, filepath.Separator); idx >= 0 {
			fn = fn[idx+1:]
		}
		b.WriteString(fn)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ln))
		b.WriteByte(' ')
	}
	if format == "" {
		fmt.Fprintln(&b, args...)
	} else {
		fmt.Fprintf(&b, format, args...)
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Flush writes any buffered lines to the current output; pass true to
// additionally fsync a redirected file (used on clean shutdown).
func Flush(sync ...bool) {
	mu.Lock()
	defer mu.Unlock()
	flushLocked()
	if len(sync) > 0 && sync[0] && cur != nil {
		cur.Sync()
	}
}

func flushLocked() {
	out.Flush()
	lastFlush = time.Now()
}
