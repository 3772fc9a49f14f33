// Package format renders profiler durations and trace lines for a console.
package format

import (
	"fmt"
	"time"
)

// Duration renders d with three decimals in the largest non-zero unit:
// 1.234s, 12.345ms, 12.345µs or 12ns.
func Duration(d time.Duration) string {
	if d < 0 {
		return "-" + Duration(-d)
	}
	secs := d / time.Second
	sub := d % time.Second
	millis := sub / time.Millisecond
	micros := sub / time.Microsecond % 1000
	nanos := sub % 1000

	switch {
	case secs != 0:
		return fmt.Sprintf("%d.%03ds", secs, millis)
	case millis > 0:
		return fmt.Sprintf("%d.%03dms", millis, micros)
	case micros > 0:
		return fmt.Sprintf("%d.%03dµs", micros, nanos)
	default:
		return fmt.Sprintf("%dns", int64(sub))
	}
}
