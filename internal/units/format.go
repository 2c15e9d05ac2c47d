package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unlimited is rendered instead of a number for buckets without a quota.
const Unlimited = "无限"

var scale = []string{"M", "G", "T", "P"}

// Format renders a megabyte value in the largest unit below 1024,
// e.g. 1536 -> "1.5G". Negative or non-finite input renders "0".
func Format(mb float64) string {
	if math.IsNaN(mb) || math.IsInf(mb, 0) || mb < 0 {
		return "0"
	}
	v := mb
	unit := 0
	for v >= 1024 && unit < len(scale)-1 {
		v /= 1024
		unit++
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + scale[unit]
}

// FormatBucketValue is Format with the unlimited override applied.
func FormatBucketValue(mb float64, unlimited bool) string {
	if unlimited {
		return Unlimited
	}
	return Format(mb)
}

// FormatElapsed renders a duration as days, hours and minutes, omitting
// zero components.
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return "<1分钟"
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d天", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%d小时", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%d分钟", minutes)
	}
	return b.String()
}
