package otp

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

var serverWaitPattern = regexp.MustCompile(`(?i)wait\s+(\d+)\s*sec`)

// Remaining derives the resend wait from the last send time. The result is
// rounded up to whole seconds and never negative.
func Remaining(window time.Duration, sentAt, now time.Time) int {
	left := window - now.Sub(sentAt)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// TimestampForServerWait returns the send time that makes Remaining report
// exactly wait seconds at now.
func TimestampForServerWait(window time.Duration, wait int, now time.Time) time.Time {
	return now.Add(-(window - time.Duration(wait)*time.Second))
}

// ParseServerWait extracts the seconds from messages like
// "Please wait 42 seconds before requesting a new code".
func ParseServerWait(message string) (int, bool) {
	match := serverWaitPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}
