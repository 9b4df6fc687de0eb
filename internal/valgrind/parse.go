package valgrind

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/programme-lv/ircrun/api"
)

// Patterns over valgrind's leak summary grammar. Byte counts are printed
// with comma grouping.
var (
	reDefinitelyLost = regexp.MustCompile(`definitely lost: *([0-9,]+) bytes`)
	reIndirectlyLost = regexp.MustCompile(`indirectly lost: *([0-9,]+) bytes`)
	rePossiblyLost   = regexp.MustCompile(`possibly lost: *([0-9,]+) bytes`)
	reStillReachable = regexp.MustCompile(`still reachable: *([0-9,]+) bytes`)
	reOpenFDs        = regexp.MustCompile(`FILE DESCRIPTORS: *([0-9,]+) open`)
	reErrorSummary   = regexp.MustCompile(`ERROR SUMMARY: *([0-9,]+) errors`)
)

// Parse extracts the leak summary from a valgrind report. Markers missing
// from the text count as zero.
func Parse(text string) *api.LeakReport {
	return &api.LeakReport{
		ErrorCount:     matchCount(reErrorSummary, text),
		DefinitelyLost: matchCount(reDefinitelyLost, text),
		IndirectlyLost: matchCount(reIndirectlyLost, text),
		PossiblyLost:   matchCount(rePossiblyLost, text),
		StillReachable: matchCount(reStillReachable, text),
		OpenFDs:        matchCount(reOpenFDs, text),
		RawText:        text,
	}
}

func matchCount(re *regexp.Regexp, text string) int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
