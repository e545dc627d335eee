// Package timeindex locates frames by presentation time via PTS binary
// search and writes timecode format v2 files.
package timeindex

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/e7canasta/bsvideo/internal/index"
)

// TimeBase is a rational num/den such that one PTS tick is num/den
// seconds.
type TimeBase struct {
	Num, Den int64
}

// FrameByTime computes target_pts as round((t*den)/num + 0.001)
// and binary-searches frames by PTS, returning the neighbor whose PTS
// is closest to target_pts. Ties go to the left neighbor.
func FrameByTime(frames []index.FrameRecord, seconds float64, tb TimeBase) (int, bool) {
	if len(frames) == 0 || tb.Num <= 0 {
		return 0, false
	}

	targetPTS := int64(math.Round((seconds*float64(tb.Den))/float64(tb.Num) + 0.001))

	i := sort.Search(len(frames), func(i int) bool { return frames[i].PTS >= targetPTS })

	switch {
	case i <= 0:
		return 0, true
	case i >= len(frames):
		return len(frames) - 1, true
	default:
		left, right := frames[i-1].PTS, frames[i].PTS
		if targetPTS-left <= right-targetPTS {
			return i - 1, true
		}
		return i, true
	}
}

// WriteTimecodes emits a "timecode format v2" file: a header line
// followed by one millisecond timestamp per
// frame, each computed as pts*num/den seconds converted to milliseconds
// and printed with two decimals.
func WriteTimecodes(path string, frames []index.FrameRecord, tb TimeBase) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString("# timecode format v2\n"); err != nil {
		return err
	}
	for _, rec := range frames {
		ms := float64(rec.PTS) * float64(tb.Num) / float64(tb.Den) * 1000
		if _, err := fmt.Fprintf(w, "%.2f\n", ms); err != nil {
			return err
		}
	}
	return w.Flush()
}
