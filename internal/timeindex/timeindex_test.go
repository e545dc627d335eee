package timeindex

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/e7canasta/bsvideo/internal/index"
)

// cfrFrames returns n frames with strictly-increasing PTS, one tick per
// frame in tb's time base.
func cfrFrames(n int, tb TimeBase) []index.FrameRecord {
	frames := make([]index.FrameRecord, n)
	for i := range frames {
		frames[i].PTS = int64(i)
	}
	return frames
}

func TestFrameByTimeMonotonicity(t *testing.T) {
	tb := TimeBase{Num: 1, Den: 25} // 25 ticks/second, one tick per frame at 25fps
	frames := cfrFrames(50, tb)

	for n := 0; n < 50; n++ {
		seconds := float64(frames[n].PTS) * float64(tb.Num) / float64(tb.Den)
		got, ok := FrameByTime(frames, seconds, tb)
		if !ok {
			t.Fatalf("FrameByTime(%v): not found", seconds)
		}
		if got != n {
			t.Fatalf("FrameByTime(%v) = %d, want %d", seconds, got, n)
		}
	}
}

func TestFrameByTimeEmpty(t *testing.T) {
	if _, ok := FrameByTime(nil, 1.0, TimeBase{Num: 1, Den: 1}); ok {
		t.Fatal("expected not-ok for empty frame list")
	}
}

func TestWriteTimecodesFormat(t *testing.T) {
	tb := TimeBase{Num: 1, Den: 25}
	frames := cfrFrames(10, tb)

	path := t.TempDir() + "/timecodes.txt"
	if err := WriteTimecodes(path, frames, tb); err != nil {
		t.Fatalf("WriteTimecodes: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("missing header line")
	}
	if !strings.HasPrefix(scanner.Text(), "# timecode format v2") {
		t.Fatalf("unexpected header: %q", scanner.Text())
	}

	count := 0
	for scanner.Scan() {
		if _, err := strconv.ParseFloat(scanner.Text(), 64); err != nil {
			t.Fatalf("line %q is not a float: %v", scanner.Text(), err)
		}
		count++
	}
	if count != len(frames) {
		t.Fatalf("got %d timecode lines, want %d", count, len(frames))
	}
}
