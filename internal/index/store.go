package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/e7canasta/bsvideo/internal/logging"
)

// magic and formatVersion identify the cache file layout on disk.
// Bump formatVersion (never magic) if the record layout changes.
const (
	magic         = "BS2V"
	formatVersion = int32(1)
)

// Meta is the subset of build-time configuration the cache file encodes
// so a later Read can detect staleness: source size, track number,
// variable-format flag, hw-device string and demuxer options.
type Meta struct {
	SourceSize     int64
	Track          int32
	VariableFormat bool
	HWDevice       string
	DemuxerOptions map[string]string
}

// CachePath returns "<cacheDir>/<sourceBasename>.<track>.bsindex".
func CachePath(cacheDir, source string, track int32) string {
	base := filepath.Base(source)
	return filepath.Join(cacheDir, fmt.Sprintf("%s.%d.bsindex", base, track))
}

// Write serializes idx to path, using a write-to-temp-then-rename
// sequence so concurrent first-time builds of the same track are safe on
// filesystems that provide atomic rename (the recommended
// implementation). The temp name includes a random UUID, matching the
// corpus's use of google/uuid for collision-free identifiers
// (modules/stream-capture/internal/rtsp/callbacks.go's TraceID).
func Write(path string, meta Meta, idx *TrackIndex) error {
	var buf bytes.Buffer
	if err := encode(&buf, meta, idx); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.New().String()))
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	logging.Get().Debug("index: cache written", "path", path, "frames", idx.NumFrames())
	return nil
}

// Read loads idx from path and validates it against meta. Any mismatch
// — missing file, corrupt framing, or a field that disagrees with meta —
// is treated as a silent cache miss; the caller rebuilds.
func Read(path string, meta Meta) (*TrackIndex, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	idx, ok := decode(bytes.NewReader(data), meta)
	if !ok {
		logging.Get().Debug("index: cache stale or unreadable, will rebuild", "path", path)
	}
	return idx, ok
}

func encode(w io.Writer, meta Meta, idx *TrackIndex) error {
	if err := writeBytes(w, []byte(magic)); err != nil {
		return err
	}
	if err := writeInt32(w, formatVersion); err != nil {
		return err
	}
	if err := writeInt64(w, meta.SourceSize); err != nil {
		return err
	}
	if err := writeInt32(w, meta.Track); err != nil {
		return err
	}
	if err := writeInt32(w, boolToInt32(meta.VariableFormat)); err != nil {
		return err
	}
	if err := writeLPString(w, meta.HWDevice); err != nil {
		return err
	}
	if err := writeInt32(w, int32(len(meta.DemuxerOptions))); err != nil {
		return err
	}
	for k, v := range meta.DemuxerOptions {
		if err := writeLPString(w, k); err != nil {
			return err
		}
		if err := writeLPString(w, v); err != nil {
			return err
		}
	}
	if err := writeInt64(w, int64(len(idx.Frames))); err != nil {
		return err
	}
	if err := writeInt64(w, idx.LastFrameDuration); err != nil {
		return err
	}
	for _, f := range idx.Frames {
		if err := writeBytes(w, f.Hash[:]); err != nil {
			return err
		}
		if err := writeInt64(w, f.PTS); err != nil {
			return err
		}
		if err := writeInt32(w, f.RepeatPict); err != nil {
			return err
		}
		if err := writeInt32(w, frameFlags(f)); err != nil {
			return err
		}
	}
	return nil
}

func decode(r io.Reader, want Meta) (*TrackIndex, bool) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil || string(gotMagic[:]) != magic {
		return nil, false
	}
	version, err := readInt32(r)
	if err != nil || version != formatVersion {
		return nil, false
	}
	sourceSize, err := readInt64(r)
	if err != nil || sourceSize != want.SourceSize {
		return nil, false
	}
	track, err := readInt32(r)
	if err != nil || track != want.Track {
		return nil, false
	}
	variableFormat, err := readInt32(r)
	if err != nil || (variableFormat != 0) != want.VariableFormat {
		return nil, false
	}
	hwDevice, err := readLPString(r)
	if err != nil || hwDevice != want.HWDevice {
		return nil, false
	}
	optsCount, err := readInt32(r)
	if err != nil || optsCount < 0 {
		return nil, false
	}
	gotOpts := make(map[string]string, optsCount)
	for i := int32(0); i < optsCount; i++ {
		k, err := readLPString(r)
		if err != nil {
			return nil, false
		}
		v, err := readLPString(r)
		if err != nil {
			return nil, false
		}
		gotOpts[k] = v
	}
	if !optionsEqual(gotOpts, want.DemuxerOptions) {
		return nil, false
	}

	numFrames, err := readInt64(r)
	if err != nil || numFrames < 0 {
		return nil, false
	}
	lastFrameDuration, err := readInt64(r)
	if err != nil {
		return nil, false
	}

	idx := &TrackIndex{Frames: make([]FrameRecord, numFrames), LastFrameDuration: lastFrameDuration}
	for i := int64(0); i < numFrames; i++ {
		var rec FrameRecord
		if _, err := io.ReadFull(r, rec.Hash[:]); err != nil {
			return nil, false
		}
		pts, err := readInt64(r)
		if err != nil {
			return nil, false
		}
		repeatPict, err := readInt32(r)
		if err != nil {
			return nil, false
		}
		flags, err := readInt32(r)
		if err != nil {
			return nil, false
		}
		rec.PTS = pts
		rec.RepeatPict = repeatPict
		rec.KeyFrame = flags&1 != 0
		rec.TopFieldFirst = flags&2 != 0
		idx.Frames[i] = rec
	}
	return idx, true
}

func optionsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func frameFlags(f FrameRecord) int32 {
	var flags int32
	if f.KeyFrame {
		flags |= 1
	}
	if f.TopFieldFirst {
		flags |= 2
	}
	return flags
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func writeBytes(w io.Writer, b []byte) error { _, err := w.Write(b); return err }

func writeInt32(w io.Writer, v int32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeInt64(w io.Writer, v int64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func writeLPString(w io.Writer, s string) error {
	if err := writeInt32(w, int32(len(s))); err != nil {
		return err
	}
	return writeBytes(w, []byte(s))
}

func readInt32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readInt64(r io.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readLPString(r io.Reader) (string, error) {
	n, err := readInt32(r)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid length-prefixed string")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
