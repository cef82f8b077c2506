package tcw

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTestStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.tcw")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer func() { _ = f.Close() }()

	info := ModelInfo{
		TaskName:        "LogS",
		TaskType:        TaskRegression,
		OutputTransform: "identity",
		OutputUnit:      "log(mol/L)",
	}
	tensors := []TensorPayload{
		{Name: "b.bias", DType: DTypeF64, Shape: []uint64{3}, Data: []float64{0.5, -0.5, 1.25}},
		{Name: "a.weight", DType: DTypeF32, Shape: []uint64{2, 2}, Data: []float64{1, 2, 3, 4}},
	}
	if err := WriteStore(f, info, tensors); err != nil {
		t.Fatalf("write store: %v", err)
	}
	return path
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := writeTestStore(t)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.ReadModelInfo()
	if err != nil {
		t.Fatalf("read model info: %v", err)
	}
	if info.TaskName != "LogS" || info.TaskType != TaskRegression {
		t.Fatalf("model info mismatch: %+v", info)
	}

	ti, err := f.ReadTensorIndex()
	if err != nil {
		t.Fatalf("read tensor index: %v", err)
	}
	if ti.Count() != 2 {
		t.Fatalf("tensor count: got %d, want 2", ti.Count())
	}

	i, ok := ti.Find("a.weight")
	if !ok {
		t.Fatalf("a.weight not found")
	}
	shape, err := ti.Shape(i)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	if len(shape) != 2 || shape[0] != 2 || shape[1] != 2 {
		t.Fatalf("shape mismatch: %v", shape)
	}
	e, err := ti.Entry(i)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	raw, err := ti.TensorData(f, i)
	if err != nil {
		t.Fatalf("tensor data: %v", err)
	}
	vals, err := DecodeFloats(e.DType, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float64{1, 2, 3, 4}
	for j := range want {
		if vals[j] != want[j] {
			t.Fatalf("a.weight[%d]: got %f, want %f", j, vals[j], want[j])
		}
	}

	if _, ok := ti.Find("missing"); ok {
		t.Fatalf("found tensor that does not exist")
	}
}

func TestOpenReaderAtNoMmap(t *testing.T) {
	t.Parallel()

	path := writeTestStore(t)
	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = rf.Close() }()
	st, err := rf.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	f, err := OpenReaderAt(rf, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() { _ = f.Close() }()
	if f.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if f.Header.HeaderSize != tcwHeaderSize {
		t.Fatalf("header size: got %d, want %d", f.Header.HeaderSize, tcwHeaderSize)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.tcw")
	if err := os.WriteFile(path, make([]byte, 128), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for zeroed file")
	}
}

func TestOpenRejectsOverlappingSections(t *testing.T) {
	t.Parallel()

	path := writeTestStore(t)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	hdr, ok := decodeHeader(data)
	if !ok {
		t.Fatalf("decode header failed")
	}
	if hdr.SectionCount < 2 {
		t.Fatalf("store has %d sections, want at least 2", hdr.SectionCount)
	}

	// Point the second directory entry at the first section's payload. The
	// entry stays aligned and in bounds, so only the pairwise check can
	// catch it.
	dir := int(hdr.SectionDirOffset)
	first, ok := decodeSection(data[dir : dir+tcwSectionSize])
	if !ok {
		t.Fatalf("decode section failed")
	}
	second := data[dir+tcwSectionSize : dir+2*tcwSectionSize]
	sec, ok := decodeSection(second)
	if !ok {
		t.Fatalf("decode section failed")
	}
	sec.Offset = first.Offset
	sec.Size = first.Size
	if !encodeSection(second, sec) {
		t.Fatalf("encode section failed")
	}

	if _, err := parseFileData(data, false); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v, want ErrCorruptFile", err)
	}
}

func TestHeaderEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := Header{
		Magic:            [4]byte{'T', 'C', 'W', 0},
		Major:            0x1122,
		Minor:            0x3344,
		HeaderSize:       tcwHeaderSize,
		SectionCount:     3,
		SectionDirOffset: 0x0102030405060708,
		FileSize:         0x1112131415161718,
	}
	var raw [tcwHeaderSize]byte
	if !encodeHeader(raw[:], h) {
		t.Fatalf("encode header failed")
	}
	if raw[4] != 0x22 || raw[5] != 0x11 {
		t.Fatalf("major is not little-endian: %x", raw[4:6])
	}
	got, ok := decodeHeader(raw[:])
	if !ok {
		t.Fatalf("decode header failed")
	}
	if got != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", got, h)
	}
}

func TestFloatCodecRoundTrip(t *testing.T) {
	t.Parallel()

	vals := []float64{0, 1.5, -2.25, math.Pi}
	enc, err := EncodeFloats(DTypeF64, vals)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := DecodeFloats(DTypeF64, enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range vals {
		if dec[i] != vals[i] {
			t.Fatalf("f64[%d]: got %v, want %v", i, dec[i], vals[i])
		}
	}

	enc32, err := EncodeFloats(DTypeF32, vals)
	if err != nil {
		t.Fatalf("encode f32: %v", err)
	}
	dec32, err := DecodeFloats(DTypeF32, enc32)
	if err != nil {
		t.Fatalf("decode f32: %v", err)
	}
	for i := range vals {
		if dec32[i] != float64(float32(vals[i])) {
			t.Fatalf("f32[%d]: got %v, want %v", i, dec32[i], float64(float32(vals[i])))
		}
	}

	if _, err := DecodeFloats(DTypeF64, []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for ragged payload")
	}
}

func TestModelInfoValidate(t *testing.T) {
	t.Parallel()

	mi := ModelInfo{TaskName: "AMES", TaskType: "classification", OutputTransform: "identity"}
	if err := mi.Validate(); err != nil {
		t.Fatalf("valid info rejected: %v", err)
	}
	mi.TaskType = "ranking"
	if err := mi.Validate(); err == nil {
		t.Fatalf("unknown task type accepted")
	}
}
