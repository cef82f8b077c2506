package tcw

import (
	"errors"
	"io"
	"os"
)

// Writer builds a TCW file section by section. The header space is reserved
// up front and patched during Finalise.
type Writer struct {
	f        *os.File
	sections []Section
	seen     map[SectionType]struct{}
	closed   bool
	padBuf   [tcwAlign]byte
}

// NewWriter creates a writer targeting the given file. The file is truncated.
func NewWriter(f *os.File) (*Writer, error) {
	if f == nil {
		return nil, errors.New("tcw: nil file")
	}
	if err := f.Truncate(0); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	w := &Writer{
		f:    f,
		seen: make(map[SectionType]struct{}),
	}
	var zeros [tcwHeaderSize]byte
	if err := writeFull(f, zeros[:]); err != nil {
		return nil, err
	}
	if err := w.alignTo(tcwAlign); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteSection writes a section payload and records it in the section table.
// A section type may only be written once.
func (w *Writer) WriteSection(typ SectionType, version uint32, data []byte) error {
	if w.closed {
		return errors.New("tcw: writer already finalised")
	}
	if _, ok := w.seen[typ]; ok {
		return errors.New("tcw: duplicate section type")
	}
	if err := w.alignTo(tcwAlign); err != nil {
		return err
	}
	offset, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		if err := writeFull(w.f, data); err != nil {
			return err
		}
	}
	w.sections = append(w.sections, Section{
		Type:    uint32(typ),
		Version: version,
		Offset:  uint64(offset),
		Size:    uint64(len(data)),
	})
	w.seen[typ] = struct{}{}
	return nil
}

// Finalise writes the section directory, patches the header and marks the
// writer closed. The underlying file is not closed.
func (w *Writer) Finalise() error {
	if w.closed {
		return errors.New("tcw: writer already finalised")
	}
	if len(w.sections) == 0 {
		return errors.New("tcw: no sections written")
	}
	if err := w.alignTo(tcwAlign); err != nil {
		return err
	}
	dirOff, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	for _, s := range w.sections {
		var buf [tcwSectionSize]byte
		encodeSection(buf[:], s)
		if err := writeFull(w.f, buf[:]); err != nil {
			return err
		}
	}
	end, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	hdr := Header{
		Major:            CurrentMajor,
		Minor:            CurrentMinor,
		HeaderSize:       tcwHeaderSize,
		SectionCount:     uint32(len(w.sections)),
		SectionDirOffset: uint64(dirOff),
		FileSize:         uint64(end),
	}
	copy(hdr.Magic[:], MagicTCW)

	var hdrBuf [tcwHeaderSize]byte
	encodeHeader(hdrBuf[:], hdr)
	if _, err := w.f.WriteAt(hdrBuf[:], 0); err != nil {
		return err
	}
	w.closed = true
	return nil
}

func (w *Writer) alignTo(align int64) error {
	pos, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	pad := int((align - pos%align) % align)
	if pad == 0 {
		return nil
	}
	return writeFull(w.f, w.padBuf[:pad])
}

func writeFull(f *os.File, p []byte) error {
	for len(p) > 0 {
		n, err := f.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
