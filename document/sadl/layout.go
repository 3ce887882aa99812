package sadl

import (
	"bytes"
	"errors"
	"fmt"
)

// Marker bytes of the licence layout.
const (
	sectionAnchor    = 0x82
	delimiterPresent = 0xE0 // next field has a value
	delimiterEmpty   = 0xE1 // next field is empty
	nibbleTerminator = 0x57
)

const (
	listSlots      = 4
	idNumberWidth  = 13
	idTypeWidth    = 1
	imageHeaderGap = 3
)

var errNotLocated = errors.New("field not located in plaintext")

// span is the located bytes of one slot. Slots in the nibble section hold
// one nibble per byte.
type span struct {
	data []byte
	err  error
}

// layout maps slot names to spans. It is produced by walking the marker
// and delimiter bytes only; field values are never interpreted here.
type layout map[string]span

func (l layout) slot(name string) ([]byte, error) {
	s, ok := l[name]
	if !ok {
		return nil, errNotLocated
	}
	return s.data, s.err
}

// scanner walks a buffer once. After the first structural failure every
// remaining slot is marked with that failure.
type scanner struct {
	buf    []byte
	pos    int
	err    error
	layout layout
}

func scanLayout(buf []byte) layout {
	s := &scanner{buf: buf, layout: make(layout)}

	anchor := bytes.IndexByte(buf, sectionAnchor)
	if anchor < 0 {
		s.fail(fmt.Errorf("section anchor %#x not found", sectionAnchor))
	} else {
		s.pos = anchor + 2
	}

	s.list(FieldVehicleCodes)
	s.text(FieldSurname)
	if s.text(FieldInitials) == delimiterPresent {
		s.text(FieldPrDPCode)
	} else {
		s.empty(FieldPrDPCode)
	}
	s.text(FieldIDCountryOfIssue)
	s.text(FieldLicenceCountryOfIssue)
	s.list(FieldVehicleRestrictions)
	s.text(FieldLicenceNumber)
	s.fixed(FieldIDNumber, idNumberWidth)
	s.fixed(FieldIDNumberType, idTypeWidth)
	s.nibbleSection()
	s.imageSection()

	return s.layout
}

func (s *scanner) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *scanner) set(name string, data []byte) {
	s.layout[name] = span{data: data}
}

func (s *scanner) setFailed(names ...string) {
	for _, name := range names {
		s.layout[name] = span{err: fmt.Errorf("%w: %v", errNotLocated, s.err)}
	}
}

func (s *scanner) empty(name string) {
	if s.err != nil {
		s.setFailed(name)
		return
	}
	s.set(name, []byte{})
}

// text reads up to the next delimiter and returns the delimiter, or zero
// when the slot could not be located.
func (s *scanner) text(name string) byte {
	if s.err != nil {
		s.setFailed(name)
		return 0
	}
	start := s.pos
	end := indexDelimiter(s.buf, start)
	if end < 0 {
		s.fail(fmt.Errorf("no delimiter after offset %d", start))
		s.setFailed(name)
		return 0
	}
	s.set(name, s.buf[start:end])
	s.pos = end + 1
	return s.buf[end]
}

// list reads a delimited list of listSlots entries. A value closed by the
// empty delimiter also consumes the following slot.
func (s *scanner) list(name string) {
	if s.err != nil {
		s.setFailed(name)
		return
	}
	start := s.pos
	for used := 0; used < listSlots; used++ {
		end := indexDelimiter(s.buf, s.pos)
		if end < 0 {
			s.fail(fmt.Errorf("unterminated list after offset %d", start))
			s.setFailed(name)
			return
		}
		if s.buf[end] == delimiterEmpty && end > s.pos {
			used++
		}
		s.pos = end + 1
	}
	s.set(name, s.buf[start:s.pos])
}

func (s *scanner) fixed(name string, width int) {
	if s.err != nil {
		s.setFailed(name)
		return
	}
	if s.pos+width > len(s.buf) {
		s.fail(fmt.Errorf("%d bytes at offset %d exceed the buffer", width, s.pos))
		s.setFailed(name)
		return
	}
	s.set(name, s.buf[s.pos:s.pos+width])
	s.pos += width
}

// nibbleSection walks the packed nibble fields and leaves pos on the
// terminator byte. Dates take one nibble when absent and eight otherwise,
// so the section length follows from the nibbles themselves.
func (s *scanner) nibbleSection() {
	names := []string{
		FieldLicenceCodeIssueDates, FieldDriverRestrictionCodes, FieldPrDPExpiryDate,
		FieldLicenceIssueNumber, FieldBirthDate, FieldLicenceIssueDate,
		FieldLicenceExpiryDate, FieldGender,
	}
	if s.err != nil {
		s.setFailed(names...)
		return
	}
	if s.pos > len(s.buf) {
		s.fail(errors.New("nibble section starts past the buffer"))
		s.setFailed(names...)
		return
	}

	nibbles := toNibbles(s.buf[s.pos:])
	n := 0
	take := func(width int) ([]byte, bool) {
		if n+width > len(nibbles) {
			return nil, false
		}
		out := nibbles[n : n+width]
		n += width
		return out, true
	}
	date := func() ([]byte, bool) {
		if n >= len(nibbles) {
			return nil, false
		}
		return take(nibbleDateWidth(nibbles[n:]))
	}

	steps := []func() ([]byte, bool){
		func() ([]byte, bool) {
			start := n
			for range listSlots {
				if _, ok := date(); !ok {
					return nil, false
				}
			}
			return nibbles[start:n], true
		},
		func() ([]byte, bool) { return take(2) },
		date,
		func() ([]byte, bool) { return take(2) },
		date,
		date,
		date,
		func() ([]byte, bool) { return take(2) },
	}
	for i, step := range steps {
		data, ok := step()
		if !ok {
			s.fail(fmt.Errorf("nibble section truncated at %s", names[i]))
			s.setFailed(names[i:]...)
			return
		}
		s.set(names[i], data)
	}

	// an odd nibble count leaves one padding nibble
	end := s.pos + (n+1)/2
	term := -1
	if end < len(s.buf) {
		if i := bytes.IndexByte(s.buf[end:], nibbleTerminator); i >= 0 {
			term = end + i
		}
	}
	if term < 0 {
		s.fail(fmt.Errorf("nibble terminator %#x not found after offset %d", nibbleTerminator, end))
		return
	}
	s.pos = term
}

// imageSection reads the image header that follows the nibble terminator:
// two reserved bytes, then big-endian width and height, then image data.
func (s *scanner) imageSection() {
	if s.err != nil {
		s.setFailed(FieldImageWidth, FieldImageHeight, FieldImage)
		return
	}
	p := s.pos
	if p+imageHeaderGap+4 > len(s.buf) {
		s.fail(fmt.Errorf("image header at offset %d exceeds the buffer", p))
		s.setFailed(FieldImageWidth, FieldImageHeight, FieldImage)
		return
	}
	s.set(FieldImageWidth, s.buf[p+imageHeaderGap:p+imageHeaderGap+2])
	s.set(FieldImageHeight, s.buf[p+imageHeaderGap+2:p+imageHeaderGap+4])
	s.set(FieldImage, s.buf[p+imageHeaderGap+4:])
	s.pos = len(s.buf)
}

func indexDelimiter(buf []byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == delimiterPresent || buf[i] == delimiterEmpty {
			return i
		}
	}
	return -1
}
