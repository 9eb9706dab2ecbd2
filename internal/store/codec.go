package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/utopialabs/utopia/internal/domain"
)

// Binary layout of reference values: integers are fixed-width
// little-endian, strings are a 1-byte length followed by that many bytes
// (255 max, never NUL-terminated), vectors are an 8-byte little-endian
// count followed by the elements. The layout is a portability contract
// shared with the offline loader; both sides go through this file.

// ErrMalformed reports a reference value that does not decode under the
// declared layout. The store is written by the companion loader, so this
// is corruption, not user input.
var ErrMalformed = errors.New("store: malformed record")

type reader struct {
	buf []byte
	off int
}

func (r *reader) remain() int { return len(r.buf) - r.off }

func (r *reader) u8() (uint8, error) {
	if r.remain() < 1 {
		return 0, ErrMalformed
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remain() < 2 {
		return 0, ErrMalformed
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remain() < 4 {
		return 0, ErrMalformed
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.remain() < 8 {
		return 0, ErrMalformed
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) str() (string, error) {
	size, err := r.u8()
	if err != nil {
		return "", err
	}
	if r.remain() < int(size) {
		return "", ErrMalformed
	}
	v := string(r.buf[r.off : r.off+int(size)])
	r.off += int(size)
	return v, nil
}

// DecodeUser decodes a users-table value.
func DecodeUser(buf []byte) (domain.User, error) {
	r := reader{buf: buf}
	var u domain.User
	var err error
	if u.FirstName, err = r.str(); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	if u.LastName, err = r.str(); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	if u.Email, err = r.str(); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

// DecodeCard decodes a cards-table value.
func DecodeCard(buf []byte) (domain.Card, error) {
	r := reader{buf: buf}
	var c domain.Card

	typ, err := r.u8()
	if err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	if typ > uint8(domain.CardMastercard) {
		typ = uint8(domain.CardUnknown)
	}
	c.Type = domain.CardType(typ)

	if c.ExpMonth, err = r.u8(); err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	if c.ExpYear, err = r.u8(); err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	if c.CVV, err = r.u32(); err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	if c.PAN, err = r.str(); err != nil {
		return domain.Card{}, fmt.Errorf("decode card: %w", err)
	}
	return c, nil
}

// DecodeMerchant decodes a merchants-table value, including its location
// list.
func DecodeMerchant(buf []byte) (domain.Merchant, error) {
	r := reader{buf: buf}
	var m domain.Merchant
	var err error

	if m.Name, err = r.str(); err != nil {
		return domain.Merchant{}, fmt.Errorf("decode merchant: %w", err)
	}
	if m.MCC, err = r.u32(); err != nil {
		return domain.Merchant{}, fmt.Errorf("decode merchant: %w", err)
	}
	category, err := r.u8()
	if err != nil {
		return domain.Merchant{}, fmt.Errorf("decode merchant: %w", err)
	}
	if category > uint8(domain.CategoryGovernment) {
		return domain.Merchant{}, fmt.Errorf("decode merchant: category %d: %w", category, ErrMalformed)
	}
	m.Category = domain.MerchantCategory(category)

	count, err := r.u64()
	if err != nil {
		return domain.Merchant{}, fmt.Errorf("decode merchant: %w", err)
	}
	if count > uint64(r.remain()) {
		return domain.Merchant{}, fmt.Errorf("decode merchant: location count %d: %w", count, ErrMalformed)
	}
	m.Locations = make([]domain.Location, 0, count)
	for i := uint64(0); i < count; i++ {
		loc, err := decodeLocation(&r)
		if err != nil {
			return domain.Merchant{}, fmt.Errorf("decode merchant location %d: %w", i, err)
		}
		m.Locations = append(m.Locations, loc)
	}
	return m, nil
}

func decodeLocation(r *reader) (domain.Location, error) {
	var loc domain.Location

	online, err := r.u8()
	if err != nil {
		return domain.Location{}, err
	}
	foreign, err := r.u8()
	if err != nil {
		return domain.Location{}, err
	}
	loc.Online = online != 0
	loc.Foreign = foreign != 0

	if loc.Zip, err = r.u32(); err != nil {
		return domain.Location{}, err
	}
	if loc.City, err = r.str(); err != nil {
		return domain.Location{}, err
	}
	if loc.State, err = r.str(); err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

// DecodeState decodes a states-table value.
func DecodeState(buf []byte) (domain.State, error) {
	r := reader{buf: buf}
	var s domain.State
	var err error

	if s.Name, err = r.str(); err != nil {
		return domain.State{}, fmt.Errorf("decode state: %w", err)
	}
	if s.Capital, err = r.str(); err != nil {
		return domain.State{}, fmt.Errorf("decode state: %w", err)
	}
	count, err := r.u64()
	if err != nil {
		return domain.State{}, fmt.Errorf("decode state: %w", err)
	}
	if count*8 > uint64(r.remain()) {
		return domain.State{}, fmt.Errorf("decode state: range count %d: %w", count, ErrMalformed)
	}
	s.ZipRanges = make([]domain.ZipRange, 0, count)
	for i := uint64(0); i < count; i++ {
		var zr domain.ZipRange
		if zr.Start, err = r.u32(); err != nil {
			return domain.State{}, fmt.Errorf("decode state: %w", err)
		}
		if zr.End, err = r.u32(); err != nil {
			return domain.State{}, fmt.Errorf("decode state: %w", err)
		}
		s.ZipRanges = append(s.ZipRanges, zr)
	}
	return s, nil
}

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) str(v string) error {
	if len(v) > 255 {
		return fmt.Errorf("string field %q exceeds 255 bytes", v[:16]+"...")
	}
	w.u8(uint8(len(v)))
	w.buf = append(w.buf, v...)
	return nil
}

// EncodeUser encodes a users-table value. Used by the offline loader.
func EncodeUser(u domain.User) ([]byte, error) {
	var w writer
	for _, s := range []string{u.FirstName, u.LastName, u.Email} {
		if err := w.str(s); err != nil {
			return nil, fmt.Errorf("encode user: %w", err)
		}
	}
	return w.buf, nil
}

// EncodeCard encodes a cards-table value. Used by the offline loader.
func EncodeCard(c domain.Card) ([]byte, error) {
	var w writer
	w.u8(uint8(c.Type))
	w.u8(c.ExpMonth)
	w.u8(c.ExpYear)
	w.u32(c.CVV)
	if err := w.str(c.PAN); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return w.buf, nil
}

// EncodeMerchant encodes a merchants-table value. Used by the offline
// loader.
func EncodeMerchant(m domain.Merchant) ([]byte, error) {
	var w writer
	if err := w.str(m.Name); err != nil {
		return nil, fmt.Errorf("encode merchant: %w", err)
	}
	w.u32(m.MCC)
	w.u8(uint8(m.Category))
	w.u64(uint64(len(m.Locations)))
	for _, loc := range m.Locations {
		w.u8(boolByte(loc.Online))
		w.u8(boolByte(loc.Foreign))
		w.u32(loc.Zip)
		if err := w.str(loc.City); err != nil {
			return nil, fmt.Errorf("encode merchant: %w", err)
		}
		if err := w.str(loc.State); err != nil {
			return nil, fmt.Errorf("encode merchant: %w", err)
		}
	}
	return w.buf, nil
}

// EncodeState encodes a states-table value. Used by the offline loader.
func EncodeState(s domain.State) ([]byte, error) {
	var w writer
	if err := w.str(s.Name); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if err := w.str(s.Capital); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	w.u64(uint64(len(s.ZipRanges)))
	for _, zr := range s.ZipRanges {
		w.u32(zr.Start)
		w.u32(zr.End)
	}
	return w.buf, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
