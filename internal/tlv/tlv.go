// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tlv encodes and decodes the tag-length-value records used in card
// files. A tag is one byte. Lengths below 0xFF take one byte; longer values
// are written as 0xFF followed by a two byte big endian length.
package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a record runs past the end of the input.
var ErrTruncated = errors.New("tlv: truncated record")

const longLength = 0xFF

// Tag identifies a record.
type Tag byte

// Record is a single decoded tag-length-value entry.
type Record struct {
	Tag   Tag
	Value []byte
}

// Records is an ordered list of records.
type Records []Record

// Decode parses data into records.
func Decode(data []byte) (Records, error) {
	var out Records
	for i := 0; i < len(data); {
		tag := Tag(data[i])
		i++
		if i >= len(data) {
			return nil, fmt.Errorf("%w: tag 0x%02x has no length", ErrTruncated, byte(tag))
		}
		n := int(data[i])
		i++
		if n == longLength {
			if i+2 > len(data) {
				return nil, fmt.Errorf("%w: tag 0x%02x long length", ErrTruncated, byte(tag))
			}
			n = int(binary.BigEndian.Uint16(data[i : i+2]))
			i += 2
		}
		if i+n > len(data) {
			return nil, fmt.Errorf("%w: tag 0x%02x wants %d bytes", ErrTruncated, byte(tag), n)
		}
		value := make([]byte, n)
		copy(value, data[i:i+n])
		out = append(out, Record{Tag: tag, Value: value})
		i += n
	}
	return out, nil
}

// Encode serializes records in order.
func Encode(records Records) ([]byte, error) {
	var out []byte
	for _, r := range records {
		if len(r.Value) > 0xFFFF {
			return nil, fmt.Errorf("tlv: tag 0x%02x value too long (%d bytes)", byte(r.Tag), len(r.Value))
		}
		out = append(out, byte(r.Tag))
		if len(r.Value) >= longLength {
			out = append(out, longLength)
			out = binary.BigEndian.AppendUint16(out, uint16(len(r.Value)))
		} else {
			out = append(out, byte(len(r.Value)))
		}
		out = append(out, r.Value...)
	}
	return out, nil
}

// Lookup returns the value of the first record with tag.
func (rs Records) Lookup(tag Tag) ([]byte, bool) {
	for _, r := range rs {
		if r.Tag == tag {
			return r.Value, true
		}
	}
	return nil, false
}

// String returns the value of tag as a string, or "" when absent.
func (rs Records) String(tag Tag) string {
	v, _ := rs.Lookup(tag)
	return string(v)
}

// Uint32 returns the big endian value of tag. Values shorter than four bytes
// are left padded.
func (rs Records) Uint32(tag Tag) (uint32, bool, error) {
	v, ok := rs.Lookup(tag)
	if !ok {
		return 0, false, nil
	}
	if len(v) > 4 {
		return 0, true, fmt.Errorf("tlv: tag 0x%02x holds %d bytes, want at most 4", byte(tag), len(v))
	}
	var buf [4]byte
	copy(buf[4-len(v):], v)
	return binary.BigEndian.Uint32(buf[:]), true, nil
}

// Uint32Bytes encodes v as four big endian bytes.
func Uint32Bytes(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}
