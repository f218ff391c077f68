// Package webm implements the EBML element-tree parser core and the WebM
// container specialization on top of it: the cluster/block decoder, the
// Tracks parser, the ContentEncodings parser, and the top-level stream
// parser state machine. Grounded on media/webm/webm_parser.cc,
// webm_cluster_parser.cc, webm_tracks_parser.cc, webm_stream_parser.cc.
package webm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ElementType classifies how an element's body is decoded by the generic
// driver.
type ElementType int

const (
	TypeUnknown ElementType = iota
	TypeMaster
	TypeUInt
	TypeFloat
	TypeString
	TypeBinary
)

// Client is the parse-tree visitor every EBML consumer implements. There
// is no signed-integer or date callback since this module's schema has no
// elements of those types.
type Client interface {
	// OnListStart is called when a master (list) element begins. It
	// returns the client that should receive callbacks for the element's
	// children, and false to fail the whole parse.
	OnListStart(id uint32) (Client, bool)
	// OnListEnd is called when a master element's children have all been
	// dispatched.
	OnListEnd(id uint32) bool
	OnUInt(id uint32, val uint64) bool
	OnFloat(id uint32, val float64) bool
	OnBinary(id uint32, data []byte) bool
	OnString(id uint32, val string) bool
}

// Parser drives the generic EBML dispatch over a byte stream fed in
// arbitrary-sized chunks. It is restartable at byte granularity: a Parse
// call that ends mid-element simply buffers the partial bytes for the next
// call.
type Parser struct {
	client  Client
	pending []byte
}

// NewParser builds a Parser dispatching top-level elements to client.
func NewParser(client Client) *Parser {
	return &Parser{client: client}
}

// Parse appends buf to the parser's pending buffer, dispatches every
// complete element it can, and returns len(buf) (the parser always takes
// ownership of what it's given, buffering any incomplete trailing element
// internally rather than asking the caller to resubmit a byte range).
func (p *Parser) Parse(buf []byte) (int, error) {
	p.pending = append(p.pending, buf...)
	consumed, err := parseElements(p.pending, p.client)
	if err != nil {
		return 0, err
	}
	p.pending = p.pending[consumed:]
	return len(buf), nil
}

// parseElements dispatches as many complete top-level elements in data as
// are available, returning the number of bytes consumed (a prefix of
// data); the remainder is an incomplete element awaiting more bytes.
func parseElements(data []byte, client Client) (int, error) {
	offset := 0
	for {
		n, err := parseOneElement(data[offset:], client)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return offset, nil
		}
		offset += n
	}
}

func parseOneElement(data []byte, client Client) (int, error) {
	id, idLen, ok := readVInt(data, true)
	if !ok {
		return 0, nil
	}
	size, sizeLen, ok := readVInt(data[idLen:], false)
	if !ok {
		return 0, nil
	}
	headerLen := idLen + sizeLen
	total := headerLen + int(size)
	if len(data) < total {
		return 0, nil
	}
	body := data[headerLen:total]
	elemID := uint32(id)

	switch schema[elemID] {
	case TypeMaster:
		child, ok := client.OnListStart(elemID)
		if !ok {
			return 0, fmt.Errorf("webm: OnListStart rejected element %#x", elemID)
		}
		consumed, err := parseElements(body, child)
		if err != nil {
			return 0, err
		}
		if consumed != len(body) {
			return 0, fmt.Errorf("webm: element %#x has a truncated child", elemID)
		}
		if !client.OnListEnd(elemID) {
			return 0, fmt.Errorf("webm: OnListEnd rejected element %#x", elemID)
		}
	case TypeUInt:
		v, err := decodeUint(body)
		if err != nil {
			return 0, fmt.Errorf("webm: element %#x: %w", elemID, err)
		}
		if !client.OnUInt(elemID, v) {
			return 0, fmt.Errorf("webm: OnUInt rejected element %#x", elemID)
		}
	case TypeFloat:
		v, err := decodeFloat(body)
		if err != nil {
			return 0, fmt.Errorf("webm: element %#x: %w", elemID, err)
		}
		if !client.OnFloat(elemID, v) {
			return 0, fmt.Errorf("webm: OnFloat rejected element %#x", elemID)
		}
	case TypeString:
		if !client.OnString(elemID, string(body)) {
			return 0, fmt.Errorf("webm: OnString rejected element %#x", elemID)
		}
	case TypeBinary:
		if !client.OnBinary(elemID, body) {
			return 0, fmt.Errorf("webm: OnBinary rejected element %#x", elemID)
		}
	default:
		// Unrecognized id: skipped by size, no callback.
	}
	return total, nil
}

// readVInt decodes one EBML variable-length integer starting at data[0].
// For element ids, keepMarker must be true (the length-marker bit is part
// of the id's value); for sizes it must be false (the marker is stripped).
// Returns ok=false if data doesn't yet contain a complete vint.
func readVInt(data []byte, keepMarker bool) (value int64, length int, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	first := data[0]
	mask := byte(0x80)
	length = 1
	for mask != 0 && first&mask == 0 {
		mask >>= 1
		length++
	}
	if mask == 0 {
		return 0, 0, false
	}
	if len(data) < length {
		return 0, 0, false
	}
	if keepMarker {
		value = int64(first)
	} else {
		value = int64(first &^ mask)
	}
	for i := 1; i < length; i++ {
		value = value<<8 | int64(data[i])
	}
	return value, length, true
}

func decodeUint(body []byte) (uint64, error) {
	if len(body) == 0 || len(body) > 8 {
		return 0, fmt.Errorf("invalid uint element length %d", len(body))
	}
	var v uint64
	for _, b := range body {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func decodeFloat(body []byte) (float64, error) {
	switch len(body) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(body))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(body)), nil
	default:
		return 0, fmt.Errorf("invalid float element length %d", len(body))
	}
}
