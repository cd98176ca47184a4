package packetstore

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindBytes
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a single packet field. Exactly one variant is set, selected by
// Kind; the zero Value is invalid and cannot be stored.
type Value struct {
	kind  Kind
	text  string
	raw   []byte
	num   int64
	float float64
	flag  bool
}

func Text(s string) Value   { return Value{kind: KindText, text: s} }
func Bytes(b []byte) Value  { return Value{kind: KindBytes, raw: b} }
func Int(n int64) Value     { return Value{kind: KindInt, num: n} }
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }
func Bool(b bool) Value     { return Value{kind: KindBool, flag: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Text() string { return v.text }

func (v Value) Bytes() []byte { return v.raw }

func (v Value) Int() int64 { return v.num }

func (v Value) Float() float64 { return v.float }

func (v Value) Bool() bool { return v.flag }

// Equal reports whether v and o hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.float == o.float
	case KindBool:
		return v.flag == o.flag
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return fmt.Sprintf("%q", v.text)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.raw)
	case KindInt:
		return fmt.Sprintf("%d", v.num)
	case KindFloat:
		return fmt.Sprintf("%g", v.float)
	case KindBool:
		return fmt.Sprintf("%t", v.flag)
	default:
		return "<invalid>"
	}
}

// Packet is a protocol message in flight, keyed by its message identifier.
// Fields carries every other protocol attribute.
type Packet struct {
	MessageID uint16
	Fields    map[string]Value
}

// NewPacket returns a packet with an empty field map.
func NewPacket(id uint16) Packet {
	return Packet{MessageID: id, Fields: make(map[string]Value)}
}

// Set stores field name and returns p for chaining.
func (p Packet) Set(name string, v Value) Packet {
	if p.Fields == nil {
		p.Fields = make(map[string]Value)
	}
	p.Fields[name] = v
	return p
}

// Field returns the named field and whether it is present.
func (p Packet) Field(name string) (Value, bool) {
	v, ok := p.Fields[name]
	return v, ok
}

// Equal reports whether both packets have the same identifier and fields.
func (p Packet) Equal(o Packet) bool {
	if p.MessageID != o.MessageID || len(p.Fields) != len(o.Fields) {
		return false
	}
	for name, v := range p.Fields {
		ov, ok := o.Fields[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the packet as `id=42 payload=0x0001ff qos=1` with fields in
// name order.
func (p Packet) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "id=%d", p.MessageID)
	for _, name := range slices.Sorted(maps.Keys(p.Fields)) {
		fmt.Fprintf(&sb, " %s=%s", name, p.Fields[name])
	}
	return sb.String()
}
