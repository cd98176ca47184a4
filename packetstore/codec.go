package packetstore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// messageIDField is the name the identifier is stored under inside the
// encoded packet.
const messageIDField = "messageId"

// storedRecord is the on-disk document for one packet.
//
//	{"id":42,"packet":{"messageId":42,"payload":"b:base64:AAH/","qos":1}}
type storedRecord struct {
	ID     uint16                     `json:"id"`
	Packet map[string]json.RawMessage `json:"packet"`
}

// encodePacket renders p as a storedRecord document. Bytes fields become
// prefix+base64, or "" when empty.
func encodePacket(p Packet, prefix string) ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(p.Fields)+1)
	fields[messageIDField] = json.RawMessage(strconv.FormatUint(uint64(p.MessageID), 10))

	for name, v := range p.Fields {
		if name == messageIDField {
			continue
		}

		raw, err := encodeValue(v, prefix)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fields[name] = raw
	}

	return json.Marshal(storedRecord{ID: p.MessageID, Packet: fields})
}

func encodeValue(v Value, prefix string) (json.RawMessage, error) {
	switch v.Kind() {
	case KindText:
		return json.Marshal(v.Text())
	case KindBytes:
		if len(v.Bytes()) == 0 {
			return json.Marshal("")
		}
		return json.Marshal(prefix + base64.StdEncoding.EncodeToString(v.Bytes()))
	case KindInt:
		return json.RawMessage(strconv.FormatInt(v.Int(), 10)), nil
	case KindFloat:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrUnsupportedValue
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return json.RawMessage(s), nil
	case KindBool:
		return json.RawMessage(strconv.FormatBool(v.Bool())), nil
	default:
		return nil, ErrUnsupportedValue
	}
}

// decodePacket reverses encodePacket. A string starting with prefix is
// decoded as base64 bytes when the rest is valid base64.
func decodePacket(doc []byte, prefix string) (Packet, error) {
	var rec storedRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return Packet{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	p := Packet{MessageID: rec.ID, Fields: make(map[string]Value, len(rec.Packet))}
	for name, raw := range rec.Packet {
		if name == messageIDField {
			continue
		}

		v, err := decodeValue(raw, prefix)
		if err != nil {
			return Packet{}, fmt.Errorf("%w: field %q: %v", ErrCorruptRecord, name, err)
		}
		p.Fields[name] = v
	}

	return p, nil
}

func decodeValue(raw json.RawMessage, prefix string) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Value{}, fmt.Errorf("empty value")
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		// Text that merely starts with the prefix stays text.
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			if b, err := base64.StdEncoding.DecodeString(rest); err == nil {
				return Bytes(b), nil
			}
		}
		return Text(s), nil

	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil

	case c == '-' || (c >= '0' && c <= '9'):
		s := string(raw)
		if strings.ContainsAny(s, ".eE") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, err
			}
			return Float(f), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil

	default:
		return Value{}, fmt.Errorf("unsupported JSON value %s", raw)
	}
}
