package cli

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/go-packetstore/packetstore"
)

var ErrUsage = errors.New("usage")

// session runs store commands against one open manager. The one-shot
// subcommands and the shell share it.
type session struct {
	m   *packetstore.Manager
	out io.Writer
}

func (s *session) store(direction string) (*packetstore.Store, error) {
	st, ok := s.m.Store(strings.ToLower(direction))
	if !ok {
		return nil, fmt.Errorf("unknown store %q: must be %s or %s", direction, packetstore.IncomingName, packetstore.OutgoingName)
	}
	return st, nil
}

// stores returns the store named by args, or both when args is empty.
func (s *session) stores(args []string) ([]*packetstore.Store, error) {
	if len(args) == 0 {
		return []*packetstore.Store{s.m.Incoming, s.m.Outgoing}, nil
	}

	st, err := s.store(args[0])
	if err != nil {
		return nil, err
	}
	return []*packetstore.Store{st}, nil
}

func (s *session) ls(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: ls <incoming|outgoing>", ErrUsage)
	}

	st, err := s.store(args[0])
	if err != nil {
		return err
	}

	stream := st.CreateStream()
	defer stream.Destroy()

	for p := range stream.All() {
		fmt.Fprintln(s.out, p)
	}
	return stream.Err()
}

func (s *session) get(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: get <incoming|outgoing> <message-id>", ErrUsage)
	}

	st, id, err := s.target(args)
	if err != nil {
		return err
	}

	p, err := st.Get(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, p)
	return nil
}

func (s *session) put(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: put <incoming|outgoing> <message-id> [field=value ...]", ErrUsage)
	}

	st, id, err := s.target(args)
	if err != nil {
		return err
	}

	p := packetstore.NewPacket(id)
	for _, arg := range args[2:] {
		name, v, err := ParseField(arg)
		if err != nil {
			return err
		}
		p.Set(name, v)
	}

	if _, err := st.Put(p); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "ok")
	return nil
}

func (s *session) del(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: del <incoming|outgoing> <message-id>", ErrUsage)
	}

	st, id, err := s.target(args)
	if err != nil {
		return err
	}

	p, err := st.Del(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, p)
	return nil
}

func (s *session) count(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: count [incoming|outgoing]", ErrUsage)
	}

	stores, err := s.stores(args)
	if err != nil {
		return err
	}

	for _, st := range stores {
		fmt.Fprintf(s.out, "%s %d\n", st.Name(), st.Count())
	}
	return nil
}

func (s *session) compact(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: compact [incoming|outgoing]", ErrUsage)
	}

	stores, err := s.stores(args)
	if err != nil {
		return err
	}

	for _, st := range stores {
		if err := st.Compact(); err != nil {
			return fmt.Errorf("compact %s: %w", st.Name(), err)
		}
	}

	fmt.Fprintln(s.out, "ok")
	return nil
}

func (s *session) target(args []string) (*packetstore.Store, uint16, error) {
	st, err := s.store(args[0])
	if err != nil {
		return nil, 0, err
	}

	id, err := ParseMessageID(args[1])
	if err != nil {
		return nil, 0, err
	}
	return st, id, nil
}

// ParseMessageID parses a decimal message identifier in 0..65535.
func ParseMessageID(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q: %w", s, err)
	}
	return uint16(n), nil
}

// ParseField parses name=value, or name:type=value with type one of int,
// float, bool, hex, b64 or text.
func ParseField(arg string) (string, packetstore.Value, error) {
	key, raw, ok := strings.Cut(arg, "=")
	if !ok || key == "" {
		return "", packetstore.Value{}, fmt.Errorf("invalid field %q: expected name=value", arg)
	}

	name, typ, _ := strings.Cut(key, ":")
	if name == "" {
		return "", packetstore.Value{}, fmt.Errorf("invalid field %q: empty name", arg)
	}

	v, err := parseValue(typ, raw)
	if err != nil {
		return "", packetstore.Value{}, fmt.Errorf("invalid field %q: %w", arg, err)
	}
	return name, v, nil
}

func parseValue(typ, raw string) (packetstore.Value, error) {
	switch strings.ToLower(typ) {
	case "", "text":
		return packetstore.Text(raw), nil
	case "int":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return packetstore.Value{}, err
		}
		return packetstore.Int(n), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return packetstore.Value{}, err
		}
		return packetstore.Float(f), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return packetstore.Value{}, err
		}
		return packetstore.Bool(b), nil
	case "hex":
		b, err := hex.DecodeString(raw)
		if err != nil {
			return packetstore.Value{}, err
		}
		return packetstore.Bytes(b), nil
	case "b64":
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return packetstore.Value{}, err
		}
		return packetstore.Bytes(b), nil
	default:
		return packetstore.Value{}, fmt.Errorf("unknown type %q", typ)
	}
}
