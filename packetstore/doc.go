// Package packetstore persists in-flight protocol packets of a
// publish/subscribe client so that QoS 1 and QoS 2 exchanges survive a
// process restart.
//
// A Store keeps packets keyed by their 16-bit message identifier in a single
// datafile. A Manager owns the two stores a client session needs, incoming
// and outgoing, under one base directory.
//
// Example:
//
//	m, err := packetstore.NewManager("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	p := packetstore.NewPacket(42).
//	    Set("qos", packetstore.Int(1)).
//	    Set("payload", packetstore.Bytes([]byte{0x00, 0x01, 0xff}))
//	_, err = m.Outgoing.Put(p)
//
//	st := m.Outgoing.CreateStream()
//	for p := range st.All() {
//	    resend(p)
//	}
package packetstore
