package packetstore_test

import (
	"testing"
	"time"

	"github.com/0xRadioAc7iv/go-packetstore/packetstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, s *packetstore.Store, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		_, err := s.Put(packetstore.NewPacket(uint16(i + 1)).Set("qos", packetstore.Int(1)))
		require.NoError(t, err)
	}
}

func TestStreamAllPages(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)
		fill(t, s, 1200)

		st := s.CreateStream()
		defer st.Destroy()

		seen := make(map[uint16]bool)
		for st.Next() {
			id := st.Packet().MessageID
			assert.False(t, seen[id], "packet %d streamed twice", id)
			seen[id] = true
		}

		require.NoError(t, st.Err())
		assert.Len(t, seen, 1200)
	})
}

func TestStreamEmptyStore(t *testing.T) {
	s := openStore(t, packetstore.EngineLog)

	st := s.CreateStream()
	assert.False(t, st.Next())
	assert.NoError(t, st.Err())
}

func TestStreamSmallPages(t *testing.T) {
	s := openStore(t, packetstore.EngineLog, packetstore.WithPageSize(3))
	fill(t, s, 10)

	var ids []uint16
	for p := range s.CreateStream().All() {
		ids = append(ids, p.MessageID)
	}

	assert.Len(t, ids, 10)
}

func TestStreamDestroy(t *testing.T) {
	s := openStore(t, packetstore.EngineLog, packetstore.WithPageSize(10))
	fill(t, s, 100)

	st := s.CreateStream()

	count := 0
	for st.Next() {
		count++
		if count == 5 {
			st.Destroy()
		}
	}
	assert.Equal(t, 5, count)
	assert.NoError(t, st.Err())

	st.Destroy()
	select {
	case <-st.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed after Destroy")
	}

	assert.False(t, st.Next())
}

func TestStreamBreakDestroys(t *testing.T) {
	s := openStore(t, packetstore.EngineSQLite, packetstore.WithPageSize(4))
	fill(t, s, 20)

	st := s.CreateStream()
	count := 0
	for range st.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)

	select {
	case <-st.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed after break")
	}
}

func TestStreamClosedStore(t *testing.T) {
	s := openStore(t, packetstore.EngineLog)
	fill(t, s, 3)
	require.NoError(t, s.Close())

	st := s.CreateStream()
	assert.False(t, st.Next())
	assert.ErrorIs(t, st.Err(), packetstore.ErrStoreClosed)
}
