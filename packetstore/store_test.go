package packetstore_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/0xRadioAc7iv/go-packetstore/packetstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engines = []packetstore.EngineKind{packetstore.EngineLog, packetstore.EngineSQLite}

func openStore(t *testing.T, engine packetstore.EngineKind, opts ...packetstore.Option) *packetstore.Store {
	t.Helper()

	opts = append([]packetstore.Option{
		packetstore.WithEngine(engine),
		packetstore.WithLogger(logger.Discard()),
	}, opts...)

	s, err := packetstore.Open(filepath.Join(t.TempDir(), "outgoing"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func eachEngine(t *testing.T, fn func(t *testing.T, engine packetstore.EngineKind)) {
	for _, engine := range engines {
		t.Run(string(engine), func(t *testing.T) {
			fn(t, engine)
		})
	}
}

func qos1Packet() packetstore.Packet {
	return packetstore.NewPacket(42).
		Set("cmd", packetstore.Text("publish")).
		Set("qos", packetstore.Int(1)).
		Set("payload", packetstore.Bytes([]byte{0x00, 0x01, 0xff}))
}

func TestStorePutGet(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		p := qos1Packet()
		stored, err := s.Put(p)
		require.NoError(t, err)
		assert.True(t, p.Equal(stored))

		got, err := s.Get(42)
		require.NoError(t, err)
		assert.True(t, p.Equal(got), "got %s", got)

		payload, ok := got.Field("payload")
		require.True(t, ok)
		assert.Equal(t, packetstore.KindBytes, payload.Kind())
		assert.Equal(t, []byte{0x00, 0x01, 0xff}, payload.Bytes())
	})
}

func TestStorePutReplaces(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		_, err := s.Put(qos1Packet())
		require.NoError(t, err)

		pubrel := packetstore.NewPacket(42).Set("cmd", packetstore.Text("pubrel"))
		_, err = s.Put(pubrel)
		require.NoError(t, err)
		_, err = s.Put(pubrel)
		require.NoError(t, err)

		assert.Equal(t, 1, s.Count())

		got, err := s.Get(42)
		require.NoError(t, err)
		assert.True(t, pubrel.Equal(got), "got %s", got)
	})
}

func TestStoreGetMissing(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		_, err := s.Put(qos1Packet())
		require.NoError(t, err)

		_, err = s.Get(7)
		assert.ErrorIs(t, err, packetstore.ErrMissingPacket)
		assert.Equal(t, 1, s.Count())
	})
}

func TestStoreDel(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		p := qos1Packet()
		_, err := s.Put(p)
		require.NoError(t, err)
		_, err = s.Put(packetstore.NewPacket(43).Set("qos", packetstore.Int(2)))
		require.NoError(t, err)

		_, err = s.Del(7)
		assert.ErrorIs(t, err, packetstore.ErrMissingPacket)
		assert.Equal(t, 2, s.Count(), "deleting an unknown id must not touch other packets")

		prior, err := s.Del(42)
		require.NoError(t, err)
		assert.True(t, p.Equal(prior), "del should return the removed packet, got %s", prior)

		_, err = s.Get(42)
		assert.ErrorIs(t, err, packetstore.ErrMissingPacket)

		_, err = s.Del(42)
		assert.ErrorIs(t, err, packetstore.ErrMissingPacket)
		assert.Equal(t, 1, s.Count())

		_, err = s.Get(43)
		assert.NoError(t, err)
	})
}

func TestStoreEmptyBytes(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		_, err := s.Put(packetstore.NewPacket(3).Set("payload", packetstore.Bytes(nil)))
		require.NoError(t, err)

		got, err := s.Get(3)
		require.NoError(t, err)

		v, ok := got.Field("payload")
		require.True(t, ok)
		assert.True(t, packetstore.Text("").Equal(v), "got %s", v)
	})
}

func TestStoreCustomBinaryPrefix(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine, packetstore.WithBinaryPrefix("bin:"))

		p := packetstore.NewPacket(9).
			Set("topic", packetstore.Text("b:base64:AAH/")).
			Set("payload", packetstore.Bytes([]byte("hi")))
		_, err := s.Put(p)
		require.NoError(t, err)

		got, err := s.Get(9)
		require.NoError(t, err)
		assert.True(t, p.Equal(got), "got %s", got)
	})
}

func TestStorePersistence(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		path := filepath.Join(t.TempDir(), "incoming")
		opts := []packetstore.Option{
			packetstore.WithEngine(engine),
			packetstore.WithLogger(logger.Discard()),
		}

		s, err := packetstore.Open(path, opts...)
		require.NoError(t, err)
		for id := uint16(1); id <= 10; id++ {
			_, err := s.Put(packetstore.NewPacket(id).Set("qos", packetstore.Int(2)))
			require.NoError(t, err)
		}
		_, err = s.Del(5)
		require.NoError(t, err)
		require.NoError(t, s.Close())

		s, err = packetstore.Open(path, opts...)
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, 9, s.Count())
		_, err = s.Get(5)
		assert.ErrorIs(t, err, packetstore.ErrMissingPacket)

		got, err := s.Get(10)
		require.NoError(t, err)
		qos, _ := got.Field("qos")
		assert.Equal(t, int64(2), qos.Int())
	})
}

func TestStoreCompact(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		for i := 0; i < 20; i++ {
			_, err := s.Put(packetstore.NewPacket(1).Set("n", packetstore.Int(int64(i))))
			require.NoError(t, err)
		}

		require.NoError(t, s.Compact())

		got, err := s.Get(1)
		require.NoError(t, err)
		n, _ := got.Field("n")
		assert.Equal(t, int64(19), n.Int())
	})
}

func TestStoreConcurrentPuts(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					id := uint16(w*50 + i)
					_, err := s.Put(packetstore.NewPacket(id).Set("w", packetstore.Int(int64(w))))
					assert.NoError(t, err)
				}
			}(w)
		}
		wg.Wait()

		assert.Equal(t, 200, s.Count())
	})
}

func TestStoreClose(t *testing.T) {
	s := openStore(t, packetstore.EngineLog, packetstore.WithAutocompactionInterval(time.Millisecond))

	assert.Equal(t, time.Second*5, s.Options().AutocompactionInterval)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err := s.Put(qos1Packet())
	assert.ErrorIs(t, err, packetstore.ErrStoreClosed)
	_, err = s.Get(42)
	assert.ErrorIs(t, err, packetstore.ErrStoreClosed)
}

func TestOpenOptions(t *testing.T) {
	_, err := packetstore.Open("")
	assert.ErrorIs(t, err, packetstore.ErrNoFilename)

	_, err = packetstore.Open(filepath.Join(t.TempDir(), "x"), packetstore.WithEngine("bolt"))
	assert.ErrorIs(t, err, packetstore.ErrUnknownEngine)

	s := openStore(t, packetstore.EngineLog)
	o := s.Options()
	assert.Equal(t, "outgoing", s.Name())
	assert.Equal(t, packetstore.DefaultBinaryPrefix, o.BinaryPrefix)
	assert.Equal(t, packetstore.DefaultPageSize, o.PageSize)
	assert.Zero(t, o.AutocompactionInterval)
}

func TestStorePrefixedTextIsNotBase64(t *testing.T) {
	eachEngine(t, func(t *testing.T, engine packetstore.EngineKind) {
		s := openStore(t, engine)

		odd := packetstore.NewPacket(2).Set("topic", packetstore.Text("b:base64:sensors/temp room"))
		for _, p := range []packetstore.Packet{
			packetstore.NewPacket(1).Set("qos", packetstore.Int(1)),
			odd,
			packetstore.NewPacket(3).Set("qos", packetstore.Int(1)),
		} {
			_, err := s.Put(p)
			require.NoError(t, err)
		}

		got, err := s.Get(2)
		require.NoError(t, err)
		assert.True(t, odd.Equal(got), "got %s", got)

		var ids []uint16
		st := s.CreateStream()
		for p := range st.All() {
			ids = append(ids, p.MessageID)
		}
		require.NoError(t, st.Err())
		assert.ElementsMatch(t, []uint16{1, 2, 3}, ids)

		prior, err := s.Del(2)
		require.NoError(t, err)
		assert.True(t, odd.Equal(prior), "got %s", prior)
		assert.Equal(t, 2, s.Count())
	})
}
