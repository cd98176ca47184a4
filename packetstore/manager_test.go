package packetstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/0xRadioAc7iv/go-packetstore/packetstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() packetstore.ManagerOption {
	return packetstore.WithManagerLogger(logger.Discard())
}

func TestManagerDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	m, err := packetstore.NewManager("", quiet())
	require.NoError(t, err)
	defer m.Close()

	base := filepath.Join(home, packetstore.DefaultDirName)
	assert.Equal(t, base, m.Path())
	assert.FileExists(t, filepath.Join(base, packetstore.IncomingName))
	assert.FileExists(t, filepath.Join(base, packetstore.OutgoingName))
	assert.Equal(t, packetstore.IncomingName, m.Incoming.Name())
	assert.Equal(t, packetstore.OutgoingName, m.Outgoing.Name())
}

func TestManagerExistingDirectory(t *testing.T) {
	base := t.TempDir()

	m, err := packetstore.NewManager(base, quiet())
	require.NoError(t, err)
	require.NoError(t, m.Close())

	m, err = packetstore.NewManager(base, quiet())
	require.NoError(t, err)
	require.NoError(t, m.Close())
}

func TestManagerNestedPath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "a", "b")

	m, err := packetstore.NewManager(base, quiet())
	require.NoError(t, err)
	defer m.Close()

	assert.DirExists(t, base)
}

func TestManagerBaseIsFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o644))

	_, err := packetstore.NewManager(base, quiet())
	assert.ErrorIs(t, err, packetstore.ErrBaseDirectory)
}

func TestManagerStoresAreIndependent(t *testing.T) {
	m, err := packetstore.NewManager(t.TempDir(), quiet())
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Outgoing.Put(qos1Packet())
	require.NoError(t, err)

	_, err = m.Incoming.Get(42)
	assert.ErrorIs(t, err, packetstore.ErrMissingPacket)
	assert.Equal(t, 1, m.Outgoing.Count())
	assert.Equal(t, 0, m.Incoming.Count())

	s, ok := m.Store("outgoing")
	require.True(t, ok)
	assert.Same(t, m.Outgoing, s)

	_, ok = m.Store("sideways")
	assert.False(t, ok)
}

func TestManagerOptions(t *testing.T) {
	base := t.TempDir()
	custom := filepath.Join(t.TempDir(), "in.db")

	m, err := packetstore.NewManager(base, quiet(),
		packetstore.WithStoreOptions(packetstore.WithPageSize(10)),
		packetstore.WithIncomingOptions(
			packetstore.WithFilename(custom),
			packetstore.WithEngine(packetstore.EngineSQLite),
		),
		packetstore.WithOutgoingOptions(packetstore.WithPageSize(20)),
	)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, custom, m.Incoming.Options().Filename)
	assert.Equal(t, packetstore.EngineSQLite, m.Incoming.Options().Engine)
	assert.Equal(t, 10, m.Incoming.Options().PageSize)
	assert.Equal(t, 20, m.Outgoing.Options().PageSize)
	assert.Equal(t, packetstore.EngineLog, m.Outgoing.Options().Engine)
	assert.FileExists(t, custom)
}

func TestManagerCloseTwice(t *testing.T) {
	m, err := packetstore.NewManager(t.TempDir(), quiet())
	require.NoError(t, err)

	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
