/*
	Churn-heavy load generator: several workers put, replace and acknowledge
	packets against one manager so the datafiles build up dead records for
	compaction to reclaim. Settings come from PACKETSTORE_* variables.
*/

package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-packetstore/internal/config"
	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/0xRadioAc7iv/go-packetstore/internal/utils"
	"github.com/0xRadioAc7iv/go-packetstore/packetstore"
)

const (
	concurrency = 6

	// Message ids cycle through a fixed window like a busy client session
	totalIDs = 1000

	packetsPerCycleWrite = 20
	packetsPerCycleAck   = 10
	cyclesPerWorker      = 5000

	sleepBetweenCycles = 10 * time.Millisecond

	progressEvery = 500
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logger.Get().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log)
	log := logger.Get()

	m, err := packetstore.NewManager(cfg.Dir,
		packetstore.WithStoreOptions(
			packetstore.WithEngine(packetstore.EngineKind(cfg.Engine)),
			packetstore.WithBinaryPrefix(cfg.Bprefix),
			packetstore.WithAutocompactionInterval(cfg.Autocompaction.Interval),
		),
	)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	ctx, stop := utils.InterruptContext(context.Background())
	defer stop()

	start := time.Now()
	log.Info("starting packet churn load generator", "dir", m.Path(), "workers", concurrency)

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(ctx, id, m)
		}(i)
	}

	wg.Wait()
	log.Info("load finished",
		"elapsed", time.Since(start),
		"incoming", m.Incoming.Count(),
		"outgoing", m.Outgoing.Count(),
	)
}

func runWorker(ctx context.Context, id int, m *packetstore.Manager) {
	log := logger.Get().With("worker", id)
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for cycle := 1; cycle <= cyclesPerWorker; cycle++ {
		if ctx.Err() != nil {
			log.Info("interrupted", "cycle", cycle)
			return
		}

		// publish
		for i := 0; i < packetsPerCycleWrite; i++ {
			if _, err := m.Outgoing.Put(makePacket(rng, "publish")); err != nil {
				log.Error("put failed", "error", err)
				return
			}
		}

		// acknowledge: dropping an id nobody stored is fine
		for i := 0; i < packetsPerCycleAck; i++ {
			msgID := uint16(rng.Intn(totalIDs) + 1)
			if _, err := m.Outgoing.Del(msgID); err != nil && !errors.Is(err, packetstore.ErrMissingPacket) {
				log.Error("del failed", "error", err)
				return
			}
		}

		// QoS 2 handshake overwrites on the receiving side
		for i := 0; i < packetsPerCycleWrite/2; i++ {
			if _, err := m.Incoming.Put(makePacket(rng, "pubrel")); err != nil {
				log.Error("put failed", "error", err)
				return
			}
		}

		if cycle%progressEvery == 0 {
			log.Info("progress", "cycles", cycle)
		}

		if sleepBetweenCycles > 0 {
			time.Sleep(sleepBetweenCycles)
		}
	}
}

func makePacket(rng *rand.Rand, cmd string) packetstore.Packet {
	payload := make([]byte, 16+rng.Intn(48))
	rng.Read(payload)

	return packetstore.NewPacket(uint16(rng.Intn(totalIDs)+1)).
		Set("cmd", packetstore.Text(cmd)).
		Set("qos", packetstore.Int(int64(1+rng.Intn(2)))).
		Set("topic", packetstore.Text("load/churn")).
		Set("payload", packetstore.Bytes(payload))
}
