package integration

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/crew-alert/internal/auth"
	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/service/common"
	"github.com/oshokin/crew-alert/internal/service/server"
)

// testParams keep argon2id cheap in tests.
var testParams = auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// writeSettings stores a settings file for a server on addr using the given store.
func writeSettings(t *testing.T, addr string, store config.StoreConfig, seed bool) string {
	t.Helper()

	supervisorHash, err := auth.HashCode(config.DefaultSupervisorCode, testParams)
	require.NoError(t, err)

	crewMemberHash, err := auth.HashCode(config.DefaultCrewMemberCode, testParams)
	require.NoError(t, err)

	cfgPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress: addr,
		Timeout:       3 * time.Second,
		Store:         store,
		AccessCodes:   config.AccessCodes{Supervisor: supervisorHash, CrewMember: crewMemberHash},
		SeedDemoCrew:  seed,
	}))

	return cfgPath
}

// reservePort returns a free local TCP address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startServer runs crew-server until the returned stop function is called.
func startServer(t *testing.T, cfgPath, addr string) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    cfgPath,
			ListenAddress: addr,
			Ready:         func(net.Addr) { close(ready) },
		})
	}()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		require.FailNow(t, "server stopped before listening", "error: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		require.FailNow(t, "server did not start")
	}

	var once sync.Once

	stop = func() {
		once.Do(func() {
			cancel()
			require.NoError(t, <-done)
		})
	}

	t.Cleanup(stop)

	return stop
}

// dial connects a client and closes it with the test.
func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	client, err := common.Dial(context.Background(), addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
