package testutil

import (
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
)

var (
	portMu    sync.Mutex
	usedPorts = make(map[int]struct{})
)

// GetRandomPort returns a free TCP port that no other caller in this test
// binary has been given.
func GetRandomPort(t *testing.T) int {
	t.Helper()
	portMu.Lock()
	defer portMu.Unlock()

	for range 20 {
		listener, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			t.Fatalf("Failed to get random port: %v", err)
		}
		p := listener.Addr().(*net.TCPAddr).Port
		if err := listener.Close(); err != nil {
			t.Fatalf("Failed to close listener: %v", err)
		}
		if _, ok := usedPorts[p]; ok {
			continue
		}
		usedPorts[p] = struct{}{}
		return p
	}
	t.Fatal("No unused port found")
	return 0
}

// GetRandomListeningPort returns "localhost:<port>" for a free port.
func GetRandomListeningPort(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("localhost:%d", GetRandomPort(t))
}

// UnixSocket returns a socket in a per-test directory, as the listen address
// the RPC server accepts and the address a client dials.
func UnixSocket(t *testing.T) (listen, dial string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paracore.sock")
	return "unix:" + path, "unix://" + path
}
