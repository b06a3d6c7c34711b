//go:build darwin || linux

package nettools_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforge/fetch/utils/nettools"
)

func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	done := make(chan net.Conn, 1)
	go func() {
		c, _ := l.Accept()
		done <- c
	}()
	client, err = net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	server = <-done
	require.NotNil(t, server)
	t.Cleanup(func() { client.Close(); server.Close() })
	return client, server
}

func TestPeerClosedDetectsHangup(t *testing.T) {
	client, server := tcpPair(t)
	assert.False(t, nettools.PeerClosed(client), "open idle connection misreported")

	server.Close()
	assert.Eventually(t, func() bool {
		return nettools.PeerClosed(client)
	}, time.Second, 10*time.Millisecond, "hangup not observed")
}

func TestPeerClosedDetectsStrayBytes(t *testing.T) {
	client, server := tcpPair(t)

	// unsolicited data pending on an idle connection also disqualifies it
	_, err := server.Write([]byte("surprise"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return nettools.PeerClosed(client)
	}, time.Second, 10*time.Millisecond)
}

func TestPeerClosedUnprobeableConn(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	// no file descriptor to poll, so the check must stay conservative
	assert.False(t, nettools.PeerClosed(a))
}
