//go:build darwin || linux
// +build darwin linux

package nettools

import "golang.org/x/sys/unix"

var _ = func() error { // make sure this executes before func init()
	prober = pollReadable
	return nil
}()

// pollReadable polls the descriptor for readability with a zero timeout.
// An idle HTTP/1 connection must have nothing to read; POLLIN here means
// a FIN or unsolicited bytes, and POLLHUP/POLLERR mean it is gone.
func pollReadable(fd int) bool {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 {
		return false
	}
	return fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
}
