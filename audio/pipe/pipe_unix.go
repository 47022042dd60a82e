//go:build unix

package pipe

import "golang.org/x/sys/unix"

// defaultPath is the POSIX FIFO path.
const defaultPath = "/tmp/vban_0"

// createFIFO creates a FIFO special file at path if one doesn't
// already exist.
func createFIFO(path string) error {
	err := unix.Mkfifo(path, 0666)
	if err != nil && err != unix.EEXIST {
		return err
	}
	return nil
}
