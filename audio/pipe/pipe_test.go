package pipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

type nopLogger struct{}

func (nopLogger) SetLevel(int8)                    {}
func (nopLogger) Log(int8, string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})     {}
func (nopLogger) Info(string, ...interface{})      {}
func (nopLogger) Warning(string, ...interface{})   {}
func (nopLogger) Error(string, ...interface{})     {}
func (nopLogger) Fatal(string, ...interface{})     {}

func TestOpenWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fifo")

	// Opening either end of a FIFO blocks until the other end is also
	// opened, so both Opens must run concurrently.
	rx := New(nopLogger{})
	rxErr := make(chan error, 1)
	go func() { rxErr <- rx.Open(path, audio.In, 0, vban.StreamConfig{}) }()

	tx := New(nopLogger{})
	txErr := make(chan error, 1)
	go func() { txErr <- tx.Open(path, audio.Out, 0, vban.StreamConfig{}) }()

	if err := <-rxErr; err != nil {
		t.Fatalf("In Open: %v", err)
	}
	defer rx.Close()
	if err := <-txErr; err != nil {
		t.Fatalf("Out Open: %v", err)
	}
	defer tx.Close()

	want := []byte{1, 2, 3, 4}
	writeErr := make(chan error, 1)
	go func() {
		_, err := tx.Write(want)
		writeErr <- err
	}()

	buf := make([]byte, 4)
	n, err := rx.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := <-writeErr; err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 4 {
		t.Errorf("Read returned %d bytes, want 4", n)
	}
}

func TestCloseUnlinksFIFO(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fifo")

	// The In end's Open blocks until a writer opens the FIFO too.
	tx := New(nopLogger{})
	txErr := make(chan error, 1)
	go func() { txErr <- tx.Open(path, audio.Out, 0, vban.StreamConfig{}) }()

	b := New(nopLogger{})
	if err := b.Open(path, audio.In, 0, vban.StreamConfig{}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := <-txErr; err != nil {
		t.Fatalf("Out Open: %v", err)
	}
	defer tx.Close()

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("FIFO still present after Close (stat error: %v)", err)
	}
	if _, err := b.Write([]byte{1}); err == nil {
		t.Errorf("Write after Close succeeded, want error")
	}
}

func TestDefaultPathIsSet(t *testing.T) {
	b := New(nopLogger{})
	if DefaultPath == "" {
		t.Fatalf("DefaultPath is empty")
	}
	_ = b
}
