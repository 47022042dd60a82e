package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

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

func TestWriteThenReadRoundTripsThroughWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 44100, BitFmt: vban.BitFormat16Int}

	w := New(nopLogger{})
	if err := w.Open(path, audio.Out, 0, cfg); err != nil {
		t.Fatalf("Out Open: %v", err)
	}
	want := []byte{1, 0, 2, 0, 3, 0, 4, 0} // two stereo frames of 16-bit PCM.
	if _, err := w.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := New(nopLogger{})
	if err := r.Open(path, audio.In, 0, cfg); err != nil {
		t.Fatalf("In Open: %v", err)
	}
	defer r.Close()

	got := make([]byte, len(want))
	n, err := r.Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(want, got[:n]); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenRejectsInvalidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-wav.bin")
	if err := os.WriteFile(path, []byte("not a wav file"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New(nopLogger{})
	if err := r.Open(path, audio.In, 0, vban.StreamConfig{}); err == nil {
		t.Errorf("Open on non-WAV file succeeded, want error")
	}
}

func TestEmptyPathFallsBackToRawStdout(t *testing.T) {
	b := New(nopLogger{})
	if err := b.Open("", audio.Out, 0, vban.StreamConfig{NbChannels: 1, SampleRate: 44100, BitFmt: vban.BitFormat16Int}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !b.raw {
		t.Errorf("empty path did not fall back to raw mode")
	}
}

func TestDecodeEncodeSampleRoundTrip(t *testing.T) {
	cases := []struct {
		bf vban.BitFormat
		v  int
	}{
		{vban.BitFormat8Int, -100},
		{vban.BitFormat16Int, -30000},
		{vban.BitFormat24Int, -8000000},
		{vban.BitFormat32Int, -2000000000},
	}
	for _, c := range cases {
		size := c.bf.SampleSize()
		buf := make([]byte, size)
		encodeSample(buf, c.v, c.bf)
		got := decodeSample(buf, c.bf)
		if got != c.v {
			t.Errorf("%s: round trip = %d, want %d", c.bf, got, c.v)
		}
	}
}
