package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/vban/vban"
)

func TestRemapIdentity(t *testing.T) {
	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 44100, BitFmt: vban.BitFormat16Int}
	src := []byte{1, 0, 2, 0, 3, 0, 4, 0} // 2 frames, 2 channels
	dst := make([]byte, len(src))

	n := Remap(src, dst, cfg, []int{0, 1})
	if n != len(src) {
		t.Fatalf("Remap identity: wrote %d bytes, want %d", n, len(src))
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("Remap identity mismatch (-src +dst):\n%s", diff)
	}
}

func TestRemapSwap(t *testing.T) {
	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 44100, BitFmt: vban.BitFormat16Int}
	// 1 frame: channel 0 = {1,0}, channel 1 = {2,0}.
	src := []byte{1, 0, 2, 0}
	dst := make([]byte, len(src))

	Remap(src, dst, cfg, []int{1, 0})

	want := []byte{2, 0, 1, 0}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("Remap swap mismatch (-want +got):\n%s", diff)
	}
}

func TestRemapOutOfRangeIsSilence(t *testing.T) {
	cfg := vban.StreamConfig{NbChannels: 1, SampleRate: 44100, BitFmt: vban.BitFormat16Int}
	src := []byte{0x12, 0x34}
	dst := make([]byte, 4)
	for i := range dst {
		dst[i] = 0xff
	}

	Remap(src, dst, cfg, []int{0, 5})

	want := []byte{0x12, 0x34, 0, 0}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("Remap out-of-range mismatch (-want +got):\n%s", diff)
	}
}

func TestRemapDownmix(t *testing.T) {
	cfg := vban.StreamConfig{NbChannels: 4, SampleRate: 44100, BitFmt: vban.BitFormat8Int}
	// 1 frame, 4 channels.
	src := []byte{1, 2, 3, 4}

	// Downmix to 2 channels, picking channels 2 and 0.
	dst := make([]byte, 2)
	n := Remap(src, dst, cfg, []int{2, 0})
	if n != 2 {
		t.Fatalf("Remap downmix: wrote %d bytes, want 2", n)
	}
	if diff := cmp.Diff([]byte{3, 1}, dst); diff != "" {
		t.Errorf("Remap downmix mismatch (-want +got):\n%s", diff)
	}
}

func TestRemapTruncatesToWholeFrames(t *testing.T) {
	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 44100, BitFmt: vban.BitFormat16Int}
	src := make([]byte, 8) // 2 frames
	dst := make([]byte, 5) // room for 2 whole 1-channel frames (2 bytes each = 4 bytes); the 5th byte is left unused

	n := Remap(src, dst, cfg, []int{0})
	if n != 4 {
		t.Fatalf("Remap truncation: wrote %d bytes, want 4", n)
	}
}
