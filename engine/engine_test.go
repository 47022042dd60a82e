package engine

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ausocean/vban/audio"
	"github.com/ausocean/vban/vban"
)

type nopLogger struct{}

func (nopLogger) SetLevel(l int8)                                 {}
func (nopLogger) Log(lvl int8, msg string, params ...interface{}) {}
func (nopLogger) Debug(msg string, params ...interface{})         {}
func (nopLogger) Info(msg string, params ...interface{})          {}
func (nopLogger) Warning(msg string, params ...interface{})       {}
func (nopLogger) Error(msg string, params ...interface{})         {}
func (nopLogger) Fatal(msg string, params ...interface{})         {}

// fakeBackend records Open/Close/Write/Read calls for engine tests.
type fakeBackend struct {
	opens       int
	closes      int
	lastDevice  string
	lastDir     audio.Direction
	lastCfg     vban.StreamConfig
	openErr     error
	writes      [][]byte
	readData    []byte
}

func (f *fakeBackend) Open(device string, direction audio.Direction, hint int, cfg vban.StreamConfig) error {
	f.opens++
	f.lastDevice, f.lastDir, f.lastCfg = device, direction, cfg
	return f.openErr
}
func (f *fakeBackend) Close() error { f.closes++; return nil }
func (f *fakeBackend) Write(buf []byte) (int, error) {
	cp := append([]byte(nil), buf...)
	f.writes = append(f.writes, cp)
	return len(buf), nil
}
func (f *fakeBackend) Read(buf []byte) (int, error) {
	n := copy(buf, f.readData)
	return n, nil
}

func TestSetStreamConfigOpensOnce(t *testing.T) {
	b := &fakeBackend{}
	e := New(Config{Direction: audio.Out, Backend: b, Device: "dev"}, nopLogger{})

	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 48000, BitFmt: vban.BitFormat16Int}
	if err := e.SetStreamConfig(cfg); err != nil {
		t.Fatalf("SetStreamConfig: %v", err)
	}
	if err := e.SetStreamConfig(cfg); err != nil {
		t.Fatalf("SetStreamConfig (repeat): %v", err)
	}
	if b.opens != 1 {
		t.Errorf("opens = %d, want 1 (unchanged config must not reopen)", b.opens)
	}

	cfg2 := cfg
	cfg2.SampleRate = 44100
	if err := e.SetStreamConfig(cfg2); err != nil {
		t.Fatalf("SetStreamConfig (changed): %v", err)
	}
	if b.opens != 2 {
		t.Errorf("opens = %d, want 2 after config change", b.opens)
	}
	if b.closes != 2 {
		t.Errorf("closes = %d, want 2 (one before each open)", b.closes)
	}
}

func TestSetStreamConfigOpenFailureClearsCache(t *testing.T) {
	b := &fakeBackend{openErr: errors.New("no device")}
	e := New(Config{Direction: audio.Out, Backend: b, Device: "dev"}, nopLogger{})

	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 48000, BitFmt: vban.BitFormat16Int}
	if err := e.SetStreamConfig(cfg); err == nil {
		t.Fatal("SetStreamConfig: want error, got nil")
	}
	if _, ok := e.StreamConfig(); ok {
		t.Error("StreamConfig: want not-ok after failed open")
	}

	b.openErr = nil
	if err := e.SetStreamConfig(cfg); err != nil {
		t.Fatalf("SetStreamConfig (retry): %v", err)
	}
	if got, ok := e.StreamConfig(); !ok || got != cfg {
		t.Errorf("StreamConfig = %v, %v; want %v, true", got, ok, cfg)
	}
}

func TestDeviceConfigMapOverridesOnlyOnOut(t *testing.T) {
	bOut := &fakeBackend{}
	eOut := New(Config{Direction: audio.Out, Backend: bOut}, nopLogger{})
	eOut.SetMapConfig([]int{0, 1, 2})
	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 48000, BitFmt: vban.BitFormat16Int}
	if err := eOut.SetStreamConfig(cfg); err != nil {
		t.Fatalf("SetStreamConfig: %v", err)
	}
	if bOut.lastCfg.NbChannels != 3 {
		t.Errorf("Out backend opened with %d channels, want 3 (map length)", bOut.lastCfg.NbChannels)
	}

	bIn := &fakeBackend{}
	eIn := New(Config{Direction: audio.In, Backend: bIn}, nopLogger{})
	eIn.SetMapConfig([]int{0, 1, 2})
	if err := eIn.SetStreamConfig(cfg); err != nil {
		t.Fatalf("SetStreamConfig: %v", err)
	}
	if bIn.lastCfg.NbChannels != cfg.NbChannels {
		t.Errorf("In backend opened with %d channels, want %d (device's own, unmapped)", bIn.lastCfg.NbChannels, cfg.NbChannels)
	}
	if got, _ := eIn.StreamConfig(); got.NbChannels != 3 {
		t.Errorf("In wire-facing StreamConfig = %d channels, want 3 (map length)", got.NbChannels)
	}
}

func TestWriteBeforeConfigFails(t *testing.T) {
	e := New(Config{Direction: audio.Out, Backend: &fakeBackend{}}, nopLogger{})
	if _, err := e.Write([]byte{1, 2, 3, 4}); err == nil {
		t.Error("Write before SetStreamConfig: want error, got nil")
	}
}

func TestWriteRemapsWhenMapConfigured(t *testing.T) {
	b := &fakeBackend{}
	e := New(Config{Direction: audio.Out, Backend: b}, nopLogger{})
	cfg := vban.StreamConfig{NbChannels: 2, SampleRate: 48000, BitFmt: vban.BitFormat16Int}
	e.SetMapConfig([]int{1, 0})
	if err := e.SetStreamConfig(cfg); err != nil {
		t.Fatalf("SetStreamConfig: %v", err)
	}

	// 1 frame, 2 channels: {1,0} then {2,0}.
	in := []byte{1, 0, 2, 0}
	if _, err := e.Write(in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(b.writes) != 1 {
		t.Fatalf("backend received %d writes, want 1", len(b.writes))
	}
	want := []byte{2, 0, 1, 0}
	if !bytes.Equal(b.writes[0], want) {
		t.Errorf("Write remap = % x, want % x", b.writes[0], want)
	}
}
