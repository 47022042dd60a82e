package socket

import "testing"

func TestIsBroadcastAddress(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.255", true},
		{"10.0.0.255", true},
		{"192.168.1.1", false},
		{"255", false},
		{"", false},
		{"1.2.3.2550", false},
	}
	for _, c := range cases {
		if got := isBroadcastAddress(c.ip); got != c.want {
			t.Errorf("isBroadcastAddress(%q) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	l := nopLogger{}
	if _, err := New(Config{IPAddress: "", Port: 6980}, l); err == nil {
		t.Error("New with empty ip: want error, got nil")
	}
	if _, err := New(Config{IPAddress: "127.0.0.1", Port: 0}, l); err == nil {
		t.Error("New with port 0: want error, got nil")
	}
	if _, err := New(Config{IPAddress: "127.0.0.1", Port: 70000}, l); err == nil {
		t.Error("New with port 70000: want error, got nil")
	}
}

func TestInOutRoundTrip(t *testing.T) {
	l := nopLogger{}
	in, err := New(Config{Direction: In, IPAddress: "127.0.0.1", Port: 16980}, l)
	if err != nil {
		t.Fatalf("New(In): %v", err)
	}
	defer in.Close()

	out, err := New(Config{Direction: Out, IPAddress: "127.0.0.1", Port: 16980}, l)
	if err != nil {
		t.Fatalf("New(Out): %v", err)
	}
	defer out.Close()

	msg := []byte("hello vban")
	if _, err := out.Write(msg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := in.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != string(msg) {
		t.Errorf("Read = %q, want %q", buf[:n], msg)
	}
}

// nopLogger is a minimal logging.Logger for tests that don't exercise log
// output.
type nopLogger struct{}

func (nopLogger) SetLevel(l int8)                                 {}
func (nopLogger) Log(lvl int8, msg string, params ...interface{}) {}
func (nopLogger) Debug(msg string, params ...interface{})         {}
func (nopLogger) Info(msg string, params ...interface{})          {}
func (nopLogger) Warning(msg string, params ...interface{})       {}
func (nopLogger) Error(msg string, params ...interface{})         {}
func (nopLogger) Fatal(msg string, params ...interface{})         {}
