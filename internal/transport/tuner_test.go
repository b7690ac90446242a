package transport

import (
	"testing"
	"time"
)

func TestBDPAndWindows(t *testing.T) {
	o := Options{
		RxBytesPerSec: 10_000_000,
		TxBytesPerSec: 5_000_000,
		RTT:           100 * time.Millisecond,
	}
	if got, want := o.BDPRx(), uint64(1_000_000); got != want {
		t.Errorf("BDPRx = %d, want %d", got, want)
	}
	if got, want := o.BDPTx(), uint64(500_000); got != want {
		t.Errorf("BDPTx = %d, want %d", got, want)
	}
	if got, want := o.RecvWindow(), o.BDPRx(); got != want {
		t.Errorf("RecvWindow = %d, want %d", got, want)
	}
	if got, want := o.SendWindow(), 2*o.BDPTx(); got != want {
		t.Errorf("SendWindow = %d, want %d", got, want)
	}
}

func TestBufferFloorsAtMinimum(t *testing.T) {
	o := Options{RxBytesPerSec: 1, TxBytesPerSec: 1, RTT: time.Millisecond}
	if got := o.SendBuffer(); got != MinUDPBuffer {
		t.Errorf("SendBuffer = %d, want the %d floor for a tiny BDP", got, MinUDPBuffer)
	}
	if got := o.RecvBuffer(); got != MinUDPBuffer {
		t.Errorf("RecvBuffer = %d, want the %d floor for a tiny BDP", got, MinUDPBuffer)
	}
}

func TestBufferExceedsMinimumForFatPipe(t *testing.T) {
	o := Options{RxBytesPerSec: 10_000_000_000, TxBytesPerSec: 10_000_000_000, RTT: time.Second}
	if got := o.SendBuffer(); got <= MinUDPBuffer {
		t.Errorf("SendBuffer = %d, want it to exceed the %d floor for a long fat pipe", got, MinUDPBuffer)
	}
}

func TestQUICConfigRespectsMode(t *testing.T) {
	o := Options{RxBytesPerSec: 1_000_000, TxBytesPerSec: 1_000_000, RTT: 50 * time.Millisecond, Mode: ModeTx}
	cfg := o.QUICConfig()
	if cfg.InitialStreamReceiveWindow != 0 {
		t.Errorf("ModeTx should not size receive windows, got %d", cfg.InitialStreamReceiveWindow)
	}

	o.Mode = ModeRx
	cfg = o.QUICConfig()
	if cfg.InitialStreamReceiveWindow == 0 {
		t.Error("ModeRx should size the receive window")
	}
	if !cfg.Allow0RTT {
		t.Error("QUICConfig should always allow 0-RTT")
	}
}

func TestParseCongestionController(t *testing.T) {
	cases := []struct {
		in      string
		want    CongestionController
		wantErr bool
	}{
		{in: "", want: Cubic},
		{in: "cubic", want: Cubic},
		{in: "CUBIC", want: Cubic},
		{in: "bbr", want: Bbr},
		{in: "Bbr", want: Bbr},
		{in: "reno", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseCongestionController(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCongestionController(%q) = %v, nil; want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCongestionController(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCongestionController(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCongestionControllerString(t *testing.T) {
	if Cubic.String() != "cubic" {
		t.Errorf("Cubic.String() = %q, want cubic", Cubic.String())
	}
	if Bbr.String() != "bbr" {
		t.Errorf("Bbr.String() = %q, want bbr", Bbr.String())
	}
}
