//go:build linux

package iface

import "testing"

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeOptimized, "optimized"},
		{ModeAccelerated, "accelerated"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Name: "eth0"}.withDefaults()
	if cfg.SendBufBytes != defaultBufBytes {
		t.Errorf("SendBufBytes = %d, want %d", cfg.SendBufBytes, defaultBufBytes)
	}
	if cfg.RecvBufBytes != defaultBufBytes {
		t.Errorf("RecvBufBytes = %d, want %d", cfg.RecvBufBytes, defaultBufBytes)
	}
	if cfg.TXRingFrames != defaultRingFrames {
		t.Errorf("TXRingFrames = %d, want %d", cfg.TXRingFrames, defaultRingFrames)
	}

	custom := Config{Name: "eth0", SendBufBytes: 4096, RecvBufBytes: 8192, TXRingFrames: 64, RXRingFrames: 64}.withDefaults()
	if custom.SendBufBytes != 4096 || custom.RecvBufBytes != 8192 || custom.TXRingFrames != 64 {
		t.Errorf("withDefaults() overrode explicit values: %+v", custom)
	}
}

func TestProbeAccelerationRequiresExplicitRequest(t *testing.T) {
	if probeAcceleration("optimized") {
		t.Error("probeAcceleration(\"optimized\") = true, want false")
	}
	if probeAcceleration("") {
		t.Error("probeAcceleration(\"\") = true, want false")
	}
}
