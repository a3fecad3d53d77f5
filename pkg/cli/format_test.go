package cli

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.0s"},
		{1500 * time.Millisecond, "1.5s"},
		{59 * time.Second, "59.0s"},
		{time.Minute, "1m0.0s"},
		{90 * time.Second, "1m30.0s"},
		{125500 * time.Millisecond, "2m5.5s"},
		{time.Hour, "1h00m"},
		{8*time.Hour + 5*time.Minute, "8h05m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{-1, "unknown"},
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatDB(t *testing.T) {
	tests := []struct {
		db   float64
		want string
	}{
		{-1.0122, "-1.0 dBFS"},
		{0, "0.0 dBFS"},
		{-120, "-120.0 dBFS"},
		{math.Inf(-1), "-inf dBFS"},
	}
	for _, tt := range tests {
		if got := FormatDB(tt.db); got != tt.want {
			t.Errorf("FormatDB(%v) = %q, want %q", tt.db, got, tt.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		hz   int
		want string
	}{
		{48000, "48 kHz"},
		{16000, "16 kHz"},
		{44100, "44.1 kHz"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.hz); got != tt.want {
			t.Errorf("FormatRate(%d) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}
