package security

import (
	"io"
	"strings"
	"testing"
)

func TestLimitedReader(t *testing.T) {
	r := NewLimitedReader(strings.NewReader("0123456789"), 4)
	buf := make([]byte, 10)

	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("first Read() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("first Read() = %d bytes, want 4", n)
	}

	if _, err := r.Read(buf); err == nil {
		t.Fatal("second Read() should fail once the limit is reached")
	}
}

func TestLimitedReaderUnderLimit(t *testing.T) {
	data, err := io.ReadAll(NewLimitedReader(strings.NewReader("abc"), 10))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("ReadAll() = %q, want %q", data, "abc")
	}
}

func TestValidatePanelOrigin(t *testing.T) {
	tests := []struct {
		origin  string
		wantErr bool
	}{
		{origin: "", wantErr: false},
		{origin: "null", wantErr: false},
		{origin: "http://localhost:5173", wantErr: false},
		{origin: "http://127.0.0.1:8080", wantErr: false},
		{origin: "http://[::1]:8080", wantErr: false},
		{origin: "https://panel.localhost", wantErr: false},
		{origin: "file://", wantErr: false},
		{origin: "https://evil.example.com", wantErr: true},
		{origin: "http://192.168.1.10", wantErr: true},
		{origin: "ftp://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			err := ValidatePanelOrigin(tt.origin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePanelOrigin(%q) error = %v, wantErr %v", tt.origin, err, tt.wantErr)
			}
		})
	}
}
