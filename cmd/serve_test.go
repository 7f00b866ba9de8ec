package cmd

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStd redirects os.Stdout and os.Stderr while fn runs
func captureStd(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	fn()
	_ = outW.Close()
	_ = errW.Close()

	outData, _ := io.ReadAll(outR)
	errData, _ := io.ReadAll(errR)
	return string(outData), string(errData)
}

func TestAnnounce(t *testing.T) {
	tests := []struct {
		name        string
		mock        bool
		wantWarning bool
	}{
		{name: "remote gateway", mock: false, wantWarning: false},
		{name: "mock gateway", mock: true, wantWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr := captureStd(t, func() { announce("127.0.0.1:9999", tt.mock) })

			if !strings.Contains(stdout, "Session API at http://127.0.0.1:9999/api/v1") {
				t.Errorf("stdout = %q, want the API address", stdout)
			}
			if got := strings.Contains(stderr, "offline echo gateway"); got != tt.wantWarning {
				t.Errorf("stderr = %q, want warning %v", stderr, tt.wantWarning)
			}
		})
	}
}

func TestServeCommand_Flags(t *testing.T) {
	if serveCmd.Flags().Lookup("listen") == nil {
		t.Error("serve should have a --listen flag")
	}
}
