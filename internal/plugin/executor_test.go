package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes an executable shell script and returns a Plugin for it.
func scriptPlugin(t *testing.T, name, body string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    actions,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, "ok", `cat <<'EOF'
{"success":true,"message":"playing"}
EOF
`, "play")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Action: "play"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Message != "playing" {
		t.Errorf("response = %+v", resp)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// Echo the raw request back as the message.
	p := scriptPlugin(t, "echo", `INPUT=$(cat | sed 's/"/\\"/g')
echo "{\"success\":true,\"message\":\"$INPUT\"}"
`, "search-play")

	req := &Request{
		Action:  "search-play",
		Command: "Find",
		Params:  map[string]string{"query": "One More Time"},
	}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	for _, want := range []string{`"action":"search-play"`, `"command":"Find"`, `"query":"One More Time"`} {
		if !strings.Contains(resp.Message, want) {
			t.Errorf("plugin received %s, missing %s", resp.Message, want)
		}
	}
}

func TestExecutor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		wantErr string
	}{
		{
			name:    "timeout",
			body:    "sleep 10\necho '{\"success\":true}'\n",
			timeout: 100 * time.Millisecond,
			wantErr: "timeout",
		},
		{
			name:    "invalid json",
			body:    "echo 'not valid json'\n",
			wantErr: "failed to parse plugin response",
		},
		{
			name:    "non-zero exit",
			body:    "echo 'playerctl: no players found' >&2\nexit 1\n",
			wantErr: "no players found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "p", tt.body, "next")
			_, err := NewExecutor(tt.timeout).Execute(context.Background(), p, &Request{Action: "next"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	p := scriptPlugin(t, "err", `echo '{"success":false,"error":"something went wrong"}'
`)

	resp, err := NewExecutor(0).Execute(context.Background(), p, &Request{Action: "like"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success || resp.Error != "something went wrong" {
		t.Errorf("response = %+v", resp)
	}
}

func TestExecutor_UnsupportedAction(t *testing.T) {
	p := scriptPlugin(t, "limited", "exit 0\n", "play", "pause")

	_, err := NewExecutor(0).Execute(context.Background(), p, &Request{Action: "like"})
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("Execute() error = %v, want ErrUnsupportedAction", err)
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", got, DefaultTimeout)
	}
}
