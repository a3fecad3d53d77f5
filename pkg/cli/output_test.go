package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type textResult struct{ Name string }

func (r textResult) Text() string { return "card:" + r.Name }

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"raw", FormatRaw, false},
		{"table", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"name": "test", "value": 123}

	if err := Output(data, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("name = %v, want %q", result["name"], "test")
	}
	if !strings.Contains(buf.String(), "\n  \"name\"") {
		t.Errorf("expected default two-space indent, got: %s", buf.String())
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]any{"name": "test"}, OutputOptions{Format: FormatYAML, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: test") {
		t.Errorf("Output should contain 'name: test', got: %s", buf.String())
	}
}

func TestOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(textResult{Name: "womb"}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if buf.String() != "card:womb\n" {
		t.Errorf("text output = %q", buf.String())
	}

	// Non-Texter results fall back to YAML.
	buf.Reset()
	if err := Output(map[string]any{"k": "v"}, OutputOptions{Format: FormatText, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "k: v") {
		t.Errorf("fallback output = %q", buf.String())
	}
}

func TestOutput_Raw(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"bytes", []byte("raw bytes"), "raw bytes"},
		{"string", "raw string", "raw string"},
		{"other", map[string]int{"count": 1}, "count: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Output(tt.in, OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("raw = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestOutput_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("x", OutputOptions{Format: "xml", Writer: &buf}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestOutput_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output(map[string]string{"id": "a1"}, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"id": "a1"`) {
		t.Errorf("file content = %s", data)
	}
}

func TestPrintHelpers(t *testing.T) {
	var out, errOut bytes.Buffer
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	t.Cleanup(func() { Stdout, Stderr = oldOut, oldErr })

	PrintSuccess("wrote %s", "bed.wav")
	PrintInfo("rate %d", 48000)
	PrintError("bad %s", "thing")
	PrintWarning("careful")
	PrintVerbose(false, "hidden")
	PrintVerbose(true, "shown")

	if got := out.String(); got != "✓ wrote bed.wav\nℹ rate 48000\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "Error: bad thing\n⚠ careful\n[verbose] shown\n" {
		t.Errorf("stderr = %q", got)
	}
}
