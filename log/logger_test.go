package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_BindsInstanceContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(InstanceContext{HostID: "host-1", PublicKey: "Mxxxxx", InstanceID: "inst-1"}).WithOutput(&buf)

	l.Info("actor started", map[string]any{"image_ref": "oci://example/actor:latest"})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}

	if entry["host_id"] != "host-1" {
		t.Errorf("expected host_id host-1, got %v", entry["host_id"])
	}
	if entry["public_key"] != "Mxxxxx" {
		t.Errorf("expected public_key Mxxxxx, got %v", entry["public_key"])
	}
	if entry["instance_id"] != "inst-1" {
		t.Errorf("expected instance_id inst-1, got %v", entry["instance_id"])
	}
	if entry["message"] != "actor started" {
		t.Errorf("expected message 'actor started', got %v", entry["message"])
	}
}

func TestNewLogger_OmitsEmptyInstanceID(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(InstanceContext{HostID: "host-1", PublicKey: "Mxxxxx"}).WithOutput(&buf)

	l.Debug("starting", nil)

	if strings.Contains(buf.String(), "instance_id") {
		t.Errorf("expected no instance_id field before instance_id is known, got %s", buf.String())
	}
}

func TestSugar_Infof(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(InstanceContext{HostID: "host-1", PublicKey: "Mxxxxx"}).WithOutput(&buf)

	l.Sugar().Infof("invocation %s succeeded", "inv-001")

	if !strings.Contains(buf.String(), "invocation inv-001 succeeded") {
		t.Errorf("expected formatted message in output, got %s", buf.String())
	}
}
