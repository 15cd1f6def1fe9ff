package ui

import (
	"errors"
	"testing"
	"time"
)

func TestFlashExpiry(t *testing.T) {
	f := NewFlashModel()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	if f.Get() != nil {
		t.Error("empty model returned a message")
	}
	f.Info("Imported 4 messages")
	if m := f.Get(); m == nil || m.Text != "Imported 4 messages" || m.Level != FlashInfo {
		t.Errorf("Get = %+v", m)
	}

	now = now.Add(6 * time.Second)
	if f.Get() != nil {
		t.Error("info message outlived its ttl")
	}

	f.Err(errors.New("import failed"))
	now = now.Add(6 * time.Second)
	if m := f.Get(); m == nil || m.Level != FlashErr {
		t.Errorf("error message expired early: %+v", m)
	}
}

func TestFlashWatch(t *testing.T) {
	f := NewFlashModel()
	f.Warn("Skipped sms record")
	select {
	case m := <-f.Watch():
		if m.Level != FlashWarn || m.Text != "Skipped sms record" {
			t.Errorf("watched %+v", m)
		}
	default:
		t.Fatal("no message on watch channel")
	}
}
