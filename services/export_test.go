package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"thyknow/services"
)

type memoryObjects struct {
	key         string
	body        []byte
	disposition string
	err         error
}

func (m *memoryObjects) PutObject(_ context.Context, key string, body []byte, _ string, disposition string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.key, m.body, m.disposition = key, body, disposition
	return "https://cdn.example.com/" + key, nil
}

func TestExportKey(t *testing.T) {
	at := time.Date(2024, 3, 6, 23, 0, 0, 0, time.UTC)
	got := services.ExportKey("u1", "Ada Lovelace", at, "0123456789abcdef")
	if want := "exports/u1/ada-lovelace-20240306-01234567.json"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := services.ExportKey("u1", "", at, "abc"); got != "exports/u1/journal-20240306-abc.json" {
		t.Errorf("unexpected fallback key %s", got)
	}
}

func TestExport_Disabled(t *testing.T) {
	svc, history := newService(t)
	exp := services.NewExportService(svc.Profiles, history, nil)
	if _, err := exp.Export(context.Background(), "u1", week10); !errors.Is(err, services.ErrExportDisabled) {
		t.Errorf("expected ErrExportDisabled, got %v", err)
	}
}

func TestExport_UploadsJournal(t *testing.T) {
	ctx := context.Background()
	svc, history := newService(t)
	_, _ = svc.SubmitReflection(ctx, "u1", answer("one"), week10)
	_, _ = svc.SubmitReflection(ctx, "u1", answer("two"), week11)

	objects := &memoryObjects{}
	exp := services.NewExportService(svc.Profiles, history, objects)
	res, err := exp.Export(ctx, "u1", week11)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Entries != 2 || !strings.HasPrefix(res.Key, "exports/u1/ada-") || res.URL != "https://cdn.example.com/"+res.Key {
		t.Errorf("unexpected result %+v", res)
	}
	if objects.disposition != `attachment; filename="ada-journal.json"` {
		t.Errorf("unexpected disposition %s", objects.disposition)
	}

	var doc struct {
		UserID  string            `json:"user_id"`
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(objects.body, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.UserID != "u1" || len(doc.Entries) != 2 {
		t.Errorf("unexpected export document user=%s entries=%d", doc.UserID, len(doc.Entries))
	}
}

func TestExport_UploadError(t *testing.T) {
	svc, history := newService(t)
	boom := errors.New("bucket gone")
	exp := services.NewExportService(svc.Profiles, history, &memoryObjects{err: boom})
	if _, err := exp.Export(context.Background(), "u1", week10); !errors.Is(err, boom) {
		t.Errorf("expected upload error, got %v", err)
	}
}
