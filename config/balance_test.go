package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thyknow/config"
	"thyknow/models"
)

func writeBalance(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balance.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultBalance(t *testing.T) {
	b := config.DefaultBalance()
	if b.ReflectionPoints != 50 || b.LevelThreshold != 100 {
		t.Errorf("unexpected defaults %d/%d", b.ReflectionPoints, b.LevelThreshold)
	}
	if err := b.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if _, ok := b.CareAction("feed"); !ok {
		t.Error("expected feed in the default catalog")
	}
	acc, ok := b.Accessory("explorer-hat")
	if !ok || acc.Slot != models.SlotHat || acc.Cost != 5 {
		t.Errorf("unexpected explorer-hat %+v", acc)
	}

	b.CareActions[0].Cost = 99
	if models.DefaultCareActions[0].Cost == 99 {
		t.Error("DefaultBalance must not share the package catalog")
	}
}

func TestLoadBalance_EmptyPath(t *testing.T) {
	b, err := config.LoadBalance("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.ReflectionPoints != 50 {
		t.Errorf("expected defaults, got %d", b.ReflectionPoints)
	}
}

func TestLoadBalance_Overlay(t *testing.T) {
	path := writeBalance(t, `
reflection_points = 30
level_threshold = 90

[[care_action]]
id = "feed"
name = "Feed"
health_delta = 20
cost = 2
cooldown_minutes = 30
`)
	b, err := config.LoadBalance(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.ReflectionPoints != 30 || b.LevelThreshold != 90 {
		t.Errorf("expected overrides, got %d/%d", b.ReflectionPoints, b.LevelThreshold)
	}
	if b.DefaultPetHealth != 50 {
		t.Errorf("unset field should keep default, got %d", b.DefaultPetHealth)
	}
	if len(b.CareActions) != 1 || b.CareActions[0].HealthDelta != 20 {
		t.Errorf("expected care catalog replaced, got %+v", b.CareActions)
	}
	if len(b.Accessories) != len(models.DefaultAccessories) {
		t.Errorf("expected default accessories kept, got %d", len(b.Accessories))
	}
}

func TestLoadBalance_Invalid(t *testing.T) {
	path := writeBalance(t, `
level_threshold = 0

[[accessory]]
id = "cape"
slot = "back"
cost = 3

[[accessory]]
id = "cape"
slot = "hat"
cost = -1
`)
	_, err := config.LoadBalance(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"level_threshold", "unknown slot", "duplicated", "negative cost"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLoadBalance_MissingFile(t *testing.T) {
	if _, err := config.LoadBalance(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
