package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"thyknow/models"
)

// Balance centralizes every tunable number of the progression rules.
type Balance struct {
	ReflectionPoints    int64
	LevelThreshold      int64
	DefaultPetHealth    int
	DefaultPetHappiness int
	CareActions         []models.CareAction
	Accessories         []models.Accessory
}

// DefaultBalance returns the built-in values.
func DefaultBalance() Balance {
	care := make([]models.CareAction, len(models.DefaultCareActions))
	copy(care, models.DefaultCareActions)
	acc := make([]models.Accessory, len(models.DefaultAccessories))
	copy(acc, models.DefaultAccessories)
	return Balance{
		ReflectionPoints:    50,
		LevelThreshold:      100,
		DefaultPetHealth:    50,
		DefaultPetHappiness: 50,
		CareActions:         care,
		Accessories:         acc,
	}
}

// balanceFile mirrors Balance with optional fields, so a file only overrides what it sets.
type balanceFile struct {
	ReflectionPoints    *int64              `toml:"reflection_points"`
	LevelThreshold      *int64              `toml:"level_threshold"`
	DefaultPetHealth    *int                `toml:"default_pet_health"`
	DefaultPetHappiness *int                `toml:"default_pet_happiness"`
	CareActions         []models.CareAction `toml:"care_action"`
	Accessories         []models.Accessory  `toml:"accessory"`
}

// LoadBalance returns DefaultBalance overlaid with the TOML file at path. An empty path
// returns the defaults.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	var f balanceFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return b, fmt.Errorf("decode balance file %s: %w", path, err)
	}
	if f.ReflectionPoints != nil {
		b.ReflectionPoints = *f.ReflectionPoints
	}
	if f.LevelThreshold != nil {
		b.LevelThreshold = *f.LevelThreshold
	}
	if f.DefaultPetHealth != nil {
		b.DefaultPetHealth = *f.DefaultPetHealth
	}
	if f.DefaultPetHappiness != nil {
		b.DefaultPetHappiness = *f.DefaultPetHappiness
	}
	if len(f.CareActions) > 0 {
		b.CareActions = f.CareActions
	}
	if len(f.Accessories) > 0 {
		b.Accessories = f.Accessories
	}
	return b, b.Validate()
}

// Validate rejects values the engine can't work with.
func (b Balance) Validate() error {
	var errs []error
	if b.ReflectionPoints <= 0 {
		errs = append(errs, fmt.Errorf("reflection_points must be positive, got %d", b.ReflectionPoints))
	}
	if b.LevelThreshold <= 0 {
		errs = append(errs, fmt.Errorf("level_threshold must be positive, got %d", b.LevelThreshold))
	}
	if b.DefaultPetHealth < 0 || b.DefaultPetHealth > 100 {
		errs = append(errs, fmt.Errorf("default_pet_health out of range: %d", b.DefaultPetHealth))
	}
	if b.DefaultPetHappiness < 0 || b.DefaultPetHappiness > 100 {
		errs = append(errs, fmt.Errorf("default_pet_happiness out of range: %d", b.DefaultPetHappiness))
	}

	seen := make(map[string]bool)
	for _, a := range b.CareActions {
		if a.ID == "" || seen["care:"+a.ID] {
			errs = append(errs, fmt.Errorf("care action id %q empty or duplicated", a.ID))
		}
		seen["care:"+a.ID] = true
		if a.Cost < 0 || a.CooldownMinutes < 0 {
			errs = append(errs, fmt.Errorf("care action %s: negative cost or cooldown", a.ID))
		}
	}
	for _, a := range b.Accessories {
		if a.ID == "" || seen["acc:"+a.ID] {
			errs = append(errs, fmt.Errorf("accessory id %q empty or duplicated", a.ID))
		}
		seen["acc:"+a.ID] = true
		if a.Cost < 0 {
			errs = append(errs, fmt.Errorf("accessory %s: negative cost", a.ID))
		}
		if !models.ValidSlot(a.Slot) {
			errs = append(errs, fmt.Errorf("accessory %s: unknown slot %q", a.ID, a.Slot))
		}
	}
	return errors.Join(errs...)
}

// CareAction looks up a care action by id.
func (b Balance) CareAction(id string) (models.CareAction, bool) {
	for _, a := range b.CareActions {
		if a.ID == id {
			return a, true
		}
	}
	return models.CareAction{}, false
}

// Accessory looks up an accessory by id.
func (b Balance) Accessory(id string) (models.Accessory, bool) {
	for _, a := range b.Accessories {
		if a.ID == id {
			return a, true
		}
	}
	return models.Accessory{}, false
}
