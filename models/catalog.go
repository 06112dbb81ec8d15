package models

// CareAction is a pet-care activity: a fixed stat delta bought with points, limited by a cooldown.
type CareAction struct {
	ID              string `toml:"id" json:"id"`
	Name            string `toml:"name" json:"name"`
	Icon            string `toml:"icon" json:"icon"`
	HealthDelta     int    `toml:"health_delta" json:"health_delta"`
	HappinessDelta  int    `toml:"happiness_delta" json:"happiness_delta"`
	Cost            int64  `toml:"cost" json:"cost"`
	CooldownMinutes int    `toml:"cooldown_minutes" json:"cooldown_minutes"`
}

// Accessory is a cosmetic item for the pet, equippable into exactly one slot type.
type Accessory struct {
	ID          string `toml:"id" json:"id"`
	Name        string `toml:"name" json:"name"`
	Emoji       string `toml:"emoji" json:"emoji"`
	Slot        string `toml:"slot" json:"slot"`
	Cost        int64  `toml:"cost" json:"cost"`
	Description string `toml:"description" json:"description"`
}

// DefaultCareActions is the built-in care catalog.
var DefaultCareActions = []CareAction{
	{ID: "feed", Name: "Feed", Icon: "🍖", HealthDelta: 10, Cost: 1, CooldownMinutes: 60},
	{ID: "play", Name: "Play", Icon: "🎮", HappinessDelta: 15, Cost: 1, CooldownMinutes: 60},
	{ID: "clean", Name: "Clean", Icon: "✨", HealthDelta: 5, HappinessDelta: 5, Cost: 1, CooldownMinutes: 60},
	{ID: "meditate", Name: "Mindful Meditation", Icon: "🧘", HappinessDelta: 10, Cost: 1, CooldownMinutes: 60},
	{ID: "rest", Name: "Mindful Rest", Icon: "😌", HealthDelta: 15, Cost: 1, CooldownMinutes: 60},
}

// DefaultAccessories is the built-in shop.
var DefaultAccessories = []Accessory{
	{ID: "explorer-hat", Name: "Explorer Hat", Emoji: "🎩", Slot: SlotHat, Cost: 5, Description: "Perfect for prehistoric adventures!"},
	{ID: "safari-hat", Name: "Safari Hat", Emoji: "👒", Slot: SlotHat, Cost: 8, Description: "Protection from the Jurassic sun"},
	{ID: "leaf-necklace", Name: "Leaf Necklace", Emoji: "🍃", Slot: SlotNecklace, Cost: 6, Description: "Made from ancient fern leaves"},
	{ID: "flower-crown", Name: "Flower Crown", Emoji: "🌸", Slot: SlotNecklace, Cost: 10, Description: "Beautiful prehistoric blooms"},
	{ID: "prehistoric-glasses", Name: "Dino Shades", Emoji: "🕶️", Slot: SlotGlasses, Cost: 7, Description: "Cool shades for a cool dino"},
	{ID: "bone-glasses", Name: "Bone Specs", Emoji: "👓", Slot: SlotGlasses, Cost: 9, Description: "For the intellectual dinosaur"},
}

// ValidSlot reports whether slot is one of Slots.
func ValidSlot(slot string) bool {
	for _, s := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}
