package spawn

import (
	"fmt"
	"math/rand/v2"
)

// Difficulty selects which tier table a tiered spawner draws from.
type Difficulty string

const (
	DifficultyLow  Difficulty = "low"
	DifficultyMid  Difficulty = "mid"
	DifficultyHard Difficulty = "hard"
)

// TableSpiders is the named table for spider nest rooms.
const TableSpiders = "spiders"

// The built-in archetype catalogue. World definitions reference these by
// name; additional archetypes can be supplied alongside the world files.
var catalogue = map[string]*Archetype{
	"small-spider": {
		Name: "Small Spider", Attack: 10, Defense: 75, Regen: 5, Health: 50,
		GoldMin: 5, GoldMax: 25,
		Description: "A small spider, it can probably only hurt you a little. Nimble, though.",
	},
	"spider": {
		Name: "Spider", Attack: 30, Defense: 60, Regen: 10, Health: 125,
		GoldMin: 20, GoldMax: 50,
		Description: "A kind of big spider. It'd probably hurt if it bit you.",
	},
	"large-spider": {
		Name: "Large Spider", Attack: 75, Defense: 50, Regen: 25, Health: 200,
		GoldMin: 60, GoldMax: 150,
		Description: "I don't think your shoe is big enough for this.",
	},
	"big-randy": {
		Name: "Big Randy the Smackdown Spider", Attack: 200, Defense: 125, Regen: 50, Health: 750,
		GoldMin: 300, GoldMax: 500,
		Description: "Big Randy gives fools the smackdown.",
	},
	"derry": {
		Name: "Derry", Attack: 100, Defense: 100, Regen: 100, Health: 200,
		Description: "He seems to have lost his mind in a caffeine overdose.",
	},
	"creepy-uncle": {
		Name: "Creepy Uncle", Attack: 75, Defense: 10, Regen: 0, Health: 200,
		GoldMin: 100, GoldMax: 200,
		Description: "\"Come give your uncle a hug buddy\"",
	},
	"mean-butler": {
		Name: "Mean Butler", Attack: 50, Defense: 10, Regen: 5, Health: 100,
		GoldMin: 5, GoldMax: 50,
		Description: "The butler seems to very strongly believe you should be somewhere else.",
	},
	"honey-badger": {
		Name: "Honey Badger", Attack: 350, Defense: 250, Regen: 300, Health: 1000,
		GoldMin: 500, GoldMax: 1250,
		Description: "This is the honey badger.",
	},
	"derrys-homonculus": {
		Name: "Derry's Homonculus", Attack: 1000, Defense: 1000, Regen: 1000, Health: 3000,
		GoldMin: 3000, GoldMax: 5000,
		Description: "A hideous titanic deformed humanoid, with a resemblance to Derry.",
	},
	"mole-grunt": {
		Name: "Mole People Grunt", Attack: 50, Defense: 100, Regen: 20, Health: 150,
		GoldMin: 25, GoldMax: 75,
		Description: "A grunt committed to the labor of the mole people civilization.",
	},
	"mole-guard": {
		Name: "Mole People Guard", Attack: 75, Defense: 110, Regen: 30, Health: 175,
		GoldMin: 35, GoldMax: 100,
		Description: "A guard of the mole people.",
	},
	"mole-priest": {
		Name: "Mole People Priest", Attack: 150, Defense: 200, Regen: 100, Health: 250,
		GoldMin: 125, GoldMax: 200,
		Description: "A priest of the mole people, spreading the glory of The Great Abomination.",
	},
	"fat-mole": {
		Name: "Fat Mole Person", Attack: 100, Defense: 300, Regen: 100, Health: 500,
		GoldMin: 150, GoldMax: 250,
		Description: "A puss ridden mole person of great girth.",
	},
	"mole-warrior": {
		Name: "Mole People Warrior", Attack: 200, Defense: 200, Regen: 50, Health: 325,
		GoldMin: 125, GoldMax: 200,
		Description: "A warrior of the mole people.",
	},
	"mole-high-priest": {
		Name: "Mole People High Priest", Attack: 300, Defense: 500, Regen: 200, Health: 750,
		GoldMin: 400, GoldMax: 600,
		Description: "One of the great high priests of the mole people.",
	},
	"mole-goliath": {
		Name: "Mole Goliath", Attack: 500, Defense: 300, Regen: 250, Health: 1250,
		GoldMin: 500, GoldMax: 800,
		Description: "A hulking mole goliath.",
	},
	"mole-queen": {
		Name: "Mole People Queen", Attack: 50, Defense: 1000, Regen: 400, Health: 1750,
		GoldMin: 1000, GoldMax: 1200,
		Description: "A disgusting mother of the mole people. She'll be guarded until she's dead!",
	},
}

// tierTables holds the named probability tables: one per difficulty
// level, plus the spider nest mix. Weights are percentages and each
// table sums to 100.
var tierTables = map[string][]struct {
	weight    int
	archetype string
}{
	TableSpiders: {
		{50, "small-spider"},
		{20, "spider"},
		{20, "large-spider"},
		{10, "big-randy"},
	},
	string(DifficultyLow): {
		{60, "mole-grunt"},
		{40, "mole-guard"},
	},
	string(DifficultyMid): {
		{45, "mole-grunt"},
		{25, "mole-guard"},
		{10, "mole-priest"},
		{10, "fat-mole"},
		{10, "mole-warrior"},
	},
	string(DifficultyHard): {
		{30, "mole-warrior"},
		{25, "mole-priest"},
		{10, "mole-guard"},
		{10, "fat-mole"},
		{10, "mole-high-priest"},
		{10, "mole-goliath"},
		{5, "mole-queen"},
	},
}

// LookupArchetype returns a catalogue archetype by key.
func LookupArchetype(key string) (*Archetype, error) {
	a, ok := catalogue[key]
	if !ok {
		return nil, fmt.Errorf("unknown archetype %q", key)
	}
	return a, nil
}

// NewTable builds the tiered spawner for one named probability table.
func NewTable(name string, rng *rand.Rand) (*Tiered, error) {
	table, ok := tierTables[name]
	if !ok {
		return nil, fmt.Errorf("unknown spawn table %q", name)
	}

	entries := make([]TierEntry, 0, len(table))
	for _, row := range table {
		a, err := LookupArchetype(row.archetype)
		if err != nil {
			return nil, err
		}
		entries = append(entries, TierEntry{Weight: row.weight, Archetype: a})
	}
	return NewTiered(entries, rng)
}

// NewSpiderNest builds the spider population spawner: between min and
// max-1 spiders drawn from the nest table.
func NewSpiderNest(min, max int, rng *rand.Rand) (*Population, error) {
	tiered, err := NewTable(TableSpiders, rng)
	if err != nil {
		return nil, err
	}
	return NewPopulation(min, max, tiered, rng)
}
