package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

// Bundle groups every data table the simulation reads at load time.
type Bundle struct {
	Battle BattleConfig
	Units  UnitsConfig
	Arena  ArenaConfig
	Match  MatchConfig
}

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadAll reads battle.yaml, units.yaml, arena.yaml and match.yaml from dir.
// Missing fields keep the values from Default().
func LoadAll(dir string) (*Bundle, error) {
	b := Default()
	files := []struct {
		name string
		out  any
	}{
		{"battle.yaml", &b.Battle},
		{"units.yaml", &b.Units},
		{"arena.yaml", &b.Arena},
		{"match.yaml", &b.Match},
	}
	for _, f := range files {
		if err := loadYAML(filepath.Join(dir, f.name), f.out); err != nil {
			return nil, err
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Default returns the built-in arena: three lanes, a tower per lane per team
// and one throne per team.
func Default() *Bundle {
	return &Bundle{
		Battle: DefaultBattle(),
		Units:  DefaultUnits(),
		Arena:  DefaultArena(),
		Match:  DefaultMatch(),
	}
}

func (b *Bundle) Validate() error {
	if err := b.Battle.Validate(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, u := range b.Units.Units {
		if u.ID == "" {
			return fmt.Errorf("%w: unit with empty id", ErrInvalid)
		}
		if seen[u.ID] {
			return fmt.Errorf("%w: duplicate unit id %q", ErrInvalid, u.ID)
		}
		seen[u.ID] = true
		if u.MaxHP <= 0 {
			return fmt.Errorf("%w: unit %q max_hp must be positive", ErrInvalid, u.ID)
		}
	}
	if err := b.Arena.Validate(); err != nil {
		return err
	}
	if b.Match.Rounds <= 0 {
		return fmt.Errorf("%w: match rounds must be positive", ErrInvalid)
	}
	return nil
}
