package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Synergy marks a follow-up ability as usable early during this ability's
// recovery. UnlockMillis is the remaining-lockout threshold at which the
// follow-up opens.
type Synergy struct {
	Target       string `json:"target" jsonschema:"title=Follow-up ability id,pattern=^[a-z0-9\\-]+$,description=Ability unlocked early during this recovery"`
	UnlockMillis int64  `json:"unlockMillis" jsonschema:"title=Unlock threshold,minimum=0,description=Remaining recovery in milliseconds at which the follow-up becomes usable"`
}

// Ability models the JSON contract for designer-authored ability entries. It
// is shared with the schema generator so editor tooling can validate the
// file designers actually touch.
type Ability struct {
	ID             string    `json:"id" jsonschema:"title=Ability id,pattern=^[a-z0-9\\-]+$,minLength=1,description=Designer facing identifier for the ability"`
	BaseDamage     float64   `json:"baseDamage" jsonschema:"title=Base damage,minimum=0,description=Unscaled damage before attacker scaling"`
	Kind           string    `json:"kind" jsonschema:"title=Damage kind,enum=physical,enum=magic,description=Selects offensive and defensive scaling stats"`
	StaminaCost    float64   `json:"staminaCost,omitempty" jsonschema:"title=Stamina cost,minimum=0"`
	ManaCost       float64   `json:"manaCost,omitempty" jsonschema:"title=Mana cost,minimum=0"`
	RecoveryMillis int64     `json:"recoveryMillis" jsonschema:"title=Recovery,minimum=0,description=Global lockout in milliseconds triggered on use"`
	Synergies      []Synergy `json:"synergies,omitempty" jsonschema:"description=Follow-ups unlocked early during this ability's recovery"`
}

// Recovery returns the lockout as a duration.
func (a Ability) Recovery() time.Duration {
	return time.Duration(a.RecoveryMillis) * time.Millisecond
}

// FileDefinitions represents the contents of config/abilities/definitions.json.
type FileDefinitions []Ability

var idPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) { return os.ReadFile(f.path) }
func (f fileSource) Path() string          { return f.path }

// Catalog is the resolved ability table. Reload picks up on-disk changes;
// missing files fall back to the built-in defaults.
type Catalog struct {
	mu      sync.RWMutex
	sources []source
	entries map[string]Ability
}

// DefaultPaths returns the canonical catalog locations relative to the server
// module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "abilities", "definitions.json"),
		filepath.Join("..", "config", "abilities", "definitions.json"),
	}
}

// Load constructs a catalog from the given file paths. With no paths, or when
// no file exists, the built-in default table is used.
func Load(paths ...string) (*Catalog, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	c := &Catalog{sources: sources}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-parses all sources. Later sources override earlier ones so a
// local overlay can tune individual abilities during development.
func (c *Catalog) Reload() error {
	if c == nil {
		return nil
	}
	entries := defaultEntries()
	for _, src := range c.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		loaded, err := decodeAbilities(data)
		if err != nil {
			return fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err)
		}
		for _, a := range loaded {
			entries[a.ID] = a
		}
	}
	if err := validate(entries); err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Resolve returns the ability for the provided designer id.
func (c *Catalog) Resolve(id string) (Ability, bool) {
	if c == nil {
		return Ability{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[id]
	return a, ok
}

// Entries returns a snapshot of the catalog keyed by ability id.
func (c *Catalog) Entries() map[string]Ability {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Ability, len(c.entries))
	for id, a := range c.entries {
		out[id] = a
	}
	return out
}

func decodeAbilities(data []byte) ([]Ability, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var abilities []Ability
	if err := json.Unmarshal(trimmed, &abilities); err != nil {
		return nil, err
	}
	return abilities, nil
}

func validate(entries map[string]Ability) error {
	for id, a := range entries {
		if !idPattern.MatchString(id) || id != a.ID {
			return fmt.Errorf("catalog: invalid ability id %q", a.ID)
		}
		if a.Kind != "physical" && a.Kind != "magic" {
			return fmt.Errorf("catalog: ability %q has unknown kind %q", id, a.Kind)
		}
		if a.BaseDamage < 0 || a.StaminaCost < 0 || a.ManaCost < 0 || a.RecoveryMillis < 0 {
			return fmt.Errorf("catalog: ability %q has negative tunables", id)
		}
		for _, s := range a.Synergies {
			if _, ok := entries[s.Target]; !ok {
				return fmt.Errorf("catalog: ability %q synergy targets unknown ability %q", id, s.Target)
			}
			if s.UnlockMillis < 0 {
				return fmt.Errorf("catalog: ability %q synergy has negative unlock", id)
			}
			if time.Duration(s.UnlockMillis)*time.Millisecond > a.Recovery() {
				return fmt.Errorf("catalog: ability %q synergy unlock exceeds its recovery", id)
			}
		}
	}
	return nil
}

// defaultEntries is the shipped ability table. A designer file overrides
// entries by id rather than replacing the table wholesale.
func defaultEntries() map[string]Ability {
	defaults := []Ability{
		{ID: "strike", BaseDamage: 20, Kind: "physical", StaminaCost: 10},
		{ID: "lunge", BaseDamage: 15, Kind: "physical", StaminaCost: 15, RecoveryMillis: 1000,
			Synergies: []Synergy{{Target: "overpower", UnlockMillis: 500}}},
		{ID: "overpower", BaseDamage: 35, Kind: "physical", StaminaCost: 25, RecoveryMillis: 2000,
			Synergies: []Synergy{{Target: "knockback", UnlockMillis: 1000}}},
		{ID: "knockback", BaseDamage: 10, Kind: "physical", StaminaCost: 10, RecoveryMillis: 500},
		{ID: "volley", BaseDamage: 30, Kind: "magic", ManaCost: 40, RecoveryMillis: 3000},
		{ID: "counter", Kind: "physical", StaminaCost: 30, RecoveryMillis: 1000},
		{ID: "deflect", Kind: "physical", StaminaCost: 45, RecoveryMillis: 1000},
	}
	entries := make(map[string]Ability, len(defaults))
	for _, a := range defaults {
		entries[a.ID] = a
	}
	return entries
}
