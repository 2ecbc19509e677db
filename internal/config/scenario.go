package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Map glyphs.
const (
	Wall  = '#'
	Floor = '.'
)

// Scenario describes a grid world and who starts in it.
type Scenario struct {
	Name       string         `yaml:"name"`
	Level      string         `yaml:"level,omitempty"`
	ViewRadius int            `yaml:"view_radius"`
	Turns      int            `yaml:"turns,omitempty"`
	Map        []string       `yaml:"map"`
	Agents     []AgentSpec    `yaml:"agents"`
	Creatures  []CreatureSpec `yaml:"creatures,omitempty"`
	Items      []ItemSpec     `yaml:"items,omitempty"`
}

// AgentSpec places one controlled agent.
type AgentSpec struct {
	Name    string `yaml:"name"`
	Faction string `yaml:"faction"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	// Wants lists item names the agent seeks, most wanted first.
	Wants []string `yaml:"wants,omitempty"`
}

// CreatureSpec places a creature that never moves.
type CreatureSpec struct {
	Name    string `yaml:"name"`
	Faction string `yaml:"faction"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
}

// ItemSpec places an item on a floor tile.
type ItemSpec struct {
	Name      string `yaml:"name"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	Blocking  bool   `yaml:"blocking,omitempty"`
	Furniture bool   `yaml:"furniture,omitempty"`
}

// LoadScenario reads a scenario file. An empty path yields DefaultScenario.
func LoadScenario(path string) (Scenario, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultScenario(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc, err := ParseScenario(b)
	if err != nil {
		return sc, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(b []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return sc, err
	}
	sc.Normalize()
	return sc, sc.Validate()
}

// Normalize fills defaults.
func (s *Scenario) Normalize() {
	if s.ViewRadius <= 0 {
		s.ViewRadius = 2
	}
	if s.Turns <= 0 {
		s.Turns = 100
	}
}

// Open reports whether (x, y) is a floor tile of the map.
func (s *Scenario) Open(x, y int) bool {
	if y < 0 || y >= len(s.Map) || x < 0 || x >= len(s.Map[y]) {
		return false
	}
	return s.Map[y][x] != Wall
}

// Validate checks that the map is well formed and everything stands on floor.
func (s *Scenario) Validate() error {
	if len(s.Map) == 0 {
		return errors.New("scenario: empty map")
	}
	for y, row := range s.Map {
		for x, c := range row {
			if c != Wall && c != Floor {
				return fmt.Errorf("scenario: map (%d,%d): unknown glyph %q", x, y, c)
			}
		}
	}
	if len(s.Agents) == 0 {
		return errors.New("scenario: no agents")
	}
	seen := map[string]bool{}
	occupied := map[[2]int]string{}
	place := func(kind, name string, x, y int) error {
		if !s.Open(x, y) {
			return fmt.Errorf("scenario: %s %q at (%d,%d) is not on floor", kind, name, x, y)
		}
		if other, ok := occupied[[2]int{x, y}]; ok {
			return fmt.Errorf("scenario: %s %q at (%d,%d) overlaps %q", kind, name, x, y, other)
		}
		occupied[[2]int{x, y}] = name
		return nil
	}
	for _, a := range s.Agents {
		if a.Name == "" {
			return errors.New("scenario: agent without name")
		}
		if seen[a.Name] {
			return fmt.Errorf("scenario: duplicate agent %q", a.Name)
		}
		seen[a.Name] = true
		if err := place("agent", a.Name, a.X, a.Y); err != nil {
			return err
		}
	}
	for _, c := range s.Creatures {
		if err := place("creature", c.Name, c.X, c.Y); err != nil {
			return err
		}
	}
	for _, it := range s.Items {
		if !s.Open(it.X, it.Y) {
			return fmt.Errorf("scenario: item %q at (%d,%d) is not on floor", it.Name, it.X, it.Y)
		}
	}
	return nil
}

// DefaultScenario is a small two-room world with three scouts of one faction.
func DefaultScenario() Scenario {
	sc := Scenario{
		Name:       "two-rooms",
		ViewRadius: 2,
		Turns:      120,
		Map: []string{
			"####################",
			"#........#.........#",
			"#........#.........#",
			"#........#.........#",
			"#..................#",
			"#........#.........#",
			"#........#.........#",
			"####################",
		},
		Agents: []AgentSpec{
			{Name: "scout-a", Faction: "blue", X: 1, Y: 1, Wants: []string{"Gem", "Coin"}},
			{Name: "scout-b", Faction: "blue", X: 2, Y: 6, Wants: []string{"Gem", "Coin"}},
			{Name: "scout-c", Faction: "blue", X: 4, Y: 4, Wants: []string{"Coin"}},
		},
		Creatures: []CreatureSpec{
			{Name: "troll", Faction: "wild", X: 14, Y: 2},
		},
		Items: []ItemSpec{
			{Name: "Coin", X: 6, Y: 2},
			{Name: "Gem", X: 17, Y: 6},
			{Name: "Table", X: 12, Y: 5, Blocking: true, Furniture: true},
			{Name: "Exit", X: 18, Y: 1},
		},
	}
	sc.Normalize()
	return sc
}
