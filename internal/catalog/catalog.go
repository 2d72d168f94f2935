// Package catalog holds the staff roster and vegetable list offered by the
// entry form. They are suggestions only; stored records are never checked
// against them.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Staff      []string `yaml:"staff" json:"staff"`
	Vegetables []string `yaml:"vegetables" json:"vegetables"`
}

// DefaultVegetables is used when no catalog file provides a list.
var DefaultVegetables = []string{"Tomato", "Cucumber", "Eggplant", "Green pepper", "Lettuce", "Cabbage"}

// DefaultStaffCount is the size of the generated roster "Staff 1".."Staff N".
const DefaultStaffCount = 15

// Default returns the built-in roster and vegetable list.
func Default() Catalog {
	staff := make([]string, 0, DefaultStaffCount)
	for i := 1; i <= DefaultStaffCount; i++ {
		staff = append(staff, fmt.Sprintf("Staff %d", i))
	}
	return Catalog{
		Staff:      staff,
		Vegetables: append([]string(nil), DefaultVegetables...),
	}
}

// Load reads a YAML catalog. An empty path returns Default. Lists missing
// from the file fall back to the defaults.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML of the form {staff: [...], vegetables: [...]}.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	def := Default()
	c.Staff = dedupe(c.Staff)
	c.Vegetables = dedupe(c.Vegetables)
	if len(c.Staff) == 0 {
		c.Staff = def.Staff
	}
	if len(c.Vegetables) == 0 {
		c.Vegetables = def.Vegetables
	}
	return c, nil
}

// dedupe trims entries and drops blanks and repeats, keeping first-seen order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
