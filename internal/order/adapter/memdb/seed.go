package memdb

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var sampleMenu = []struct {
	category string
	name     string
	price    string
}{
	{"Appetizers", "Garlic Bread", "5.99"},
	{"Appetizers", "Bruschetta", "7.99"},
	{"Main Courses", "Grilled Salmon", "24.99"},
	{"Main Courses", "Pasta Carbonara", "18.99"},
	{"Desserts", "Chocolate Lava Cake", "8.99"},
	{"Desserts", "New York Cheesecake", "7.99"},
}

// SeedSample fills an empty store with a small menu and the given number
// of tables, so --store=memory is usable without a database.
func (s *Store) SeedSample(tables int) error {
	for i := 1; i <= tables; i++ {
		s.SeedTable(fmt.Sprintf("T%d", i), 4, "Main hall")
	}

	categories := map[string]int64{}
	for _, m := range sampleMenu {
		id, ok := categories[m.category]
		if !ok {
			id = s.SeedCategory(m.category).ID
			categories[m.category] = id
		}
		if _, err := s.SeedMenuItem(id, m.name, decimal.RequireFromString(m.price)); err != nil {
			return err
		}
	}

	s.mylog.Action("seed_sample").Info("Sample data loaded", "tables", tables, "menu_items", len(sampleMenu))
	return nil
}
