package filter

import "fmt"

// aliasManager hands out table aliases for one compilation, keyed by scope
// path, so that every relation occurrence gets its own alias.
type aliasManager struct {
	aliases map[string]string // scope -> alias mapping
	used    map[string]bool
	counter int
}

func newAliasManager() *aliasManager {
	return &aliasManager{
		aliases: make(map[string]string),
		used:    make(map[string]bool),
	}
}

// reserve binds a caller supplied alias to a scope.
func (m *aliasManager) reserve(scope, alias string) {
	m.aliases[scope] = alias
	m.used[alias] = true
}

// alias returns the alias of a scope, creating one if it doesn't exist.
func (m *aliasManager) alias(scope string) string {
	if alias, exists := m.aliases[scope]; exists {
		return alias
	}

	var alias string
	for {
		m.counter++
		alias = "t" + fmt.Sprint(m.counter)
		if !m.used[alias] {
			break
		}
	}
	m.reserve(scope, alias)
	return alias
}
