// Package config loads and validates the interface→custom-table mapping the
// reconciliation engine mirrors routes and rules against.
//
// The mapping is the only configuration surface the core consumes (§3, §6 of
// the specification): a set of `interface:table` pairs, sourced from repeated
// `--network` flags and/or `NETWORK`/`NETWORK1`..`NETWORK5` keys in a config
// file. It is loaded once at startup and is immutable for the life of the
// process.
package config

import "fmt"

// RTTableMain is the kernel's main routing table id. The mapping's table ids
// must never collide with it.
const RTTableMain = 254

// MinCustomTable and MaxCustomTable bound the half-open range custom table
// ids must fall in: [MinCustomTable, MaxCustomTable).
const (
	MinCustomTable = 1000
	MaxCustomTable = 30000
)

// NetworkMapping binds one managed interface to the custom routing table that
// mirrors main-table routes sourced from that interface.
type NetworkMapping struct {
	// Interface is the managed interface's short name (e.g. "eth0").
	Interface string `validate:"required,max=15"`
	// Table is the custom routing table id, constrained to
	// [MinCustomTable, MaxCustomTable).
	Table uint32 `validate:"required,gte=1000,lt=30000"`
}

func (m NetworkMapping) String() string {
	return fmt.Sprintf("%s:%d", m.Interface, m.Table)
}

// Mapping is the immutable, validated interface→table configuration loaded
// once at startup.
type Mapping struct {
	entries []NetworkMapping
	byName  map[string]uint32
	tables  map[uint32]struct{}
}

// Entries returns the mapping's entries in load order.
func (m *Mapping) Entries() []NetworkMapping {
	return m.entries
}

// TableFor returns the custom table assigned to ifaceName and whether the
// interface is managed at all.
func (m *Mapping) TableFor(ifaceName string) (uint32, bool) {
	table, ok := m.byName[ifaceName]
	return table, ok
}

// IsManaged reports whether ifaceName is a key in the mapping.
func (m *Mapping) IsManaged(ifaceName string) bool {
	_, ok := m.byName[ifaceName]
	return ok
}

// IsCustomTable reports whether table is one of the mapping's assigned
// custom tables (the value-set referenced by §3's invariants and §4.6's
// Reset-mode policy).
func (m *Mapping) IsCustomTable(table uint32) bool {
	_, ok := m.tables[table]
	return ok
}

// Len returns the number of managed interfaces.
func (m *Mapping) Len() int {
	return len(m.entries)
}
