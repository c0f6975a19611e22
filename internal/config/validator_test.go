package config

import "testing"

func TestNewMapping_Success(t *testing.T) {
	m, err := NewMapping([]NetworkMapping{
		{Interface: "eth0", Table: 1000},
		{Interface: "eth1", Table: 1001},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	table, ok := m.TableFor("eth0")
	if !ok || table != 1000 {
		t.Errorf("TableFor(eth0) = (%d, %v), want (1000, true)", table, ok)
	}
	if !m.IsCustomTable(1001) {
		t.Error("IsCustomTable(1001) = false, want true")
	}
	if m.IsManaged("eth2") {
		t.Error("IsManaged(eth2) = true, want false")
	}
}

func TestNewMapping_DuplicateInterface(t *testing.T) {
	_, err := NewMapping([]NetworkMapping{
		{Interface: "eth0", Table: 1000},
		{Interface: "eth0", Table: 1001},
	})
	if err == nil {
		t.Fatal("expected error for duplicate interface")
	}
}

func TestNewMapping_DuplicateTable(t *testing.T) {
	_, err := NewMapping([]NetworkMapping{
		{Interface: "eth0", Table: 1000},
		{Interface: "eth1", Table: 1000},
	})
	if err == nil {
		t.Fatal("expected error for duplicate table")
	}
}

func TestNewMapping_TableOutOfRange(t *testing.T) {
	tests := []NetworkMapping{
		{Interface: "eth0", Table: 999},
		{Interface: "eth0", Table: 30000},
		{Interface: "eth0", Table: 254},
	}
	for _, tt := range tests {
		if _, err := NewMapping([]NetworkMapping{tt}); err == nil {
			t.Errorf("NewMapping(%+v) expected error, got none", tt)
		}
	}
}

func TestNewMapping_EmptyInterfaceName(t *testing.T) {
	if _, err := NewMapping([]NetworkMapping{{Interface: "", Table: 1000}}); err == nil {
		t.Fatal("expected error for empty interface name")
	}
}
