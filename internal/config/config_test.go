package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMappingArg(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    NetworkMapping
		wantErr bool
	}{
		{"simple", "eth0:1000", NetworkMapping{Interface: "eth0", Table: 1000}, false},
		{"quoted name", `"eth0":1000`, NetworkMapping{Interface: "eth0", Table: 1000}, false},
		{"rightmost colon wins", "vlan:100:2000", NetworkMapping{Interface: "vlan:100", Table: 2000}, false},
		{"missing colon", "eth0", NetworkMapping{}, true},
		{"empty name", ":1000", NetworkMapping{}, true},
		{"non-decimal table", "eth0:abc", NetworkMapping{}, true},
		{"empty input", "", NetworkMapping{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMappingArg(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMappingArg(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseMappingArg(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dynmhs.conf")
	content := "" +
		"# comment line\n" +
		"\n" +
		`NETWORK="eth0:1000"` + "\n" +
		"NETWORK1=eth1:1001\n" +
		"NETWORK2 = eth2:1002\n" +
		"UNRELATED_KEY=ignored\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}

	want := []NetworkMapping{
		{Interface: "eth0", Table: 1000},
		{Interface: "eth1", Table: 1001},
		{Interface: "eth2", Table: 1002},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d mappings, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mapping[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	if _, err := LoadConfigFile("/nonexistent/dynmhs.conf"); err == nil {
		t.Error("expected error for missing config file")
	}
}
