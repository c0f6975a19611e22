package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/simula/dynmhs/internal/rtlog"
)

// networkKeyPrefix matches the bare "NETWORK" key and the numbered
// "NETWORK1".."NETWORK5" variants a config file may use, mirroring the
// repeated-flag shape of the CLI surface (§6).
const networkKeyPrefix = "NETWORK"

// maxNumberedNetworkKeys bounds the NETWORK1..NETWORKn keys a config file may
// declare, matching the spec's documented NETWORK1..NETWORK5 surface.
const maxNumberedNetworkKeys = 5

// ParseMappingArg parses one "interface:table" pair as it appears on the
// command line or in a config file value. The split point is the rightmost
// colon (so interface names are never mistaken for part of the table id),
// and the interface name has any surrounding double quotes stripped.
func ParseMappingArg(raw string) (NetworkMapping, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NetworkMapping{}, fmt.Errorf("empty network mapping")
	}

	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return NetworkMapping{}, fmt.Errorf("invalid network mapping %q: expected \"iface:table\"", raw)
	}

	name := strings.Trim(raw[:idx], `"`)
	tableStr := raw[idx+1:]

	if name == "" {
		return NetworkMapping{}, fmt.Errorf("invalid network mapping %q: empty interface name", raw)
	}

	table, err := strconv.ParseUint(tableStr, 10, 32)
	if err != nil {
		return NetworkMapping{}, fmt.Errorf("invalid network mapping %q: table id must be decimal: %w", raw, err)
	}

	return NetworkMapping{Interface: name, Table: uint32(table)}, nil
}

// LoadConfigFile reads "NETWORK"/"NETWORK1".."NETWORK5" key/value pairs from
// a config file. Empty lines and lines starting with "#" are ignored.
// Lines not matching a recognised key are ignored (forward compatibility
// with unrelated settings sharing the same file).
func LoadConfigFile(path string) ([]NetworkMapping, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			rtlog.Warnf("Failed to close config file %s: %v", abs, cerr)
		}
	}()

	mappings, err := parseConfigLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", abs, err)
	}

	rtlog.Debugf("Loaded %d network mapping(s) from %s", len(mappings), abs)
	return mappings, nil
}

func parseConfigLines(r io.Reader) ([]NetworkMapping, error) {
	var mappings []NetworkMapping

	validKeys := make(map[string]struct{}, maxNumberedNetworkKeys+1)
	validKeys[networkKeyPrefix] = struct{}{}
	for i := 1; i <= maxNumberedNetworkKeys; i++ {
		validKeys[networkKeyPrefix+strconv.Itoa(i)] = struct{}{}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, known := validKeys[key]; !known {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"`)
		if value == "" {
			continue
		}

		mapping, err := ParseMappingArg(value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		mappings = append(mappings, mapping)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return mappings, nil
}
