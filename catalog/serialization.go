package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// testFileExt is the extension of persisted normalized tests.
const testFileExt = ".json"

// excludedFileName is the per-sub-group journal of not-provable variants.
const excludedFileName = ".excluded.json"

// Write persists the catalog as one JSON file per normalized test under
// <dir>/<group>/<sub-group>/<variant>.json, replacing any previous content of
// dir. Catalogs are rebuilt wholesale, so a partially updated directory is
// never left behind.
func Write(c *Catalog, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear catalog directory: %w", err)
	}
	for _, g := range c.Groups {
		for _, s := range g.SubGroups {
			subDir := filepath.Join(dir, g.Name, s.Name)
			if err := os.MkdirAll(subDir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", subDir, err)
			}
			for _, t := range s.Tests {
				if err := writeJSON(filepath.Join(subDir, t.Name+testFileExt), t); err != nil {
					return err
				}
			}
			if len(s.Excluded) > 0 {
				if err := writeJSON(filepath.Join(subDir, excludedFileName), s.Excluded); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Read loads a persisted catalog. Groups, sub-groups, and tests are
// enumerated in lexicographic order, so repeated reads of the same directory
// produce identical catalogs.
func Read(dir string) (*Catalog, error) {
	c := New()
	groups, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}
	for _, group := range groups {
		if !group.IsDir() {
			continue
		}
		subs, err := os.ReadDir(filepath.Join(dir, group.Name()))
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if !sub.IsDir() {
				continue
			}
			err := readSubGroup(c, dir, group.Name(), sub.Name())
			if err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func readSubGroup(c *Catalog, dir, group, sub string) error {
	subDir := filepath.Join(dir, group, sub)
	entries, err := os.ReadDir(subDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(subDir, entry.Name())
		if entry.Name() == excludedFileName {
			var excluded []string
			if err := readJSON(path, &excluded); err != nil {
				return err
			}
			for _, variant := range excluded {
				c.Exclude(group, sub, variant)
			}
			continue
		}
		if !strings.HasSuffix(entry.Name(), testFileExt) {
			continue
		}
		test := new(NormalizedTest)
		if err := readJSON(path, test); err != nil {
			return err
		}
		if err := c.Add(group, sub, test); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
