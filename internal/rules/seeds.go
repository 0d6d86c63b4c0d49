package rules

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/pathutil"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/tokenize"
)

// seedWeight is the starting weight contributed by each seed rule match.
const seedWeight = 0.5

// SeedFile is the static starter configuration: named base directories plus
// simple extension/keyword rules pointing at them.
type SeedFile struct {
	BaseDirs map[string]string `yaml:"base_dirs"`
	Rules    []SeedRule        `yaml:"rules"`
}

// SeedRule maps extensions and name keywords to a destination, which is
// either a base_dirs name or a literal path.
type SeedRule struct {
	To           string   `yaml:"to"`
	IfExtIn      []string `yaml:"if_ext_in"`
	IfNameHasAny []string `yaml:"if_name_has_any"`
}

// LoadSeedFile parses the seed YAML at path. A missing file or an empty
// path returns an empty SeedFile; configuration absence is not an error.
func LoadSeedFile(path string) (*SeedFile, error) {
	if path == "" {
		return &SeedFile{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &SeedFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var seeds SeedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &seeds, nil
}

// Apply populates the extension and token tables from the seed rules. Each
// match adds a fixed weight; several rules targeting the same folder stack.
// Base directories are created so the destinations exist from day one.
func (sf *SeedFile) Apply(t *Tables) {
	resolved := make(map[string]string, len(sf.BaseDirs))
	for name, dir := range sf.BaseDirs {
		path := pathutil.Expand(dir)
		resolved[name] = path
		if err := os.MkdirAll(path, 0o755); err != nil {
			log.Printf("rules: cannot create seed base dir %s: %v", path, err)
		}
	}

	for _, rule := range sf.Rules {
		folder := resolved[rule.To]
		if folder == "" {
			folder = pathutil.Expand(rule.To)
		}
		for _, ext := range dedup(rule.IfExtIn, tokenize.NormalizeExt) {
			t.Bump(KindExt, ext, folder, seedWeight)
		}
		for _, kw := range dedup(rule.IfNameHasAny, normalizeKeyword) {
			t.Bump(KindToken, kw, folder, seedWeight)
		}
	}
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// dedup normalizes a seed list and drops duplicates, preserving first-seen
// order. Deduplication runs on the normalized form so ".PDF" and "pdf"
// count once.
func dedup(items []string, norm func(string) string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		v := norm(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
