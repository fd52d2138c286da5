package preset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spyice/room-generator/internal/logger"
	"gopkg.in/yaml.v3"
)

// Index lists preset names per category.
type Index struct {
	Start  []string `yaml:"start" json:"start"`
	Normal []string `yaml:"normal" json:"normal"`
	Boss   []string `yaml:"boss" json:"boss"`
}

// Names returns the preset names registered for a category.
func (idx Index) Names(category Category) ([]string, error) {
	switch category {
	case CategoryStart:
		return idx.Start, nil
	case CategoryNormal:
		return idx.Normal, nil
	case CategoryBoss:
		return idx.Boss, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

// Repository holds every loaded preset and the category index.
type Repository struct {
	index   Index
	presets map[string]*Preset
	order   []string

	// Skipped lists files that could not be parsed.
	Skipped []string
}

// NewRepository builds a repository from in-memory presets.
func NewRepository(index Index, presets ...*Preset) *Repository {
	repo := &Repository{
		index:   index,
		presets: make(map[string]*Preset),
	}
	for _, p := range presets {
		repo.add(p)
	}
	return repo
}

func (r *Repository) add(p *Preset) {
	if _, exists := r.presets[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	r.presets[p.Name] = p
}

// Load reads every .yaml/.yml file in dir as a preset and indexPath as the
// category index. Malformed preset files are skipped with a warning. A
// missing or malformed index yields an empty repository; the returned error
// explains why, but the repository is always usable.
func Load(dir, indexPath string) (*Repository, error) {
	index, err := LoadIndex(indexPath)
	if err != nil {
		logger.Warning("Preset index unavailable, no presets loaded", "path", indexPath, "error", err)
		return NewRepository(Index{}), err
	}

	repo := NewRepository(index)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warning("Preset directory unreadable", "dir", dir, "error", err)
		return repo, fmt.Errorf("failed to read presets directory: %w", err)
	}

	// Directory order is sorted by name, so loading is deterministic.
	absIndex, _ := filepath.Abs(indexPath)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if abs, _ := filepath.Abs(path); abs == absIndex {
			continue
		}

		p, err := LoadPreset(path)
		if err != nil {
			logger.Warning("Could not read preset file", "path", path, "error", err)
			repo.Skipped = append(repo.Skipped, path)
			continue
		}
		repo.add(p)
	}

	logger.Debug("Loaded presets", "count", len(repo.order), "skipped", len(repo.Skipped))
	return repo, nil
}

// LoadIndex reads the category index file.
func LoadIndex(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Index{}, fmt.Errorf("failed to read preset index: %w", err)
	}

	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return Index{}, fmt.Errorf("failed to parse preset index YAML: %w", err)
	}
	return index, nil
}

// LoadPreset reads and validates a single preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ByName returns a preset by its name.
func (r *Repository) ByName(name string) (*Preset, bool) {
	p, ok := r.presets[name]
	return p, ok
}

// Names returns all loaded preset names, sorted.
func (r *Repository) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of loaded presets.
func (r *Repository) Len() int {
	return len(r.presets)
}

// Index returns the category index.
func (r *Repository) Index() Index {
	return r.index
}

// Choose picks a preset uniformly at random from a category.
func (r *Repository) Choose(category Category, rng *rand.Rand) (*Preset, error) {
	names, err := r.index.Names(category)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in category %q", ErrNoPresets, category)
	}

	name := names[rng.Intn(len(names))]
	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q listed in %q was not loaded", ErrNoPresets, name, category)
	}
	return p, nil
}
