package material

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Registry owns the materials of one run, indexed by name and by mesh
// block id.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Material
	byBlock map[int]*Material
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Material),
		byBlock: make(map[int]*Material),
	}
}

// Add registers m. If a material with the same name is already present the
// existing one is returned and m is discarded.
func (r *Registry) Add(m *Material) *Material {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byName[m.Name]; ok {
		log.WithField("name", m.Name).Warn("material already registered")
		return prev
	}
	r.byName[m.Name] = m
	r.byBlock[m.Block] = m
	return m
}

// ByName looks a material up by name.
func (r *Registry) ByName(name string) (*Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// ByBlock looks a material up by mesh block id.
func (r *Registry) ByBlock(block int) (*Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byBlock[block]
	return m, ok
}

// All returns the materials ordered by block id.
func (r *Registry) All() []*Material {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Material, 0, len(r.byName))
	for _, m := range r.byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Block < out[j].Block })
	return out
}

// Len is the number of registered materials.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// FromSection builds a material from an INI section. The name is the
// "name" key, or the section name after "Material.".
func FromSection(sec *ini.Section) (*Material, error) {
	name := sec.Key("name").MustString(strings.TrimPrefix(sec.Name(), "Material."))
	d := Data{
		Name:      name,
		Block:     sec.Key("block").MustInt(0),
		NumGroups: sec.Key("numGroups").MustInt(1),
		BetaEff:   sec.Key("dnFractionEff").MustFloat64(0),
	}
	lists := []struct {
		key string
		dst *[]float64
	}{
		{"sigmaT", &d.SigmaT},
		{"sigmaS", &d.SigmaS},
		{"nu_sigmaF", &d.NuSigmaF},
		{"fissionSpectrum", &d.Chi},
		{"speed", &d.Speed},
		{"dnDecayConst", &d.Lambda},
		{"dnFraction", &d.Beta},
	}
	for _, l := range lists {
		if !sec.HasKey(l.key) {
			continue
		}
		v, err := sec.Key(l.key).StrictFloat64s(",")
		if err != nil {
			return nil, fmt.Errorf("material %q key %s: %w", name, l.key, err)
		}
		*l.dst = v
	}
	return New(d)
}

// LoadRegistry registers every [Material.*] section of f.
func LoadRegistry(f *ini.File) (*Registry, error) {
	r := NewRegistry()
	for _, sec := range f.Sections() {
		if sec.Name() != "Material" && !strings.HasPrefix(sec.Name(), "Material.") {
			continue
		}
		m, err := FromSection(sec)
		if err != nil {
			return nil, err
		}
		r.Add(m)
		log.WithFields(log.Fields{"name": m.Name, "block": m.Block, "groups": m.NumGroups}).
			Info("material loaded")
	}
	if r.Len() == 0 {
		return nil, fmt.Errorf("no [Material.*] sections")
	}
	return r, nil
}
