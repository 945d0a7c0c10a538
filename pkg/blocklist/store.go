package blocklist

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flight-search/contentguard/pkg/lexical"
)

// Snapshot is an immutable, versioned view of the compiled rule set.
// In-flight requests keep whatever snapshot they obtained; a reload never
// invalidates it.
type Snapshot struct {
	Version   uint64
	Rules     []lexical.CompiledRule
	CreatedAt time.Time
}

// Store owns the active snapshot and publishes replacements atomically.
// Readers never block and never observe a partially applied rule set.
type Store struct {
	categories map[string]struct{}
	current    atomic.Pointer[Snapshot]
	version    atomic.Uint64
}

// NewStore builds a store that validates rules against the given category
// names. An empty category list disables that check.
func NewStore(categories []string) *Store {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}
	s := &Store{categories: known}
	s.current.Store(&Snapshot{Version: 0, CreatedAt: time.Now()})
	return s
}

// Current returns the active snapshot. Never blocks, never returns nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Load parses, validates, and compiles a rule source, then publishes the
// resulting snapshot. On any error the previous snapshot stays active and
// nothing is partially applied.
func (s *Store) Load(source io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("reading rule source: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &LoadError{Reason: fmt.Sprintf("unparsable rule source: %v", err)}
	}

	type ruleKey struct{ pattern, language string }
	seen := make(map[ruleKey]int, len(file.Rules))
	compiled := make([]lexical.CompiledRule, 0, len(file.Rules))

	for _, entry := range file.Rules {
		if lerr := entry.validate(s.categories); lerr != nil {
			return nil, lerr
		}
		lang := entry.Language
		if lang == "" {
			lang = lexical.WildcardLanguage
		}
		key := ruleKey{pattern: lexical.Normalize(entry.Pattern), language: lang}
		rule := lexical.Compile(entry.Pattern, entry.Category, entry.Severity, lang, entry.Match)
		if idx, dup := seen[key]; dup {
			if !entry.Override {
				return nil, &LoadError{Pattern: entry.Pattern, Language: lang, Reason: "duplicate pattern without override"}
			}
			compiled[idx] = rule
			continue
		}
		seen[key] = len(compiled)
		compiled = append(compiled, rule)
	}

	snapshot := &Snapshot{
		Version:   s.version.Add(1),
		Rules:     compiled,
		CreatedAt: time.Now(),
	}
	s.current.Store(snapshot)
	return snapshot, nil
}

// Reload replaces the active snapshot from a new source. Identical
// contract to Load; a failed reload reports the error and leaves the
// previous snapshot authoritative.
func (s *Store) Reload(source io.Reader) (*Snapshot, error) {
	return s.Load(source)
}

// LoadFile loads rules from a YAML file on disk.
func (s *Store) LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}
