package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/waterlyhq/waterly/internal/log"
	"github.com/waterlyhq/waterly/pkg/store"
)

// ApplySeedFile loads a YAML file of setting overrides and stores them.
// The file maps setting keys to their document values, for example:
//
//	units:
//	  value: metric
//	humidity_target_percent:
//	  Z1: 65.0
//	  Z2: 70.0
//
// Every entry is validated against the vocabulary and its document shape
// before anything is written, so a bad file changes nothing. Existing
// values are overwritten. It returns the number of settings applied.
func (f *Facade) ApplySeedFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading seed file: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// First pass: validate everything.
	docs := make(map[Setting]json.RawMessage, len(doc))
	for _, k := range keys {
		key := Setting(k)
		if !Known(key) {
			return 0, &store.ValidationError{Field: k, Reason: "unknown setting"}
		}
		enc, err := json.Marshal(doc[k])
		if err != nil {
			return 0, fmt.Errorf("encoding seed value for %s: %w", k, err)
		}
		if err := validateShape(key, enc); err != nil {
			return 0, err
		}
		docs[key] = enc
	}

	// Second pass: write.
	applied := 0
	for _, k := range keys {
		key := Setting(k)
		if err := f.store.SetConfig(ctx, k, docs[key]); err != nil {
			return applied, err
		}
		applied++
	}

	log.Infow("applied settings seed file", "path", path, "settings", applied)
	return applied, nil
}
