package customize

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/syncx"
)

//go:embed schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("customizations.schema.json", schemaSource)

// legacyFields maps field keys written by older settings editors. An empty
// value drops the field.
var legacyFields = map[string]string{
	"Horizontal Angle": FieldAngle,
	"Vertical Angle":   "",
	"Coordinates":      FieldOverworldCoords,
}

type snapshot struct {
	modTime time.Time
	size    int64
	missing bool
	loaded  bool
	cfg     RenderConfig
}

// Store serves the customizations file. The file may be rewritten by a
// separate editor at any time, so every Load re-stats it and re-parses when
// its modification time or size changed.
type Store struct {
	path  string
	state *syncx.RWGuard[snapshot]
}

// NewStore creates a store for path (JSON, or YAML by extension).
func NewStore(path string) *Store {
	return &Store{path: path, state: syncx.NewGuard(snapshot{})}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns the current configuration. A missing or malformed file
// yields defaults.
func (s *Store) Load() RenderConfig {
	info, err := os.Stat(s.path)
	cur := s.state.Get()

	if err != nil {
		if !cur.loaded || !cur.missing {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Info("customizations file not found, using defaults", "path", s.path)
			} else {
				slog.Warn("customizations file unreadable, using defaults", "path", s.path, "error", err)
			}
			s.state.Set(snapshot{missing: true, loaded: true, cfg: Defaults()})
		}
		return Defaults()
	}

	if cur.loaded && !cur.missing && cur.modTime.Equal(info.ModTime()) && cur.size == info.Size() {
		return cur.cfg.Clone()
	}

	cfg, err := s.read()
	if err != nil {
		slog.Warn("customizations invalid, using defaults", "path", s.path, "error", err)
		cfg = Defaults()
	}
	s.state.Set(snapshot{modTime: info.ModTime(), size: info.Size(), loaded: true, cfg: cfg})
	return cfg.Clone()
}

func (s *Store) read() (RenderConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Defaults(), apperrors.Wrap(err, apperrors.CodeConfigMissing, "read customizations")
	}
	return Parse(data, isYAML(s.path))
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Parse decodes, migrates, validates and default-merges a customizations
// document.
func Parse(data []byte, asYAML bool) (RenderConfig, error) {
	doc, err := decodeDocument(data, asYAML)
	if err != nil {
		return Defaults(), apperrors.Wrap(err, apperrors.CodeConfigInvalid, "decode customizations")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Defaults(), apperrors.New(apperrors.CodeConfigInvalid, "customizations must be an object")
	}
	migrate(obj)

	if err := schema.Validate(obj); err != nil {
		return Defaults(), apperrors.Wrap(err, apperrors.CodeConfigInvalid, "validate customizations")
	}

	merged, err := json.Marshal(obj)
	if err != nil {
		return Defaults(), apperrors.Wrap(err, apperrors.CodeConfigInvalid, "encode customizations")
	}
	cfg := Defaults()
	// Keys given in the file replace defaults; text_enabled entries merge.
	if err := json.Unmarshal(merged, &cfg); err != nil {
		return Defaults(), apperrors.Wrap(err, apperrors.CodeConfigInvalid, "apply customizations")
	}
	cfg.normalize()
	return cfg, nil
}

// decodeDocument returns a value shaped like encoding/json output so the
// schema validator sees float64 numbers and string-keyed maps.
func decodeDocument(data []byte, asYAML bool) (any, error) {
	var doc any
	if !asYAML {
		err := json.Unmarshal(data, &doc)
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	doc = nil
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

func migrate(doc map[string]any) {
	if v, ok := doc["Shown_measurements"]; ok {
		if _, exists := doc["shown_measurements"]; !exists {
			doc["shown_measurements"] = v
		}
		delete(doc, "Shown_measurements")
	}

	if order, ok := doc["text_order"].([]any); ok {
		out := make([]any, 0, len(order))
		for _, item := range order {
			if key, ok := item.(string); ok {
				if renamed, legacy := legacyFields[key]; legacy {
					if renamed == "" {
						continue
					}
					item = renamed
				}
			}
			out = append(out, item)
		}
		doc["text_order"] = out
	}

	if enabled, ok := doc["text_enabled"].(map[string]any); ok {
		out := make(map[string]any, len(enabled))
		for k, v := range enabled {
			if renamed, legacy := legacyFields[k]; legacy {
				if renamed == "" {
					continue
				}
				k = renamed
			}
			out[k] = v
		}
		doc["text_enabled"] = out
	}
}
