// Package nluconfig loads the per-language NLU training data a skill
// advertises with MsgRegisterIntents from a directory of TOML files, one
// file per language tag.
package nluconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/backkem/vap-registry/pkg/wire"
)

// ListLanguages returns the language tags available under dir, one per
// regular file found there (the file name itself is the tag, e.g.
// "en-US"). Subdirectories and dotfiles are skipped.
func ListLanguages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("nluconfig: list languages: %w", err)
	}

	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		langs = append(langs, e.Name())
	}
	return langs, nil
}

// LoadIntents parses the TOML file for every language in langs found
// under dir, returning one wire.NluData per language actually present.
// A requested language with no matching file is silently skipped, mirroring
// the original loader's filter_map over the directory listing.
func LoadIntents(langs []string, dir string) ([]wire.NluData, error) {
	wanted := make(map[string]bool, len(langs))
	for _, l := range langs {
		wanted[l] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("nluconfig: load intents: %w", err)
	}

	data := make([]wire.NluData, 0, len(langs))
	for _, e := range entries {
		if e.IsDir() || !wanted[e.Name()] {
			continue
		}

		var raw langData
		if _, err := toml.DecodeFile(filepath.Join(dir, e.Name()), &raw); err != nil {
			return nil, fmt.Errorf("nluconfig: parse %s: %w", e.Name(), err)
		}
		data = append(data, raw.toNluData(e.Name()))
	}
	return data, nil
}

// langData mirrors the original's LangData: a set of named intent scopes
// (only "main" is read, per spec.md §5's supplemented-feature notes) plus
// a flat set of named entities.
type langData struct {
	Scopes   map[string]map[string]intentData `toml:"intents"`
	Entities map[string]entityData            `toml:"entities"`
}

type intentData struct {
	Utterances []string          `toml:"utterances"`
	Slots      map[string]string `toml:"slots"`
}

type entityData struct {
	Data []interface{} `toml:"data"`
}

func (l langData) toNluData(language string) wire.NluData {
	out := wire.NluData{Language: language}

	if main, ok := l.Scopes["main"]; ok {
		out.Intents = make([]wire.NluDataIntent, 0, len(main))
		for name, i := range main {
			out.Intents = append(out.Intents, i.toVAP(name))
		}
	}

	out.Entities = make([]wire.NluDataEntity, 0, len(l.Entities))
	for name, e := range l.Entities {
		out.Entities = append(out.Entities, e.toVAP(name))
	}

	return out
}

func (i intentData) toVAP(name string) wire.NluDataIntent {
	slots := make([]wire.NluDataSlot, 0, len(i.Slots))
	for n, entity := range i.Slots {
		slots = append(slots, wire.NluDataSlot{Name: n, Entity: entity})
	}
	return wire.NluDataIntent{
		Name:       name,
		Utterances: i.Utterances,
		Slots:      slots,
	}
}

func (e entityData) toVAP(name string) wire.NluDataEntity {
	data := make([]wire.Value, len(e.Data))
	for idx, v := range e.Data {
		data[idx] = anyToWireValue(v)
	}
	return wire.NluDataEntity{Name: name, Strict: false, Data: data}
}

// anyToWireValue converts a value decoded by BurntSushi/toml (string,
// int64, float64, bool, time.Time, []interface{}, map[string]interface{})
// into the wire package's tagged Value tree.
func anyToWireValue(v interface{}) wire.Value {
	switch t := v.(type) {
	case string:
		return wire.Value{Kind: wire.KindString, Str: t}
	case int64:
		return wire.Value{Kind: wire.KindInt, Int: t}
	case float64:
		return wire.Value{Kind: wire.KindFloat64, F64: t}
	case bool:
		return wire.Value{Kind: wire.KindBool, Bool: t}
	case []interface{}:
		list := make([]wire.Value, len(t))
		for i, e := range t {
			list[i] = anyToWireValue(e)
		}
		return wire.Value{Kind: wire.KindList, List: list}
	case map[string]interface{}:
		m := make(map[string]wire.Value, len(t))
		keys := make([]string, 0, len(t))
		for k, e := range t {
			m[k] = anyToWireValue(e)
			keys = append(keys, k)
		}
		return wire.Value{Kind: wire.KindMap, Map: m, Keys: keys}
	default:
		return wire.Value{Kind: wire.KindString, Str: fmt.Sprintf("%v", t)}
	}
}
