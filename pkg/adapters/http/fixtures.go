package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FixtureFile is the structure of a canned-response file:
//
//	actions:
//	  listView:
//	    html:
//	      - selector: "#container"
//	        content: "<ul id='item-list'>...</ul>"
//	    js:
//	      - name: setURL
//	        arguments: [null, "List", "/"]
//	      - name: enableSorting
type FixtureFile struct {
	Actions map[string]Fixture `mapstructure:"actions"`
}

// Fixture is the canned Result of one action.
type Fixture struct {
	HTML  []FixtureHTML `mapstructure:"html"`
	JS    []FixtureCall `mapstructure:"js"`
	Error string        `mapstructure:"error"`
}

// FixtureHTML is one HTML update. Operation defaults to replace.
// ContentFile is read relative to the fixture file when Content is empty.
type FixtureHTML struct {
	Operation   int           `mapstructure:"operation"`
	Selector    string        `mapstructure:"selector"`
	Content     string        `mapstructure:"content"`
	ContentFile string        `mapstructure:"content_file"`
	Init        []FixtureCall `mapstructure:"init"`
	Destroy     []FixtureCall `mapstructure:"destroy"`
}

// FixtureCall is one client function call.
type FixtureCall struct {
	Name      string `mapstructure:"name"`
	Arguments any    `mapstructure:"arguments"`
}

// LoadFixtures reads a YAML or JSON fixture file into a Table of canned Callables.
func LoadFixtures(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	var file FixtureFile
	if err := mapstructure.Decode(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}
	return file.Table(filepath.Dir(path))
}

// Table converts the fixtures into Callables. baseDir resolves content_file entries.
func (f FixtureFile) Table(baseDir string) (Table, error) {
	table := make(Table, len(f.Actions))
	for name, fx := range f.Actions {
		res, err := fx.result(baseDir)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", name, err)
		}
		table[name] = canned(res, fx.Error)
	}
	return table, nil
}

func (fx Fixture) result(baseDir string) (domain.Result, error) {
	var res domain.Result
	for _, h := range fx.HTML {
		update, err := h.update(baseDir)
		if err != nil {
			return res, err
		}
		res.HTML = append(res.HTML, update)
	}
	calls, err := convertCalls(fx.JS)
	if err != nil {
		return res, err
	}
	res.JS = calls
	return res, nil
}

func (h FixtureHTML) update(baseDir string) (domain.HTMLUpdate, error) {
	if h.Selector == "" {
		return domain.HTMLUpdate{}, errors.New("html update without selector")
	}
	op := domain.HTMLOp(h.Operation)
	if op == 0 {
		op = domain.HTMLReplace
	}

	content := h.Content
	if content == "" && h.ContentFile != "" {
		data, err := os.ReadFile(filepath.Join(baseDir, h.ContentFile))
		if err != nil {
			return domain.HTMLUpdate{}, fmt.Errorf("content_file: %w", err)
		}
		content = string(data)
	}

	initCalls, err := convertCalls(h.Init)
	if err != nil {
		return domain.HTMLUpdate{}, err
	}
	destroyCalls, err := convertCalls(h.Destroy)
	if err != nil {
		return domain.HTMLUpdate{}, err
	}
	return domain.HTMLUpdate{
		Operation: op,
		Selector:  h.Selector,
		Content:   content,
		Init:      initCalls,
		Destroy:   destroyCalls,
	}, nil
}

func convertCalls(in []FixtureCall) ([]domain.JSCall, error) {
	var out []domain.JSCall
	for _, c := range in {
		if c.Name == "" {
			return nil, errors.New("js call without name")
		}
		call := domain.JSCall{Name: c.Name}
		if c.Arguments != nil {
			raw, err := json.Marshal(c.Arguments)
			if err != nil {
				return nil, fmt.Errorf("js call %s: %w", c.Name, err)
			}
			call.Arguments = raw
		}
		out = append(out, call)
	}
	return out, nil
}

// canned returns the same Result for every call. A non-empty message turns it into an error result.
func canned(res domain.Result, message string) Callable {
	return func(ctx context.Context, args json.RawMessage) (*domain.Result, error) {
		out := res
		if message != "" {
			return &out, errors.New(message)
		}
		return &out, nil
	}
}
