package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agriconnect/core"
)

// Source supplies the descriptors of a catalog in registration order.
type Source interface {
	Descriptors(ctx context.Context) ([]core.AgentDescriptor, error)
}

// StaticSource is an in-memory catalog.
type StaticSource []core.AgentDescriptor

// Descriptors implements Source.
func (s StaticSource) Descriptors(context.Context) ([]core.AgentDescriptor, error) {
	out := make([]core.AgentDescriptor, len(s))
	for i, d := range s {
		out[i] = d.Clone()
	}
	return out, nil
}

// DirSource reads agent cards (*.json, *.yaml, *.yml) from a directory in
// lexical filename order. A missing directory yields an empty catalog.
type DirSource struct {
	Dir string
}

// Descriptors implements Source.
func (s DirSource) Descriptors(ctx context.Context) ([]core.AgentDescriptor, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]core.AgentDescriptor, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := ReadCard(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ReadCard reads one agent card; the format follows the file extension.
func ReadCard(path string) (core.AgentDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.AgentDescriptor{}, fmt.Errorf("read card %s: %w", path, err)
	}
	var d core.AgentDescriptor
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &d)
	} else {
		err = yaml.Unmarshal(data, &d)
	}
	if err != nil {
		return core.AgentDescriptor{}, fmt.Errorf("parse card %s: %w", path, err)
	}
	return d, nil
}
