// Package config loads the experiment description a run is built from:
// the atomic models to instantiate, how their ports connect, and which
// views observe them. Grounded on cmd/default_config.go's style — plain
// yaml-tagged structs, strict KnownFields(true) decoding so a typo'd key
// fails loudly instead of silently defaulting.
package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vle-project/devskernel/kernel/value"
)

// ModelSpec describes one atomic model to instantiate via the
// coordinator's ModelFactory.
type ModelSpec struct {
	Name        string     `yaml:"name"`
	Class       string     `yaml:"class"`
	Parent      string     `yaml:"parent"` // dotted path; "" means the root coupled model
	Params      ParamValue `yaml:"params"`
	InputPorts  []string   `yaml:"input_ports"`
	OutputPorts []string   `yaml:"output_ports"`
}

// ConnectionSpec describes one internal coupling between two model ports,
// both children of Parent (dotted path; "" means the root).
type ConnectionSpec struct {
	Parent   string `yaml:"parent"`
	From     string `yaml:"from"`
	FromPort string `yaml:"from_port"`
	To       string `yaml:"to"`
	ToPort   string `yaml:"to_port"`
}

// SubscriptionSpec names one (model, port) a view samples.
type SubscriptionSpec struct {
	Model string `yaml:"model"`
	Port  string `yaml:"port"`
}

// ViewSpec describes one observer: event-driven or timed, with its
// subscriptions.
type ViewSpec struct {
	ID            string             `yaml:"id"`
	Kind          string             `yaml:"kind"` // "event" or "timed"
	Period        float64            `yaml:"period"`
	Subscriptions []SubscriptionSpec `yaml:"subscriptions"`
}

// Config is the full experiment description. All top-level sections must
// be listed here to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version     string           `yaml:"version"`
	Horizon     float64          `yaml:"horizon"` // experiment horizon in simulated time; 0 means unbounded
	Models      []ModelSpec      `yaml:"models"`
	Connections []ConnectionSpec `yaml:"connections"`
	Views       []ViewSpec       `yaml:"views"`
}

// Load reads and strictly decodes a Config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse strictly decodes a Config from raw YAML bytes.
func Parse(data []byte) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ParamValue decodes an arbitrary YAML node into a kernel value.Value,
// following VLE's value hierarchy: scalars become Bool/Int/Double/String,
// sequences become Set, mappings become Map.
type ParamValue struct {
	value.Value
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *ParamValue) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeNode(node)
	if err != nil {
		return err
	}
	p.Value = v
	return nil
}

func decodeNode(node *yaml.Node) (value.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		elems := make([]value.Value, len(node.Content))
		for i, c := range node.Content {
			v, err := decodeNode(c)
			if err != nil {
				return value.Nil, err
			}
			elems[i] = v
		}
		return value.Set(elems...), nil
	case yaml.MappingNode:
		m := make(map[string]value.Value, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			v, err := decodeNode(node.Content[i+1])
			if err != nil {
				return value.Nil, err
			}
			m[key] = v
		}
		return value.Map(m), nil
	case 0:
		return value.Nil, nil
	default:
		return value.Nil, fmt.Errorf("unsupported YAML node kind %v", node.Kind)
	}
}

func decodeScalar(node *yaml.Node) (value.Value, error) {
	if node.Tag == "!!null" || node.Value == "" && node.Tag == "" {
		return value.Nil, nil
	}
	if node.Tag == "!!bool" {
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return value.Nil, err
		}
		return value.Bool(b), nil
	}
	if node.Tag == "!!int" {
		i, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return value.Nil, err
		}
		return value.Int(i), nil
	}
	if node.Tag == "!!float" {
		d, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return value.Nil, err
		}
		return value.Double(d), nil
	}
	return value.String(node.Value), nil
}

// ModelPath builds the "parent.name" dotted path used to cross-reference
// ModelSpec.Parent / ConnectionSpec.From/To against the graph's own Path().
func ModelPath(parent, name string) string {
	if parent == "" {
		return "top." + name
	}
	return parent + "." + name
}

// SortedViewIDs returns view ids in a deterministic order, useful for
// logging and golden-trace tests.
func SortedViewIDs(cfg *Config) []string {
	ids := make([]string, len(cfg.Views))
	for i, v := range cfg.Views {
		ids[i] = v.ID
	}
	sort.Strings(ids)
	return ids
}
