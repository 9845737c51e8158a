package config

import (
	"fmt"

	"github.com/vle-project/devskernel/kernel"
	"github.com/vle-project/devskernel/kernel/devstime"
)

// Build instantiates every ModelSpec, ConnectionSpec and ViewSpec in cfg
// against co, in declaration order. Every ModelSpec becomes an atomic
// model; Build creates no coupled models, so a Parent other than "" or
// "top" names an atomic model and is rejected by the graph. sinks maps
// view id to its Stream; a view with no entry gets no sink and its
// samples are computed but discarded.
//
// Returns the dotted-path ("top.gen1") to ModelID registry, so a caller
// can keep wiring the graph programmatically (e.g. from an Executive)
// after Build returns.
func Build(co *kernel.Coordinator, cfg *Config, sinks map[string]kernel.Stream) (map[string]kernel.ModelID, error) {
	paths := map[string]kernel.ModelID{"top": co.Graph().Root()}

	for _, m := range cfg.Models {
		parentPath := "top"
		if m.Parent != "" {
			parentPath = m.Parent
		}
		parentID, ok := paths[parentPath]
		if !ok {
			return nil, fmt.Errorf("model %q: unknown parent %q", m.Name, parentPath)
		}
		factory := co.Factory()
		if factory == nil {
			return nil, fmt.Errorf("model %q: no ModelFactory registered on coordinator", m.Name)
		}
		dyn, err := factory(m.Class, m.Params.Value)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		id, err := co.AddAtomicModel(parentID, m.Name, dyn, portNames(m.InputPorts), portNames(m.OutputPorts))
		if err != nil {
			return nil, err
		}
		paths[ModelPath(m.Parent, m.Name)] = kernel.ModelID(id)
	}

	for _, c := range cfg.Connections {
		parentPath := "top"
		if c.Parent != "" {
			parentPath = c.Parent
		}
		parentID, ok := paths[parentPath]
		if !ok {
			return nil, fmt.Errorf("connection %s->%s: unknown parent %q", c.From, c.To, parentPath)
		}
		srcID, ok := paths[c.From]
		if !ok {
			return nil, fmt.Errorf("connection: unknown source %q", c.From)
		}
		dstID, ok := paths[c.To]
		if !ok {
			return nil, fmt.Errorf("connection: unknown destination %q", c.To)
		}
		if err := co.Graph().Connect(parentID, srcID, kernel.PortName(c.FromPort), dstID, kernel.PortName(c.ToPort)); err != nil {
			return nil, err
		}
	}

	for _, v := range cfg.Views {
		kind := kernel.EventDriven
		if v.Kind == "timed" {
			kind = kernel.Timed
		}
		obs := kernel.NewObserver(kernel.ViewID(v.ID), kind, devstime.New(v.Period))
		for _, sub := range v.Subscriptions {
			simID, ok := paths[sub.Model]
			if !ok {
				return nil, fmt.Errorf("view %q: unknown model %q", v.ID, sub.Model)
			}
			obs.AddObservable(kernel.SimulatorID(simID), kernel.PortName(sub.Port))
		}
		if err := co.RegisterObserver(obs, sinks[v.ID]); err != nil {
			return nil, err
		}
	}

	return paths, nil
}

func portNames(names []string) []kernel.PortName {
	out := make([]kernel.PortName, len(names))
	for i, n := range names {
		out[i] = kernel.PortName(n)
	}
	return out
}
