package kernel

import (
	"fmt"

	"github.com/vle-project/devskernel/kernel/kernerr"
)

// ModelID identifies any node in the model graph, atomic or coupled. It
// shares an identifier space with SimulatorID: an atomic model's ModelID
// is exactly the SimulatorID of the Simulator that backs it. This is the
// arena-of-ids replacement spec.md §9 asks for in place of the source's
// cyclic Simulator↔CoupledModel back-references.
type ModelID = SimulatorID

type nodeKind int

const (
	nodeAtomic nodeKind = iota
	nodeCoupled
)

type graphNode struct {
	id          ModelID
	kind        nodeKind
	name        string
	parent      ModelID
	hasParent   bool
	inputPorts  map[PortName]bool
	outputPorts map[PortName]bool
}

type connKey struct {
	node ModelID
	port PortName
}

// coupledModel is a hierarchical container: child models plus the three
// coupling relations spec.md §3 describes — internal (child out → sibling
// in), input (own boundary in → child in), and output (child out → own
// boundary out).
type coupledModel struct {
	children       map[ModelID]bool
	internal       map[connKey][]connKey
	inputCoupling  map[PortName][]connKey
	outputCoupling map[connKey]PortName
}

func newCoupledModel() *coupledModel {
	return &coupledModel{
		children:       make(map[ModelID]bool),
		internal:       make(map[connKey][]connKey),
		inputCoupling:  make(map[PortName][]connKey),
		outputCoupling: make(map[connKey]PortName),
	}
}

// ModelGraph is the hierarchical tree of coupled and atomic models with
// named ports, plus the connection tables routing walks. Owned
// exclusively by the Coordinator, as spec.md §5 requires.
type ModelGraph struct {
	nodes   map[ModelID]*graphNode
	coupled map[ModelID]*coupledModel
	root    ModelID
	nextID  uint32
}

// NewModelGraph creates a graph with a single root coupled model named
// "top".
func NewModelGraph() *ModelGraph {
	g := &ModelGraph{
		nodes:   make(map[ModelID]*graphNode),
		coupled: make(map[ModelID]*coupledModel),
	}
	g.root = g.allocID()
	g.nodes[g.root] = &graphNode{
		id:          g.root,
		kind:        nodeCoupled,
		name:        "top",
		inputPorts:  make(map[PortName]bool),
		outputPorts: make(map[PortName]bool),
	}
	g.coupled[g.root] = newCoupledModel()
	return g
}

func (g *ModelGraph) allocID() ModelID {
	g.nextID++
	return ModelID(g.nextID)
}

// Root returns the top-level coupled model's id.
func (g *ModelGraph) Root() ModelID { return g.root }

// Node returns the node for id, or false if none exists.
func (g *ModelGraph) node(id ModelID) (*graphNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NewID allocates a fresh ModelID without registering a node — used by the
// Coordinator when constructing a Simulator for a to-be-added atomic model
// so the Simulator and the graph node share one identity.
func (g *ModelGraph) NewID() ModelID { return g.allocID() }

// AddAtomicModel registers an atomic model with the given id (from NewID)
// as a child of parent. Returns a StructuralError if parent doesn't exist
// or isn't coupled, or if the name duplicates an existing sibling.
func (g *ModelGraph) AddAtomicModel(id, parent ModelID, name string, inputPorts, outputPorts []PortName) error {
	return g.addNode(id, parent, name, nodeAtomic, inputPorts, outputPorts)
}

// AddCoupledModel registers a new coupled model as a child of parent.
func (g *ModelGraph) AddCoupledModel(parent ModelID, name string, inputPorts, outputPorts []PortName) (ModelID, error) {
	id := g.allocID()
	if err := g.addNode(id, parent, name, nodeCoupled, inputPorts, outputPorts); err != nil {
		return 0, err
	}
	g.coupled[id] = newCoupledModel()
	return id, nil
}

func (g *ModelGraph) addNode(id, parent ModelID, name string, kind nodeKind, inputPorts, outputPorts []PortName) error {
	pnode, ok := g.nodes[parent]
	if !ok || pnode.kind != nodeCoupled {
		return structuralErr("parent model %s is not a coupled model", parent)
	}
	for child := range g.coupled[parent].children {
		if g.nodes[child].name == name {
			return structuralErr("duplicate simulator name %q under parent %s", name, parent)
		}
	}
	in := make(map[PortName]bool, len(inputPorts))
	for _, p := range inputPorts {
		in[p] = true
	}
	out := make(map[PortName]bool, len(outputPorts))
	for _, p := range outputPorts {
		out[p] = true
	}
	g.nodes[id] = &graphNode{id: id, kind: kind, name: name, parent: parent, hasParent: true, inputPorts: in, outputPorts: out}
	g.coupled[parent].children[id] = true
	return nil
}

// RemoveModel detaches id from its parent and, if id is coupled, discards
// its subtree registration (callers are responsible for recursively
// removing any atomic descendants' Simulators first).
func (g *ModelGraph) RemoveModel(id ModelID) error {
	n, ok := g.nodes[id]
	if !ok {
		return structuralErr("model %s does not exist", id)
	}
	if n.hasParent {
		delete(g.coupled[n.parent].children, id)
		g.removeConnectionsInvolving(n.parent, id)
	}
	delete(g.nodes, id)
	delete(g.coupled, id)
	return nil
}

func (g *ModelGraph) removeConnectionsInvolving(parent, id ModelID) {
	pc := g.coupled[parent]
	for k, dsts := range pc.internal {
		if k.node == id {
			delete(pc.internal, k)
			continue
		}
		kept := dsts[:0]
		for _, d := range dsts {
			if d.node != id {
				kept = append(kept, d)
			}
		}
		pc.internal[k] = kept
	}
	for port, dsts := range pc.inputCoupling {
		kept := dsts[:0]
		for _, d := range dsts {
			if d.node != id {
				kept = append(kept, d)
			}
		}
		pc.inputCoupling[port] = kept
	}
	for k, port := range pc.outputCoupling {
		if k.node == id {
			delete(pc.outputCoupling, k)
			_ = port
		}
	}
}

func structuralErr(format string, args ...any) error {
	return kernerr.New(kernerr.StructuralError, 0, 0, "", fmt.Errorf(format, args...))
}

// validatePort reports a StructuralError if id has no declared port named
// name in the given direction set.
func (g *ModelGraph) validatePort(id ModelID, name PortName, ports map[PortName]bool) error {
	if !ports[name] {
		return structuralErr("model %s has no port %q", id, name)
	}
	return nil
}

// Connect wires srcChild's output port to dstChild's input port as an
// internal coupling of parent. Both must be children of parent; a
// self-loop (srcChild == dstChild) is rejected immediately.
func (g *ModelGraph) Connect(parent, srcChild ModelID, srcPort PortName, dstChild ModelID, dstPort PortName) error {
	if srcChild == dstChild {
		return structuralErr("self-loop: model %s cannot connect to itself", srcChild)
	}
	pc, ok := g.coupled[parent]
	if !ok {
		return structuralErr("parent model %s is not a coupled model", parent)
	}
	if !pc.children[srcChild] || !pc.children[dstChild] {
		return structuralErr("connect: both endpoints must be children of %s", parent)
	}
	src, dst := g.nodes[srcChild], g.nodes[dstChild]
	if err := g.validatePort(srcChild, srcPort, src.outputPorts); err != nil {
		return err
	}
	if err := g.validatePort(dstChild, dstPort, dst.inputPorts); err != nil {
		return err
	}
	key := connKey{srcChild, srcPort}
	pc.internal[key] = append(pc.internal[key], connKey{dstChild, dstPort})
	return nil
}

// Disconnect removes a previously-added internal coupling. Leaves the
// graph equal to its state before the matching Connect call.
func (g *ModelGraph) Disconnect(parent, srcChild ModelID, srcPort PortName, dstChild ModelID, dstPort PortName) error {
	pc, ok := g.coupled[parent]
	if !ok {
		return structuralErr("parent model %s is not a coupled model", parent)
	}
	key := connKey{srcChild, srcPort}
	dsts := pc.internal[key]
	for i, d := range dsts {
		if d.node == dstChild && d.port == dstPort {
			pc.internal[key] = append(dsts[:i], dsts[i+1:]...)
			return nil
		}
	}
	return structuralErr("no such connection %s.%s -> %s.%s", srcChild, srcPort, dstChild, dstPort)
}

// ConnectInput forwards parent's own input port to dstChild's input port.
func (g *ModelGraph) ConnectInput(parent ModelID, parentPort PortName, dstChild ModelID, dstPort PortName) error {
	pc, ok := g.coupled[parent]
	if !ok {
		return structuralErr("parent model %s is not a coupled model", parent)
	}
	if !pc.children[dstChild] {
		return structuralErr("connect-input: %s is not a child of %s", dstChild, parent)
	}
	if err := g.validatePort(parent, parentPort, g.nodes[parent].inputPorts); err != nil {
		return err
	}
	dst := g.nodes[dstChild]
	if err := g.validatePort(dstChild, dstPort, dst.inputPorts); err != nil {
		return err
	}
	pc.inputCoupling[parentPort] = append(pc.inputCoupling[parentPort], connKey{dstChild, dstPort})
	return nil
}

// ConnectOutput forwards srcChild's output port to parent's own output
// port.
func (g *ModelGraph) ConnectOutput(parent, srcChild ModelID, srcPort PortName, parentPort PortName) error {
	pc, ok := g.coupled[parent]
	if !ok {
		return structuralErr("parent model %s is not a coupled model", parent)
	}
	if !pc.children[srcChild] {
		return structuralErr("connect-output: %s is not a child of %s", srcChild, parent)
	}
	src := g.nodes[srcChild]
	if err := g.validatePort(srcChild, srcPort, src.outputPorts); err != nil {
		return err
	}
	if err := g.validatePort(parent, parentPort, g.nodes[parent].outputPorts); err != nil {
		return err
	}
	pc.outputCoupling[connKey{srcChild, srcPort}] = parentPort
	return nil
}

// Resolve walks the connection tables starting from an atomic model firing
// an output port, descending into and bubbling out of coupled models as
// needed, and returns the final atomic (simulator, port) destinations.
// Cycles in the connection graph (permitted by spec.md §4.6) are broken by
// a per-call visited set.
func (g *ModelGraph) Resolve(fromAtomic ModelID, fromPort PortName) []Port {
	var out []Port
	seen := make(map[connKey]bool)
	g.resolveFrom(fromAtomic, fromPort, &out, seen)
	return out
}

func (g *ModelGraph) resolveFrom(nodeID ModelID, port PortName, out *[]Port, seen map[connKey]bool) {
	key := connKey{nodeID, port}
	if seen[key] {
		return
	}
	seen[key] = true

	n, ok := g.nodes[nodeID]
	if !ok || !n.hasParent {
		return
	}
	parent := g.coupled[n.parent]

	for _, dst := range parent.internal[key] {
		g.expand(dst.node, dst.port, out, seen)
	}
	if parentPort, ok := parent.outputCoupling[key]; ok && n.parent != g.root {
		g.resolveFrom(n.parent, parentPort, out, seen)
	}
}

func (g *ModelGraph) expand(nodeID ModelID, port PortName, out *[]Port, seen map[connKey]bool) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return
	}
	if n.kind == nodeAtomic {
		*out = append(*out, Port{Simulator: n.id, Name: port})
		return
	}
	key := connKey{nodeID, port}
	if seen[key] {
		return
	}
	seen[key] = true
	for _, dst := range g.coupled[nodeID].inputCoupling[port] {
		g.expand(dst.node, dst.port, out, seen)
	}
}

// Name returns the human-readable name of a node, or "" if unknown.
func (g *ModelGraph) Name(id ModelID) string {
	if n, ok := g.nodes[id]; ok {
		return n.name
	}
	return ""
}

// Path returns the dotted path of a node from the root, e.g. "top.gen1".
func (g *ModelGraph) Path(id ModelID) string {
	n, ok := g.nodes[id]
	if !ok {
		return ""
	}
	if !n.hasParent {
		return n.name
	}
	return g.Path(n.parent) + "." + n.name
}

// AddInputPort / AddOutputPort / RemoveInputPort / RemoveOutputPort let an
// Executive extend or shrink a model's declared port set (spec.md §4.5).
func (g *ModelGraph) AddInputPort(id ModelID, name PortName) error {
	n, ok := g.nodes[id]
	if !ok {
		return structuralErr("model %s does not exist", id)
	}
	n.inputPorts[name] = true
	return nil
}

func (g *ModelGraph) AddOutputPort(id ModelID, name PortName) error {
	n, ok := g.nodes[id]
	if !ok {
		return structuralErr("model %s does not exist", id)
	}
	n.outputPorts[name] = true
	return nil
}

func (g *ModelGraph) RemoveInputPort(id ModelID, name PortName) error {
	n, ok := g.nodes[id]
	if !ok {
		return structuralErr("model %s does not exist", id)
	}
	delete(n.inputPorts, name)
	return nil
}

func (g *ModelGraph) RemoveOutputPort(id ModelID, name PortName) error {
	n, ok := g.nodes[id]
	if !ok {
		return structuralErr("model %s does not exist", id)
	}
	delete(n.outputPorts, name)
	return nil
}
