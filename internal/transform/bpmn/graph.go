package bpmn

import (
	"sort"

	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/util"
)

// Process is a container node owning flow nodes, sequence flows, lane sets
// and nested subprocesses. It maintains incoming/outgoing flow indices per
// node id; every mutation goes through the methods below so the indices stay
// consistent with the flow set.
type Process struct {
	ID   string
	Name *string

	nodes map[string]*Node
	flows map[string]*Flow

	incoming map[string][]*Flow
	outgoing map[string][]*Flow

	LaneSets []*LaneSet

	// ParticipantMapping maps node id to lane name. Derived by the
	// bpmntopnml participant pass; shared with nested subprocesses.
	ParticipantMapping map[string]string
}

// NewProcess returns an empty process with the given id.
func NewProcess(id string) *Process {
	return &Process{
		ID:       id,
		nodes:    make(map[string]*Node),
		flows:    make(map[string]*Flow),
		incoming: make(map[string][]*Flow),
		outgoing: make(map[string][]*Flow),
	}
}

// AddNode inserts n and returns it. An existing node with the same id is
// replaced.
func (p *Process) AddNode(n *Node) *Node {
	p.nodes[n.ID] = n
	return n
}

// GetNode returns the node with the given id, or nil.
func (p *Process) GetNode(id string) *Node {
	return p.nodes[id]
}

// Nodes returns all nodes of this process (not recursing into subprocesses),
// sorted by id.
func (p *Process) Nodes() []*Node {
	out := make([]*Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Subprocesses returns the directly nested processes, sorted by id.
func (p *Process) Subprocesses() []*Process {
	var out []*Process
	for _, n := range p.nodes {
		if n.Sub != nil {
			out = append(out, n.Sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddFlow connects source to target with the given id. An empty id defaults
// to the content-addressed arc name. Adding a flow whose id already exists
// returns the existing flow unchanged.
func (p *Process) AddFlow(source, target *Node, id string) *Flow {
	if id == "" {
		id = util.ArcName(source.ID, target.ID)
	}
	if f, ok := p.flows[id]; ok {
		return f
	}
	f := &Flow{ID: id, SourceRef: source.ID, TargetRef: target.ID}
	p.insertFlow(f)
	return f
}

// insertFlow registers a fully populated flow in the flow set and both
// indices.
func (p *Process) insertFlow(f *Flow) {
	p.flows[f.ID] = f
	p.outgoing[f.SourceRef] = append(p.outgoing[f.SourceRef], f)
	p.incoming[f.TargetRef] = append(p.incoming[f.TargetRef], f)
}

// HasFlow reports whether a flow with the given id exists.
func (p *Process) HasFlow(id string) bool {
	_, ok := p.flows[id]
	return ok
}

// GetFlow returns the flow with the given id, or nil.
func (p *Process) GetFlow(id string) *Flow {
	return p.flows[id]
}

// Flows returns all flows sorted by id.
func (p *Process) Flows() []*Flow {
	out := make([]*Flow, 0, len(p.flows))
	for _, f := range p.flows {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveFlow deletes f from the flow set and both indices.
func (p *Process) RemoveFlow(f *Flow) {
	delete(p.flows, f.ID)
	p.outgoing[f.SourceRef] = dropFlow(p.outgoing[f.SourceRef], f.ID)
	p.incoming[f.TargetRef] = dropFlow(p.incoming[f.TargetRef], f.ID)
}

// RerouteSource points f at a new source node, keeping the indices intact.
func (p *Process) RerouteSource(f *Flow, source *Node) {
	p.outgoing[f.SourceRef] = dropFlow(p.outgoing[f.SourceRef], f.ID)
	f.SourceRef = source.ID
	p.outgoing[f.SourceRef] = append(p.outgoing[f.SourceRef], f)
}

// RerouteTarget points f at a new target node.
func (p *Process) RerouteTarget(f *Flow, target *Node) {
	p.incoming[f.TargetRef] = dropFlow(p.incoming[f.TargetRef], f.ID)
	f.TargetRef = target.ID
	p.incoming[f.TargetRef] = append(p.incoming[f.TargetRef], f)
}

func dropFlow(flows []*Flow, id string) []*Flow {
	for i, f := range flows {
		if f.ID == id {
			return append(flows[:i], flows[i+1:]...)
		}
	}
	return flows
}

// RemoveNode deletes n from the node set. Flows touching n are not removed;
// callers use RemoveNodeWithConnectingFlows when splicing.
func (p *Process) RemoveNode(n *Node) {
	delete(p.nodes, n.ID)
}

// Incoming returns the flows targeting the node id, sorted by flow id.
func (p *Process) Incoming(id string) []*Flow {
	return sortedFlows(p.incoming[id])
}

// Outgoing returns the flows originating at the node id, sorted by flow id.
func (p *Process) Outgoing(id string) []*Flow {
	return sortedFlows(p.outgoing[id])
}

func sortedFlows(flows []*Flow) []*Flow {
	out := make([]*Flow, len(flows))
	copy(out, flows)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InDegree returns the number of flows targeting n.
func (p *Process) InDegree(n *Node) int { return len(p.incoming[n.ID]) }

// OutDegree returns the number of flows originating at n.
func (p *Process) OutDegree(n *Node) int { return len(p.outgoing[n.ID]) }

// RemoveNodeWithConnectingFlows removes n together with its single incoming
// and single outgoing flow and returns the spliced endpoint ids. The
// operation is transactional: when the degree precondition is violated
// nothing is mutated.
func (p *Process) RemoveNodeWithConnectingFlows(n *Node) (string, string, error) {
	if p.InDegree(n) != 1 || p.OutDegree(n) != 1 {
		return "", "", errs.Internalf(
			"node %q must have exactly one incoming and one outgoing flow, got %d/%d",
			n.ID, p.InDegree(n), p.OutDegree(n))
	}
	in := p.incoming[n.ID][0]
	out := p.outgoing[n.ID][0]
	p.RemoveFlow(in)
	p.RemoveFlow(out)
	p.RemoveNode(n)
	return in.SourceRef, out.TargetRef, nil
}
