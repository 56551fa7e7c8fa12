package bpmntopnml

import (
	"sort"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/util"
)

// ApplyPreprocessing runs the given passes over the process tree, innermost
// subprocesses first, so that every container is normalized before its parent
// is translated.
func ApplyPreprocessing(p *bpmn.Process, passes []func(*bpmn.Process) error) error {
	for _, sub := range p.Subprocesses() {
		if err := ApplyPreprocessing(sub, passes); err != nil {
			return err
		}
	}
	for _, pass := range passes {
		if err := pass(p); err != nil {
			return err
		}
	}
	return nil
}

// mapsToTransitionKind reports whether the node translates to a transition
// that carries the node's identity (tasks, subprocesses, catch events).
// Gateways are excluded: operator clusters do their own splicing.
func mapsToTransitionKind(n *bpmn.Node) bool {
	switch n.Type {
	case bpmn.TypeTask, bpmn.TypeUserTask, bpmn.TypeServiceTask,
		bpmn.TypeSubprocess, bpmn.TypeIntermediateCatchEvent:
		return true
	}
	return false
}

// mapsToPlaceKind reports whether the node translates to a place with the
// node's id. Trivial exclusive and inclusive gateways (no branching on either
// side) degrade to a plain place as well.
func mapsToPlaceKind(p *bpmn.Process, n *bpmn.Node) bool {
	switch n.Type {
	case bpmn.TypeStartEvent, bpmn.TypeEndEvent, bpmn.TypeEventGateway, bpmn.TypeGeneric:
		return true
	case bpmn.TypeXorGateway, bpmn.TypeOrGateway:
		return p.InDegree(n) <= 1 && p.OutDegree(n) <= 1
	}
	return false
}

// ─── Pass 1: inclusive gateways ───

// ReplaceInclusiveGateways expands every paired OR split/join structure into
// an AND block whose branches each pass through a take-or-skip XOR pair, so
// the observable behavior covers every non-empty subset of branches. The
// expansion only supports paired structures; anything else is rejected.
func ReplaceInclusiveGateways(p *bpmn.Process) error {
	var orGateways []*bpmn.Node
	for _, n := range p.Nodes() {
		if n.Type == bpmn.TypeOrGateway {
			orGateways = append(orGateways, n)
		}
	}
	if len(orGateways) == 0 {
		return nil
	}

	// Combined OR gateways are split into a join side and a split side
	// first, so the pairing below only sees pure splits and joins.
	for _, g := range orGateways {
		if p.InDegree(g) > 1 && p.OutDegree(g) > 1 {
			split := p.AddNode(&bpmn.Node{Type: bpmn.TypeOrGateway, ID: g.ID + "_split", Name: g.Name})
			for _, f := range p.Outgoing(g.ID) {
				p.RerouteSource(f, split)
			}
			p.AddFlow(g, split, "")
			orGateways = append(orGateways, split)
		}
	}
	sort.Slice(orGateways, func(i, j int) bool { return orGateways[i].ID < orGateways[j].ID })

	for _, g := range orGateways {
		if g.Type != bpmn.TypeOrGateway || p.OutDegree(g) <= 1 {
			continue
		}
		if err := expandInclusiveSplit(p, g); err != nil {
			return err
		}
	}

	// Whatever is still an OR gateway was not part of a paired structure.
	for _, n := range p.Nodes() {
		if n.Type != bpmn.TypeOrGateway {
			continue
		}
		if p.InDegree(n) <= 1 && p.OutDegree(n) <= 1 {
			// A pass-through OR carries no branching semantics.
			n.Type = bpmn.TypeXorGateway
			continue
		}
		return errs.Internalf("inclusive gateway %q has no paired counterpart", n.ID)
	}
	return nil
}

// expandInclusiveSplit rewrites one OR split together with its paired join.
func expandInclusiveSplit(p *bpmn.Process, g *bpmn.Node) error {
	branches := p.Outgoing(g.ID)

	var join *bpmn.Node
	arrivals := make(map[string]*bpmn.Flow, len(branches))
	for _, f := range branches {
		j, arr, err := findInclusiveJoin(p, f)
		if err != nil {
			return err
		}
		if join == nil {
			join = j
		} else if join != j {
			return errs.Internalf("inclusive gateway %q pairs with more than one join", g.ID)
		}
		arrivals[f.ID] = arr
	}
	if join == nil {
		return errs.Internalf("inclusive gateway %q has no paired counterpart", g.ID)
	}

	g.Type = bpmn.TypeAndGateway
	join.Type = bpmn.TypeAndGateway

	for _, f := range branches {
		arrival := arrivals[f.ID]

		take := p.AddNode(&bpmn.Node{Type: bpmn.TypeXorGateway, ID: g.ID + "_xor_" + f.ID})
		merge := p.AddNode(&bpmn.Node{Type: bpmn.TypeXorGateway, ID: join.ID + "_xor_" + f.ID})

		p.RerouteSource(f, take)
		p.AddFlow(g, take, "")
		p.RerouteTarget(arrival, merge)
		p.AddFlow(merge, join, "")
		p.AddFlow(take, merge, "") // skip edge
	}
	return nil
}

// findInclusiveJoin follows the branch forward until it reaches the OR join
// closing the structure. Nested OR blocks on the way are skipped by depth
// counting. The returned flow is the one entering the join on this branch.
func findInclusiveJoin(p *bpmn.Process, start *bpmn.Flow) (*bpmn.Node, *bpmn.Flow, error) {
	type step struct {
		flow  *bpmn.Flow
		depth int
	}

	queue := []step{{flow: start}}
	visited := map[string]bool{start.ID: true}

	var join *bpmn.Node
	var arrival *bpmn.Flow

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		tgt := p.GetNode(cur.flow.TargetRef)
		if tgt == nil {
			continue
		}

		depth := cur.depth
		if tgt.Type == bpmn.TypeOrGateway && p.InDegree(tgt) > 1 {
			if depth == 0 {
				if join != nil && (join != tgt || arrival != cur.flow) {
					return nil, nil, errs.Internalf(
						"inclusive branch through flow %q reaches join %q on more than one path", start.ID, tgt.ID)
				}
				join = tgt
				arrival = cur.flow
				continue
			}
			depth--
		}
		if tgt.Type == bpmn.TypeOrGateway && p.OutDegree(tgt) > 1 {
			depth++
		}

		for _, f := range p.Outgoing(tgt.ID) {
			if !visited[f.ID] {
				visited[f.ID] = true
				queue = append(queue, step{flow: f, depth: depth})
			}
		}
	}

	if join == nil {
		return nil, nil, errs.Internalf("inclusive branch through flow %q reaches no join", start.ID)
	}
	return join, arrival, nil
}

// ─── Pass 2: combined gateways ───

// PreprocessGateways splits every gateway that both joins and splits into a
// join gateway and a split gateway of the same kind, connected through a
// silent intermediate node, so every operator has a single side.
func PreprocessGateways(p *bpmn.Process) error {
	for _, g := range p.Nodes() {
		if !g.IsGateway() || g.Type == bpmn.TypeEventGateway {
			continue
		}
		if p.InDegree(g) <= 1 || p.OutDegree(g) <= 1 {
			continue
		}

		split := p.AddNode(&bpmn.Node{Type: g.Type, ID: g.ID + "_split", Name: g.Name})
		temp := p.AddNode(&bpmn.Node{Type: bpmn.TypeGeneric, ID: util.SilentNodeName(g.ID, split.ID)})

		for _, f := range p.Outgoing(g.ID) {
			p.RerouteSource(f, split)
		}
		p.AddFlow(g, temp, "")
		p.AddFlow(temp, split, "")
	}
	return nil
}

// ─── Pass 3: adjacent separators ───

// InsertAdjacentSeparators splices a silent node of the opposite kind into
// every flow whose endpoints would both map to the same Petri-net kind.
func InsertAdjacentSeparators(p *bpmn.Process) error {
	for _, f := range p.Flows() {
		src := p.GetNode(f.SourceRef)
		tgt := p.GetNode(f.TargetRef)
		if src == nil || tgt == nil {
			continue
		}

		var sep *bpmn.Node
		switch {
		case mapsToTransitionKind(src) && mapsToTransitionKind(tgt):
			sep = &bpmn.Node{Type: bpmn.TypeGeneric, ID: util.SilentNodeName(src.ID, tgt.ID)}
		case mapsToPlaceKind(p, src) && mapsToPlaceKind(p, tgt):
			sep = &bpmn.Node{Type: bpmn.TypeTask, ID: util.SilentNodeName(src.ID, tgt.ID)}
		default:
			continue
		}

		sep = p.AddNode(sep)
		p.RemoveFlow(f)
		p.AddFlow(src, sep, "")
		p.AddFlow(sep, tgt, "")
	}
	return nil
}
