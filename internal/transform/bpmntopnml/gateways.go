package bpmntopnml

import (
	"fmt"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/pnml"
	"github.com/woped/model-transformer/internal/transform/util"
)

// handleGateways emits one workflow operator cluster per branching gateway.
// AND joins and splits become a single transition, XOR joins and splits one
// transition per branch sharing the operator id. Combined gateways (only
// reachable when preprocessing was skipped) become a two-transition cluster
// linked through a center place that carries the operator reference as well.
func handleGateways(net *pnml.Net, p *bpmn.Process, gateways []*bpmn.Node) error {
	// Trivial gateways degrade to plain places (XOR) or silent transitions
	// (AND); they are materialized first so operator clusters can attach to
	// them like to any other node.
	for _, g := range gateways {
		if p.InDegree(g) > 1 || p.OutDegree(g) > 1 {
			continue
		}
		switch g.Type {
		case bpmn.TypeXorGateway:
			net.AddElement(pnml.NewPlace(g.ID))
		case bpmn.TypeAndGateway:
			net.AddElement(pnml.NewTransition(g.ID, nil))
		default:
			return errs.Internalf("gateway kind %s not supported", g.Type)
		}
	}

	for _, g := range gateways {
		in := p.Incoming(g.ID)
		out := p.Outgoing(g.ID)
		if len(in) <= 1 && len(out) <= 1 {
			continue
		}

		switch {
		case len(in) <= 1 && len(out) > 1:
			if err := emitSplitCluster(net, p, g, in, out); err != nil {
				return err
			}
		case len(in) > 1 && len(out) <= 1:
			if err := emitJoinCluster(net, p, g, in, out); err != nil {
				return err
			}
		default:
			if err := emitCombinedCluster(net, p, g, in, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// operatorKinds returns the split and join operator types of a gateway kind.
func operatorKinds(g *bpmn.Node) (split, join, combined pnml.OperatorType, err error) {
	switch g.Type {
	case bpmn.TypeXorGateway:
		return pnml.XorSplit, pnml.XorJoin, pnml.XorJoinSplit, nil
	case bpmn.TypeAndGateway:
		return pnml.AndSplit, pnml.AndJoin, pnml.AndJoinSplit, nil
	}
	return 0, 0, 0, errs.Internalf("gateway kind %s not supported", g.Type)
}

// inputPlaceID resolves the place feeding the cluster from the source node of
// an incoming flow, splicing a silent place when the neighbour maps to a
// transition. When the neighbour is already materialized as a transition in
// the net, the arc into the silent place is created here; a neighbouring
// cluster produces into the shared place through its own handler.
func inputPlaceID(net *pnml.Net, p *bpmn.Process, src *bpmn.Node, gatewayID string) string {
	if mapsToPlaceKind(p, src) {
		return src.ID
	}
	id := util.SilentNodeName(src.ID, gatewayID)
	net.AddElement(pnml.NewPlace(id))
	if e := net.GetElement(src.ID); e != nil && !e.IsPlaceLike() {
		net.AddArc(src.ID, id)
	}
	return id
}

// outputPlaceID is the outgoing counterpart of inputPlaceID.
func outputPlaceID(net *pnml.Net, p *bpmn.Process, gatewayID string, tgt *bpmn.Node) string {
	if mapsToPlaceKind(p, tgt) {
		return tgt.ID
	}
	id := util.SilentNodeName(gatewayID, tgt.ID)
	net.AddElement(pnml.NewPlace(id))
	if e := net.GetElement(tgt.ID); e != nil && !e.IsPlaceLike() {
		net.AddArc(id, tgt.ID)
	}
	return id
}

func operatorTransitionID(gatewayID string, position int) string {
	return fmt.Sprintf("%s_op_%d", gatewayID, position)
}

func emitSplitCluster(net *pnml.Net, p *bpmn.Process, g *bpmn.Node, in, out []*bpmn.Flow) error {
	splitType, _, _, err := operatorKinds(g)
	if err != nil {
		return err
	}

	var inPlace string
	if len(in) == 1 {
		inPlace = inputPlaceID(net, p, p.GetNode(in[0].SourceRef), g.ID)
	}

	if g.Type == bpmn.TypeAndGateway {
		t := net.AddElement(pnml.NewTransition(g.ID, g.Name))
		t.SetOperator(g.ID, splitType, 1)
		if inPlace != "" {
			net.AddArc(inPlace, t.ID)
		}
		for _, f := range out {
			net.AddArc(t.ID, outputPlaceID(net, p, g.ID, p.GetNode(f.TargetRef)))
		}
		return nil
	}

	// XOR split: one transition per branch, all sharing the operator id.
	for i, f := range out {
		t := net.AddElement(pnml.NewTransition(operatorTransitionID(g.ID, i+1), g.Name))
		t.SetOperator(g.ID, splitType, i+1)
		if inPlace != "" {
			net.AddArc(inPlace, t.ID)
		}
		net.AddArc(t.ID, outputPlaceID(net, p, g.ID, p.GetNode(f.TargetRef)))
	}
	return nil
}

func emitJoinCluster(net *pnml.Net, p *bpmn.Process, g *bpmn.Node, in, out []*bpmn.Flow) error {
	_, joinType, _, err := operatorKinds(g)
	if err != nil {
		return err
	}

	var outPlace string
	if len(out) == 1 {
		outPlace = outputPlaceID(net, p, g.ID, p.GetNode(out[0].TargetRef))
	}

	if g.Type == bpmn.TypeAndGateway {
		t := net.AddElement(pnml.NewTransition(g.ID, g.Name))
		t.SetOperator(g.ID, joinType, 1)
		for _, f := range in {
			net.AddArc(inputPlaceID(net, p, p.GetNode(f.SourceRef), g.ID), t.ID)
		}
		if outPlace != "" {
			net.AddArc(t.ID, outPlace)
		}
		return nil
	}

	// XOR join: one transition per incoming branch.
	for i, f := range in {
		t := net.AddElement(pnml.NewTransition(operatorTransitionID(g.ID, i+1), g.Name))
		t.SetOperator(g.ID, joinType, i+1)
		net.AddArc(inputPlaceID(net, p, p.GetNode(f.SourceRef), g.ID), t.ID)
		if outPlace != "" {
			net.AddArc(t.ID, outPlace)
		}
	}
	return nil
}

// emitCombinedCluster handles a gateway that both joins and splits: a join
// transition and a split transition share the operator id and are linked
// through a center place carrying the operator reference too.
func emitCombinedCluster(net *pnml.Net, p *bpmn.Process, g *bpmn.Node, in, out []*bpmn.Flow) error {
	_, _, combinedType, err := operatorKinds(g)
	if err != nil {
		return err
	}

	tJoin := net.AddElement(pnml.NewTransition(operatorTransitionID(g.ID, 1), g.Name))
	tJoin.SetOperator(g.ID, combinedType, 1)
	tSplit := net.AddElement(pnml.NewTransition(operatorTransitionID(g.ID, 2), g.Name))
	tSplit.SetOperator(g.ID, combinedType, 2)

	center := net.AddElement(pnml.NewPlace(g.ID + "_center"))
	center.SetOperator(g.ID, combinedType, 3)
	net.AddArc(tJoin.ID, center.ID)
	net.AddArc(center.ID, tSplit.ID)

	for _, f := range in {
		net.AddArc(inputPlaceID(net, p, p.GetNode(f.SourceRef), g.ID), tJoin.ID)
	}
	for _, f := range out {
		net.AddArc(tSplit.ID, outputPlaceID(net, p, g.ID, p.GetNode(f.TargetRef)))
	}
	return nil
}
