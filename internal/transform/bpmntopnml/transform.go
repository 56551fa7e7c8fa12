package bpmntopnml

import (
	"log/slog"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/pnml"
	"github.com/woped/model-transformer/internal/transform/util"
)

// DefaultOrganization is used when the model carries no pool participant.
const DefaultOrganization = "Default"

// Transform runs the full BPMN to workflow-net pipeline: participant
// mapping, preprocessing, structural translation and the trigger-merge
// postprocess.
func Transform(defs *bpmn.Definitions) (*pnml.Pnml, error) {
	if err := CreateParticipantMapping(defs.Process); err != nil {
		return nil, err
	}

	if err := ApplyPreprocessing(defs.Process, []func(*bpmn.Process) error{
		ReplaceInclusiveGateways,
		PreprocessGateways,
		InsertAdjacentSeparators,
	}); err != nil {
		return nil, err
	}

	organization := DefaultOrganization
	if org := defs.Organization(); org != nil {
		organization = *org
	}

	doc, err := transformProcess(defs.Process, organization)
	if err != nil {
		return nil, err
	}
	SetGlobalToolspecific(doc.Net, defs.Process.ParticipantMapping, organization)
	return doc, nil
}

// transformProcess translates one preprocessed process into a net; it calls
// itself for nested subprocesses.
func transformProcess(p *bpmn.Process, organization string) (*pnml.Pnml, error) {
	doc := pnml.GenerateEmptyNet(p.ID)
	net := doc.Net

	slog.Debug("transforming process", "process", p.ID, "nodes", len(p.Nodes()), "flows", len(p.Flows()))

	// Partition the nodes: subprocesses, branching gateways and catch events
	// get dedicated handling; user tasks additionally receive a resource
	// annotation after translation.
	var subprocesses, gateways, triggers, userTasks []*bpmn.Node

	for _, n := range p.Nodes() {
		switch {
		case n.Type == bpmn.TypeSubprocess:
			subprocesses = append(subprocesses, n)
			continue
		case n.Type == bpmn.TypeXorGateway, n.Type == bpmn.TypeAndGateway, n.Type == bpmn.TypeOrGateway:
			gateways = append(gateways, n)
			continue
		case n.Type == bpmn.TypeIntermediateCatchEvent:
			triggers = append(triggers, n)
			continue
		}
		if n.Type == bpmn.TypeUserTask {
			userTasks = append(userTasks, n)
		}

		switch n.Type {
		case bpmn.TypeTask, bpmn.TypeUserTask, bpmn.TypeServiceTask:
			net.AddElement(pnml.NewTransition(n.ID, transitionName(p, n)))
		case bpmn.TypeStartEvent, bpmn.TypeEndEvent, bpmn.TypeEventGateway, bpmn.TypeGeneric:
			net.AddElement(pnml.NewPlace(n.ID))
		default:
			return nil, errs.Internalf("node kind %s not supported", n.Type)
		}
	}

	if err := handleSubprocesses(net, p, subprocesses, organization); err != nil {
		return nil, err
	}
	handleTriggers(net, p, triggers)
	if err := handleGateways(net, p, gateways); err != nil {
		return nil, err
	}
	handleResourceAnnotations(net, userTasks, p.ParticipantMapping, organization)

	// Remaining flows: both endpoints are net elements by now; a flow whose
	// endpoints map to the same kind gets a silent node of the opposite kind
	// spliced in.
	for _, f := range p.Flows() {
		source := net.GetElement(f.SourceRef)
		target := net.GetElement(f.TargetRef)
		if source == nil || target == nil {
			continue
		}
		switch {
		case source.IsPlaceLike() && target.IsPlaceLike():
			t := net.AddElement(pnml.NewTransition(util.SilentNodeName(source.ID, target.ID), nil))
			net.AddArc(source.ID, t.ID)
			net.AddArc(t.ID, target.ID)
		case !source.IsPlaceLike() && !target.IsPlaceLike():
			pl := net.AddElement(pnml.NewPlace(util.SilentNodeName(source.ID, target.ID)))
			net.AddArc(source.ID, pl.ID)
			net.AddArc(pl.ID, target.ID)
		default:
			net.AddArc(source.ID, target.ID)
		}
	}

	MergeSingleTriggers(net)

	return doc, nil
}

// transitionName derives the transition name of a task node: subtype
// prefixes are applied, and an unnamed node with no branching becomes
// silent.
func transitionName(p *bpmn.Process, n *bpmn.Node) *string {
	base := ""
	if n.Name != nil {
		base = *n.Name
	}
	switch n.Type {
	case bpmn.TypeUserTask:
		return pnml.Strptr("[UserTask] " + base)
	case bpmn.TypeServiceTask:
		return pnml.Strptr("[ServiceTask] " + base)
	}
	if base == "" && p.InDegree(n) <= 1 && p.OutDegree(n) <= 1 {
		return nil
	}
	return pnml.Strptr(base)
}

// handleSubprocesses translates every subprocess recursively into a page and
// replaces the node with a subprocess transition. The page net is bracketed
// with source and sink places named after the outer places, connected to the
// inner start and end through silent transitions.
func handleSubprocesses(net *pnml.Net, p *bpmn.Process, subprocesses []*bpmn.Node, organization string) error {
	for _, sp := range subprocesses {
		in := p.Incoming(sp.ID)
		out := p.Outgoing(sp.ID)
		if len(in) != 1 || len(out) != 1 {
			return errs.Internalf(
				"subprocess %q must have exactly one incoming and one outgoing flow, got %d/%d",
				sp.ID, len(in), len(out))
		}

		innerDoc, err := transformProcess(sp.Sub, organization)
		if err != nil {
			return err
		}

		t := net.AddElement(pnml.NewTransition(sp.ID, sp.Name))
		t.MarkAsWorkflowSubprocess()

		src := p.GetNode(in[0].SourceRef)
		tgt := p.GetNode(out[0].TargetRef)
		outerIn := src.ID
		if !mapsToPlaceKind(p, src) {
			outerIn = util.SilentNodeName(src.ID, sp.ID)
		}
		outerOut := tgt.ID
		if !mapsToPlaceKind(p, tgt) {
			outerOut = util.SilentNodeName(sp.ID, tgt.ID)
		}

		bracketInnerNet(innerDoc.Net, outerIn, outerOut)
		net.AddPage(&pnml.Page{ID: sp.ID, Net: innerDoc.Net})
	}
	return nil
}

// bracketInnerNet adds the page's source and sink places, mirroring the ids
// of the outer places of the subprocess transition.
func bracketInnerNet(inner *pnml.Net, sourceID, sinkID string) {
	var starts, ends []*pnml.Element
	for _, pl := range inner.Places() {
		if pl.ID == sourceID || pl.ID == sinkID {
			continue
		}
		if inner.InDegree(pl) == 0 {
			starts = append(starts, pl)
		}
		if inner.OutDegree(pl) == 0 {
			ends = append(ends, pl)
		}
	}

	source := inner.AddElement(pnml.NewPlace(sourceID))
	for _, s := range starts {
		t := inner.AddElement(pnml.NewTransition(util.SilentNodeName(source.ID, s.ID), nil))
		inner.AddArc(source.ID, t.ID)
		inner.AddArc(t.ID, s.ID)
	}
	sink := inner.AddElement(pnml.NewPlace(sinkID))
	for _, e := range ends {
		t := inner.AddElement(pnml.NewTransition(util.SilentNodeName(e.ID, sink.ID), nil))
		inner.AddArc(e.ID, t.ID)
		inner.AddArc(t.ID, sink.ID)
	}
}

// handleTriggers emits one transition per intermediate catch event, carrying
// the matching trigger annotation.
func handleTriggers(net *pnml.Net, p *bpmn.Process, triggers []*bpmn.Node) {
	for _, n := range triggers {
		t := net.AddElement(pnml.NewTransition(n.ID, transitionName(p, n)))
		switch n.Trigger {
		case bpmn.TriggerMessage:
			t.SetTrigger(pnml.TriggerMessage)
		case bpmn.TriggerTime:
			t.SetTrigger(pnml.TriggerTime)
		case bpmn.TriggerResource:
			t.SetTrigger(pnml.TriggerResource)
		}
	}
}

// handleResourceAnnotations attaches the lane role and organization to every
// user task transition found in the participant mapping.
func handleResourceAnnotations(net *pnml.Net, userTasks []*bpmn.Node, mapping map[string]string, organization string) {
	for _, ut := range userTasks {
		lane, ok := mapping[ut.ID]
		if !ok {
			continue
		}
		if t := net.GetElement(ut.ID); t != nil {
			t.SetResource(lane, organization)
		}
	}
}
