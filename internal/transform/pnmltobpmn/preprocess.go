// Package pnmltobpmn implements the workflow-net to BPMN pipeline:
// normalization of dangling transitions, recognition of operator clusters,
// triggers and subprocesses, the main structural translation and the
// silent-task and redundant-gateway cleanup.
package pnmltobpmn

import (
	"sort"

	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/pnml"
	"github.com/woped/model-transformer/internal/transform/util"
)

// ApplyPreprocessing runs the given passes over the net and, first, every
// nested page.
func ApplyPreprocessing(net *pnml.Net, passes []func(*pnml.Net) error) error {
	for _, page := range net.SortedPages() {
		if err := ApplyPreprocessing(page.Net, passes); err != nil {
			return err
		}
	}
	for _, pass := range passes {
		if err := pass(net); err != nil {
			return err
		}
	}
	return nil
}

// ─── Pass 1: dangling transitions ───

// AddPlacesAtDanglingTransitions gives every transition without incoming
// arcs a synthetic source place and every transition without outgoing arcs a
// synthetic sink place, so later stages can treat all transitions uniformly.
func AddPlacesAtDanglingTransitions(net *pnml.Net) error {
	for _, t := range net.Transitions() {
		if net.InDegree(t) == 0 {
			p := net.AddElement(pnml.NewPlace("source_" + t.ID))
			net.AddArc(p.ID, t.ID)
		}
		if net.OutDegree(t) == 0 {
			p := net.AddElement(pnml.NewPlace("sink_" + t.ID))
			net.AddArc(t.ID, p.ID)
		}
	}
	return nil
}

// ─── Pass 2: workflow operators ───

// workflowOperatorCluster groups the elements sharing one operator id
// together with the arcs crossing the cluster boundary.
type workflowOperatorCluster struct {
	id   string
	typ  pnml.OperatorType
	name *string

	nodes []*pnml.Element

	incomingArcs []*pnml.Arc // arcs from non-cluster elements into the cluster
	outgoingArcs []*pnml.Arc // arcs from the cluster to non-cluster elements
	allArcs      []*pnml.Arc // every arc touching a cluster element
}

// findWorkflowOperators identifies the operator clusters of the net. A
// cluster member without an operator reference is an internal fault, not bad
// user input.
func findWorkflowOperators(net *pnml.Net) ([]*workflowOperatorCluster, error) {
	byID := make(map[string]*workflowOperatorCluster)
	var order []string

	for _, e := range net.Elements() {
		if !e.IsWorkflowOperator() {
			continue
		}
		op := e.Toolspecific.Operator
		if op.ID == "" {
			return nil, errs.Internalf("element %q carries an operator block without an operator id", e.ID)
		}
		c, ok := byID[op.ID]
		if !ok {
			c = &workflowOperatorCluster{id: op.ID, typ: op.Type, name: e.GetName()}
			byID[op.ID] = c
			order = append(order, op.ID)
		}
		c.nodes = append(c.nodes, e)
	}
	sort.Strings(order)

	clusters := make([]*workflowOperatorCluster, 0, len(order))
	for _, id := range order {
		c := byID[id]
		member := make(map[string]bool, len(c.nodes))
		for _, n := range c.nodes {
			member[n.ID] = true
		}
		for _, n := range c.nodes {
			for _, a := range net.GetIncoming(n.ID) {
				c.allArcs = append(c.allArcs, a)
				if !member[a.Source] {
					c.incomingArcs = append(c.incomingArcs, a)
				}
			}
			for _, a := range net.GetOutgoing(n.ID) {
				c.allArcs = append(c.allArcs, a)
				if !member[a.Target] {
					c.outgoingArcs = append(c.outgoingArcs, a)
				}
			}
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

// HandleWorkflowOperators replaces every operator cluster with a single
// gateway pseudo-node that keeps the cluster's type and its external
// neighbourhood.
func HandleWorkflowOperators(net *pnml.Net) error {
	clusters, err := findWorkflowOperators(net)
	if err != nil {
		return err
	}

	for _, c := range clusters {
		for _, a := range c.allArcs {
			net.RemoveArc(a)
		}
		for _, n := range c.nodes {
			net.RemoveElement(n)
		}

		helper := &pnml.Element{Kind: pnml.KindGatewayHelper, ID: c.id, Name: c.name}
		helper.SetOperator(c.id, c.typ, 1)
		net.AddElement(helper)

		for _, a := range c.incomingArcs {
			net.AddArc(a.Source, helper.ID)
		}
		for _, a := range c.outgoingArcs {
			net.AddArc(helper.ID, a.Target)
		}
	}
	return nil
}

// ─── Pass 3: named AND splits ───

// SplitNamedAndSplits decomposes every named transition that behaves as a
// plain AND split into a named task followed by a silent split transition,
// so the name survives as a task in the target BPMN.
func SplitNamedAndSplits(net *pnml.Net) error {
	for _, t := range net.Transitions() {
		if t.Name == nil || t.IsWorkflowOperator() || t.IsWorkflowSubprocess() {
			continue
		}
		if net.InDegree(t) != 1 || net.OutDegree(t) <= 1 {
			continue
		}

		splitID := t.ID + "_split"
		split := net.AddElement(pnml.NewTransition(splitID, nil))
		between := net.AddElement(pnml.NewPlace(util.SilentNodeName(t.ID, splitID)))

		for _, a := range net.GetOutgoingAndRemoveArcs(t) {
			net.AddArc(split.ID, a.Target)
		}
		net.AddArc(t.ID, between.ID)
		net.AddArc(between.ID, split.ID)
	}
	return nil
}

// ─── Pass 4: event triggers ───

// SplitEventTriggers decomposes every event-triggered transition into a
// trigger pseudo-node feeding the now untriggered task transition.
func SplitEventTriggers(net *pnml.Net) error {
	for _, t := range net.Transitions() {
		if !t.IsWorkflowTrigger() {
			continue
		}

		trigger := *t.Toolspecific.Trigger
		helper := &pnml.Element{
			Kind:         pnml.KindTriggerHelper,
			ID:           t.ID + "_trigger",
			Toolspecific: &pnml.Toolspecific{Trigger: &trigger},
		}
		net.AddElement(helper)

		for _, a := range net.GetIncomingAndRemoveArcs(t) {
			net.AddArc(a.Source, helper.ID)
		}
		between := net.AddElement(pnml.NewPlace(util.SilentNodeName(helper.ID, t.ID)))
		net.AddArc(helper.ID, between.ID)
		net.AddArc(between.ID, t.ID)

		t.ClearTrigger()
	}
	return nil
}
