package pnmltobpmn

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/pnml"
	"github.com/woped/model-transformer/internal/transform/util"
)

// Transform runs the full workflow-net to BPMN pipeline: preprocessing over
// every net and page, the structural translation and the resource
// annotation.
func Transform(doc *pnml.Pnml) (*bpmn.Definitions, error) {
	net := doc.Net

	if err := ApplyPreprocessing(net, []func(*pnml.Net) error{
		AddPlacesAtDanglingTransitions,
		HandleWorkflowOperators,
		SplitNamedAndSplits,
		SplitEventTriggers,
	}); err != nil {
		return nil, err
	}

	defs, err := transformNet(net)
	if err != nil {
		return nil, err
	}

	annotateResources(net, defs.Process)
	if g := net.ToolspecificGlobal; g != nil && len(g.Resources.Units) > 0 {
		defs.Collaboration = &bpmn.Collaboration{
			ID: defs.Process.ID + "_collaboration",
			Participant: &bpmn.Participant{
				ID:         defs.Process.ID + "_participant",
				Name:       bpmn.Strptr(g.Resources.Units[0].Name),
				ProcessRef: defs.Process.ID,
			},
		}
	}

	return defs, nil
}

// transformNet translates one preprocessed net into a process; nested pages
// are translated by recursive invocation through the subprocess handler.
func transformNet(net *pnml.Net) (*bpmn.Definitions, error) {
	netID := net.ID
	if netID == "" {
		netID = "new_net"
	}
	defs := bpmn.GenerateEmptyBPMN(netID)
	proc := defs.Process

	slog.Debug("transforming net", "net", netID,
		"places", len(net.Places()), "transitions", len(net.Transitions()), "arcs", len(net.Arcs()))

	subprocesses := findWorkflowSubprocesses(net)
	isSubprocess := make(map[string]bool, len(subprocesses))
	for _, t := range subprocesses {
		isSubprocess[t.ID] = true
	}

	// Only plain low-degree transitions can become user tasks.
	var resources []*pnml.Element
	isResource := make(map[string]bool)
	for _, t := range net.Transitions() {
		if isSubprocess[t.ID] {
			continue
		}
		if t.IsWorkflowResource() && net.InDegree(t) <= 1 && net.OutDegree(t) <= 1 {
			resources = append(resources, t)
			isResource[t.ID] = true
		}
	}

	for _, place := range net.Places() {
		switch {
		case net.InDegree(place) == 0:
			proc.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: place.ID, Name: place.GetName()})
		case net.OutDegree(place) == 0:
			proc.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: place.ID, Name: place.GetName()})
		default:
			proc.AddNode(&bpmn.Node{Type: bpmn.TypeXorGateway, ID: place.ID, Name: place.GetName()})
		}
	}

	for _, t := range net.Transitions() {
		if isSubprocess[t.ID] || isResource[t.ID] {
			continue
		}
		in, out := net.InDegree(t), net.OutDegree(t)
		switch {
		case in == 0:
			proc.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: t.ID, Name: t.GetName()})
		case out == 0:
			proc.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: t.ID, Name: t.GetName()})
		case in == 1 && out == 1:
			kind, name := bpmn.TaskKindFromName(t.GetName())
			proc.AddNode(&bpmn.Node{Type: kind, ID: t.ID, Name: name})
		default:
			proc.AddNode(&bpmn.Node{Type: bpmn.TypeAndGateway, ID: t.ID, Name: t.GetName()})
		}
	}

	handleResourceTransitions(proc, resources)
	handleWorkflowOperators(proc, net.GatewayHelpers())
	handleEventTriggers(proc, net.TriggerHelpers())
	if err := handleWorkflowSubprocesses(net, proc, subprocesses); err != nil {
		return nil, err
	}

	for _, a := range net.Arcs() {
		source := proc.GetNode(a.Source)
		target := proc.GetNode(a.Target)
		if source == nil || target == nil {
			continue
		}
		proc.AddFlow(source, target, "")
	}

	if err := removeSilentTasks(proc); err != nil {
		return nil, err
	}
	if err := removeUnnecessaryGateways(proc); err != nil {
		return nil, err
	}

	return defs, nil
}

// findWorkflowSubprocesses returns the subprocess transitions of the net.
func findWorkflowSubprocesses(net *pnml.Net) []*pnml.Element {
	var out []*pnml.Element
	for _, t := range net.Transitions() {
		if t.IsWorkflowSubprocess() {
			out = append(out, t)
		}
	}
	return out
}

// handleResourceTransitions maps resource-annotated transitions to user
// tasks, stripping the task-kind prefix from the name.
func handleResourceTransitions(proc *bpmn.Process, resources []*pnml.Element) {
	for _, t := range resources {
		name := t.GetName()
		if name != nil {
			stripped := strings.TrimPrefix(*name, "[UserTask] ")
			if stripped == "" {
				name = nil
			} else {
				name = bpmn.Strptr(stripped)
			}
		}
		proc.AddNode(&bpmn.Node{Type: bpmn.TypeUserTask, ID: t.ID, Name: name})
	}
}

// handleWorkflowOperators maps every gateway pseudo-node to a single BPMN
// gateway of the operator family.
func handleWorkflowOperators(proc *bpmn.Process, helpers []*pnml.Element) {
	for _, h := range helpers {
		typ := bpmn.TypeXorGateway
		if op, ok := h.OperatorType(); ok && op.IsAndFamily() {
			typ = bpmn.TypeAndGateway
		}
		proc.AddNode(&bpmn.Node{Type: typ, ID: h.ID, Name: h.GetName()})
	}
}

// handleEventTriggers maps every trigger pseudo-node to an intermediate
// catch event of the matching kind.
func handleEventTriggers(proc *bpmn.Process, helpers []*pnml.Element) {
	for _, h := range helpers {
		kind := bpmn.TriggerMessage
		if h.IsWorkflowTime() {
			kind = bpmn.TriggerTime
		}
		proc.AddNode(&bpmn.Node{
			Type:    bpmn.TypeIntermediateCatchEvent,
			ID:      h.ID,
			Name:    h.GetName(),
			Trigger: kind,
		})
	}
}

// handleWorkflowSubprocesses translates every page recursively and attaches
// the result as a nested process. The page's source and sink places must
// mirror the outer places and have no further connections inside the page.
func handleWorkflowSubprocesses(net *pnml.Net, proc *bpmn.Process, subprocesses []*pnml.Element) error {
	for _, t := range subprocesses {
		page := net.GetPage(t.ID)
		if page == nil {
			return errs.Internalf("subprocess transition %q has no page", t.ID)
		}

		in := net.GetIncoming(t.ID)
		out := net.GetOutgoing(t.ID)
		if len(in) == 0 || len(out) == 0 {
			return errs.Internalf("subprocess transition %q must be connected on both sides", t.ID)
		}
		outerSourceID := in[0].Source
		outerSinkID := out[0].Target

		innerSource := page.Net.GetElement(outerSourceID)
		innerSink := page.Net.GetElement(outerSinkID)
		if innerSource == nil || innerSink == nil {
			return errs.Internalf("page %q is missing the source or sink place of its subprocess", t.ID)
		}
		if page.Net.InDegree(innerSource) > 0 || page.Net.OutDegree(innerSink) > 0 {
			return errs.Internalf(
				"source and sink of subprocess %q must have no incoming or outgoing arcs", t.ID)
		}

		innerDefs, err := transformNet(page.Net)
		if err != nil {
			return err
		}
		inner := innerDefs.Process
		inner.ID = t.ID
		inner.Name = t.GetName()
		proc.AddNode(&bpmn.Node{Type: bpmn.TypeSubprocess, ID: t.ID, Name: t.GetName(), Sub: inner})
	}
	return nil
}

// removeSilentTasks deletes every task without a name, splicing a direct
// flow between its neighbours.
func removeSilentTasks(proc *bpmn.Process) error {
	removed := 0
	for _, n := range proc.Nodes() {
		if n.Type != bpmn.TypeTask || n.Name != nil {
			continue
		}
		sourceID, targetID, err := proc.RemoveNodeWithConnectingFlows(n)
		if err != nil {
			return err
		}
		proc.AddFlow(proc.GetNode(sourceID), proc.GetNode(targetID), "")
		removed++
	}
	slog.Debug("removed silent tasks", "process", proc.ID, "count", removed)
	return nil
}

// removeUnnecessaryGateways deletes every gateway with exactly one incoming
// and one outgoing flow, splicing a direct flow, and iterates until a full
// pass deletes nothing. A splice whose flow id already exists is skipped.
func removeUnnecessaryGateways(proc *bpmn.Process) error {
	total := 0
	for rerun := true; rerun; {
		rerun = false

		var gateways []*bpmn.Node
		for _, n := range proc.Nodes() {
			if n.IsGateway() {
				gateways = append(gateways, n)
			}
		}
		sort.Slice(gateways, func(i, j int) bool { return gateways[i].ID < gateways[j].ID })

		for _, g := range gateways {
			if proc.InDegree(g) != 1 || proc.OutDegree(g) != 1 {
				continue
			}
			sourceID, targetID, err := proc.RemoveNodeWithConnectingFlows(g)
			if err != nil {
				return err
			}
			newFlowID := util.ArcName(sourceID, targetID)
			if proc.HasFlow(newFlowID) {
				continue
			}
			proc.AddFlow(proc.GetNode(sourceID), proc.GetNode(targetID), newFlowID)
			total++
			rerun = true
		}
	}
	slog.Debug("removed unnecessary gateways", "process", proc.ID, "count", total)
	return nil
}

// annotateResources rebuilds the lane sets of every process from the
// resource annotations of the matching net, recursing into pages.
func annotateResources(net *pnml.Net, proc *bpmn.Process) {
	laneMembers := make(map[string][]string)
	for _, t := range net.Transitions() {
		ts := t.Toolspecific
		if ts == nil || ts.TransitionResource == nil {
			continue
		}
		node := proc.GetNode(t.ID)
		if node == nil || node.Type != bpmn.TypeUserTask {
			continue
		}
		role := ts.TransitionResource.RoleName
		laneMembers[role] = append(laneMembers[role], t.ID)
	}

	if len(laneMembers) > 0 {
		roles := make([]string, 0, len(laneMembers))
		for role := range laneMembers {
			roles = append(roles, role)
		}
		sort.Strings(roles)

		laneSet := &bpmn.LaneSet{ID: proc.ID + "_laneSet"}
		for _, role := range roles {
			refs := laneMembers[role]
			sort.Strings(refs)
			laneSet.Lanes = append(laneSet.Lanes, &bpmn.Lane{
				ID:           "lane_" + role,
				Name:         bpmn.Strptr(role),
				FlowNodeRefs: refs,
			})
		}
		proc.LaneSets = []*bpmn.LaneSet{laneSet}
	}

	for _, page := range net.SortedPages() {
		if node := proc.GetNode(page.ID); node != nil && node.Sub != nil {
			annotateResources(page.Net, node.Sub)
		}
	}
}
