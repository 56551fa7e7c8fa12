package bpmntopnml

import (
	"github.com/woped/model-transformer/internal/transform/pnml"
)

// findTriggers returns the event-triggered transitions (message or time) of
// the net, sorted by id.
func findTriggers(net *pnml.Net) []*pnml.Element {
	var out []*pnml.Element
	for _, t := range net.Transitions() {
		if t.IsWorkflowTrigger() {
			out = append(out, t)
		}
	}
	return out
}

// MergeSingleTriggers collapses the pattern
//
//	place -> trigger transition -> place -> plain transition
//
// into a single triggered transition. Every precondition is checked per
// site; a violated one cancels the merge there and leaves the graph
// untouched.
func MergeSingleTriggers(net *pnml.Net) {
	for _, trigger := range findTriggers(net) {
		// not clear how to merge a trigger that is a split or join itself
		if net.OutDegree(trigger) > 1 || net.InDegree(trigger) > 1 {
			continue
		}

		// no following element to merge with
		if net.OutDegree(trigger) == 0 {
			continue
		}

		connectingPlace := net.GetElement(net.GetOutgoing(trigger.ID)[0].Target)
		if net.OutDegree(connectingPlace) == 0 {
			continue
		}

		// not clear how to merge the successor of a split/join place; the
		// one exception is a place feeding a workflow split cluster, whose
		// fan-out belongs to the operator rather than the place.
		targetTransitions := make([]*pnml.Element, 0, net.OutDegree(connectingPlace))
		for _, a := range net.GetOutgoing(connectingPlace.ID) {
			targetTransitions = append(targetTransitions, net.GetElement(a.Target))
		}

		placeBeforeSplit := true
		for _, t := range targetTransitions {
			if op, ok := t.OperatorType(); !ok || !op.IsPureSplit() {
				placeBeforeSplit = false
				break
			}
		}
		if !placeBeforeSplit && (net.OutDegree(connectingPlace) > 1 || net.InDegree(connectingPlace) > 1) {
			continue
		}

		target := targetTransitions[0]

		// cannot merge into an existing trigger or a subprocess
		if target.IsWorkflowTrigger() || target.IsWorkflowResource() || target.IsWorkflowSubprocess() {
			continue
		}

		// not clear how to merge into a join
		if net.InDegree(target) > 1 {
			continue
		}
		if op, ok := target.OperatorType(); ok && op.IsJoinType() {
			continue
		}

		incomingArcs := net.GetIncomingAndRemoveArcs(trigger)
		net.RemoveElementWithConnectingArcs(connectingPlace)
		net.RemoveElement(trigger)

		for _, t := range targetTransitions {
			switch {
			case trigger.IsWorkflowMessage():
				t.MarkAsWorkflowMessage()
			case trigger.IsWorkflowTime():
				t.MarkAsWorkflowTime()
			}
			net.ConnectToElement(t, incomingArcs)
		}
	}
}
