package bpmntopnml

import (
	"testing"

	"github.com/woped/model-transformer/internal/transform/pnml"
)

// triggerChain builds p0 -> trigger -> p1 -> target -> p2.
func triggerChain(triggerType pnml.TriggerType) (*pnml.Net, *pnml.Element, *pnml.Element) {
	n := pnml.NewNet("n")
	p0 := n.AddElement(pnml.NewPlace("p0"))
	trig := n.AddElement(pnml.NewTransition("trig", nil))
	trig.SetTrigger(triggerType)
	p1 := n.AddElement(pnml.NewPlace("p1"))
	target := n.AddElement(pnml.NewTransition("target", pnml.Strptr("T")))
	p2 := n.AddElement(pnml.NewPlace("p2"))
	n.AddArc(p0.ID, trig.ID)
	n.AddArc(trig.ID, p1.ID)
	n.AddArc(p1.ID, target.ID)
	n.AddArc(target.ID, p2.ID)
	return n, trig, target
}

func TestMergeSingleTriggersMessage(t *testing.T) {
	n, _, target := triggerChain(pnml.TriggerMessage)

	MergeSingleTriggers(n)

	if n.GetElement("trig") != nil || n.GetElement("p1") != nil {
		t.Error("trigger and connecting place must be removed")
	}
	if !target.IsWorkflowMessage() {
		t.Error("target must carry the message trigger")
	}
	in := n.GetIncoming(target.ID)
	if len(in) != 1 || in[0].Source != "p0" {
		t.Errorf("target must consume from p0 after the merge, got %+v", in)
	}
}

func TestMergeSingleTriggersTime(t *testing.T) {
	n, _, target := triggerChain(pnml.TriggerTime)

	MergeSingleTriggers(n)

	if !target.IsWorkflowTime() {
		t.Error("target must carry the time trigger")
	}
}

func TestMergeSingleTriggersSkipsTriggeredTarget(t *testing.T) {
	n, trig, target := triggerChain(pnml.TriggerMessage)
	target.SetTrigger(pnml.TriggerTime)

	MergeSingleTriggers(n)

	if n.GetElement(trig.ID) == nil {
		t.Error("merge into an already triggered transition must be skipped")
	}
}

func TestMergeSingleTriggersSkipsSubprocessTarget(t *testing.T) {
	n, trig, target := triggerChain(pnml.TriggerMessage)
	target.MarkAsWorkflowSubprocess()

	MergeSingleTriggers(n)

	if n.GetElement(trig.ID) == nil {
		t.Error("merge into a subprocess transition must be skipped")
	}
}

func TestMergeSingleTriggersSkipsJoinTarget(t *testing.T) {
	n, trig, target := triggerChain(pnml.TriggerMessage)

	// a second token source makes the target a join
	extra := n.AddElement(pnml.NewPlace("extra"))
	n.AddArc(extra.ID, target.ID)

	MergeSingleTriggers(n)

	if n.GetElement(trig.ID) == nil {
		t.Error("merge into a join transition must be skipped")
	}
}

func TestMergeSingleTriggersSkipsJoinOperatorTarget(t *testing.T) {
	n, trig, target := triggerChain(pnml.TriggerMessage)
	target.SetOperator("g", pnml.XorJoin, 1)

	MergeSingleTriggers(n)

	if n.GetElement(trig.ID) == nil {
		t.Error("merge into a join operator must be skipped")
	}
}

func TestMergeSingleTriggersSkipsBranchingTrigger(t *testing.T) {
	n, trig, _ := triggerChain(pnml.TriggerMessage)

	// the trigger itself becomes a split
	p3 := n.AddElement(pnml.NewPlace("p3"))
	n.AddArc(trig.ID, p3.ID)

	MergeSingleTriggers(n)

	if n.GetElement(trig.ID) == nil {
		t.Error("a branching trigger must not be merged")
	}
}

func TestMergeSingleTriggersIntoWorkflowSplitCluster(t *testing.T) {
	// p0 -> trig -> p1 -> {split cluster of two XorSplit transitions}
	n := pnml.NewNet("n")
	p0 := n.AddElement(pnml.NewPlace("p0"))
	trig := n.AddElement(pnml.NewTransition("trig", nil))
	trig.SetTrigger(pnml.TriggerMessage)
	p1 := n.AddElement(pnml.NewPlace("p1"))
	s1 := n.AddElement(pnml.NewTransition("s1", nil))
	s1.SetOperator("g", pnml.XorSplit, 1)
	s2 := n.AddElement(pnml.NewTransition("s2", nil))
	s2.SetOperator("g", pnml.XorSplit, 2)
	pa := n.AddElement(pnml.NewPlace("pa"))
	pb := n.AddElement(pnml.NewPlace("pb"))
	n.AddArc(p0.ID, trig.ID)
	n.AddArc(trig.ID, p1.ID)
	n.AddArc(p1.ID, s1.ID)
	n.AddArc(p1.ID, s2.ID)
	n.AddArc(s1.ID, pa.ID)
	n.AddArc(s2.ID, pb.ID)

	MergeSingleTriggers(n)

	if n.GetElement("trig") != nil || n.GetElement("p1") != nil {
		t.Fatal("trigger and split place must be merged away")
	}
	for _, id := range []string{"s1", "s2"} {
		e := n.GetElement(id)
		if !e.IsWorkflowMessage() {
			t.Errorf("split transition %q must carry the trigger", id)
		}
		in := n.GetIncoming(id)
		if len(in) != 1 || in[0].Source != "p0" {
			t.Errorf("split transition %q must consume from p0, got %+v", id, in)
		}
	}
}
