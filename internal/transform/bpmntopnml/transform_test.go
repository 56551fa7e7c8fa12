package bpmntopnml

import (
	"testing"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/pnml"
)

// userTaskModel is scenario S1: Start -> UserTask("A", lane Sales) -> End
// under organization Acme.
func userTaskModel() *bpmn.Definitions {
	p := bpmn.NewProcess("p1")
	start := p.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "start1"})
	task := p.AddNode(&bpmn.Node{Type: bpmn.TypeUserTask, ID: "task1", Name: bpmn.Strptr("A")})
	end := p.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "end1"})
	p.AddFlow(start, task, "")
	p.AddFlow(task, end, "")
	p.LaneSets = []*bpmn.LaneSet{{
		ID:    "ls1",
		Lanes: []*bpmn.Lane{{ID: "l1", Name: bpmn.Strptr("Sales"), FlowNodeRefs: []string{"task1"}}},
	}}

	return &bpmn.Definitions{
		ID:      "defs",
		Process: p,
		Collaboration: &bpmn.Collaboration{
			ID:          "collab",
			Participant: &bpmn.Participant{ID: "pool", Name: bpmn.Strptr("Acme"), ProcessRef: "p1"},
		},
	}
}

func TestTransformUserTask(t *testing.T) {
	doc, err := Transform(userTaskModel())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	net := doc.Net

	if net.GetElement("start1") == nil || !net.GetElement("start1").IsPlaceLike() {
		t.Error("start event must become a place")
	}
	if net.GetElement("end1") == nil || !net.GetElement("end1").IsPlaceLike() {
		t.Error("end event must become a place")
	}

	task := net.GetElement("task1")
	if task == nil || task.Kind != pnml.KindTransition {
		t.Fatal("user task must become a transition")
	}
	if task.Name == nil || *task.Name != "[UserTask] A" {
		t.Errorf("transition name: got %v, want [UserTask] A", task.Name)
	}
	res := task.Toolspecific.TransitionResource
	if res == nil || res.RoleName != "Sales" || res.OrganizationalUnitName != "Acme" {
		t.Errorf("resource annotation: got %+v", res)
	}

	if len(net.GetOutgoing("start1")) != 1 || net.GetOutgoing("start1")[0].Target != "task1" {
		t.Error("arc start1 -> task1 missing")
	}
	if len(net.GetOutgoing("task1")) != 1 || net.GetOutgoing("task1")[0].Target != "end1" {
		t.Error("arc task1 -> end1 missing")
	}

	g := net.ToolspecificGlobal
	if g == nil || len(g.Resources.Roles) != 1 || g.Resources.Roles[0].Name != "Sales" {
		t.Errorf("global roles: got %+v", g)
	}
	if len(g.Resources.Units) != 1 || g.Resources.Units[0].Name != "Acme" {
		t.Errorf("global units: got %+v", g.Resources.Units)
	}
}

// xorModel is scenario S2: Start -> g -> {B, C} -> gp -> End with two
// exclusive gateways.
func xorModel() *bpmn.Definitions {
	p := bpmn.NewProcess("p1")
	s := p.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "s"})
	g := p.AddNode(&bpmn.Node{Type: bpmn.TypeXorGateway, ID: "g"})
	b := p.AddNode(&bpmn.Node{Type: bpmn.TypeTask, ID: "B", Name: bpmn.Strptr("B")})
	c := p.AddNode(&bpmn.Node{Type: bpmn.TypeTask, ID: "C", Name: bpmn.Strptr("C")})
	gp := p.AddNode(&bpmn.Node{Type: bpmn.TypeXorGateway, ID: "gp"})
	e := p.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "e"})
	p.AddFlow(s, g, "")
	p.AddFlow(g, b, "")
	p.AddFlow(g, c, "")
	p.AddFlow(b, gp, "")
	p.AddFlow(c, gp, "")
	p.AddFlow(gp, e, "")
	return &bpmn.Definitions{ID: "defs", Process: p}
}

func TestTransformXorGateways(t *testing.T) {
	doc, err := Transform(xorModel())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	net := doc.Net

	splitCluster := map[string]bool{}
	joinCluster := map[string]bool{}
	for _, tr := range net.Transitions() {
		op, ok := tr.OperatorType()
		if !ok {
			continue
		}
		switch {
		case op == pnml.XorSplit && tr.Toolspecific.Operator.ID == "g":
			splitCluster[tr.ID] = true
		case op == pnml.XorJoin && tr.Toolspecific.Operator.ID == "gp":
			joinCluster[tr.ID] = true
		default:
			t.Errorf("unexpected operator %d on %q", op, tr.ID)
		}
	}

	if len(splitCluster) != 2 {
		t.Errorf("XOR split cluster size: got %d, want 2", len(splitCluster))
	}
	if len(joinCluster) != 2 {
		t.Errorf("XOR join cluster size: got %d, want 2", len(joinCluster))
	}

	// the split cluster consumes from the start place
	for id := range splitCluster {
		in := net.GetIncoming(id)
		if len(in) != 1 || in[0].Source != "s" {
			t.Errorf("split transition %q must consume from the start place", id)
		}
	}
}

func TestTransformSubprocess(t *testing.T) {
	inner := bpmn.NewProcess("sub")
	is := inner.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "is"})
	it := inner.AddNode(&bpmn.Node{Type: bpmn.TypeTask, ID: "it", Name: bpmn.Strptr("T")})
	ie := inner.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "ie"})
	inner.AddFlow(is, it, "")
	inner.AddFlow(it, ie, "")

	p := bpmn.NewProcess("p1")
	s := p.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "s"})
	sub := p.AddNode(&bpmn.Node{Type: bpmn.TypeSubprocess, ID: "sub", Name: bpmn.Strptr("Inner"), Sub: inner})
	e := p.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "e"})
	p.AddFlow(s, sub, "")
	p.AddFlow(sub, e, "")

	doc, err := Transform(&bpmn.Definitions{ID: "defs", Process: p})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	net := doc.Net

	subT := net.GetElement("sub")
	if subT == nil || !subT.IsWorkflowSubprocess() {
		t.Fatal("subprocess transition with marker expected")
	}

	page := net.GetPage("sub")
	if page == nil {
		t.Fatal("page for subprocess expected")
	}

	// the page brackets mirror the outer places
	source := page.Net.GetElement("s")
	sink := page.Net.GetElement("e")
	if source == nil || sink == nil {
		t.Fatal("page must contain source and sink places named after the outer places")
	}
	if page.Net.InDegree(source) != 0 {
		t.Error("page source place must have no incoming arcs")
	}
	if page.Net.OutDegree(sink) != 0 {
		t.Error("page sink place must have no outgoing arcs")
	}
	if page.Net.GetElement("it") == nil {
		t.Error("inner task must survive in the page net")
	}
}

func TestTransformTriggerMergesIntoFollowingTask(t *testing.T) {
	// s -> catch(message) -> T -> e collapses into a triggered task.
	p := bpmn.NewProcess("p1")
	s := p.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "s"})
	m := p.AddNode(&bpmn.Node{
		Type: bpmn.TypeIntermediateCatchEvent, ID: "m",
		Name: bpmn.Strptr("M"), Trigger: bpmn.TriggerMessage,
	})
	task := p.AddNode(&bpmn.Node{Type: bpmn.TypeTask, ID: "T", Name: bpmn.Strptr("T")})
	e := p.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "e"})
	p.AddFlow(s, m, "")
	p.AddFlow(m, task, "")
	p.AddFlow(task, e, "")

	doc, err := Transform(&bpmn.Definitions{ID: "defs", Process: p})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	net := doc.Net

	if net.GetElement("m") != nil {
		t.Error("trigger transition must be merged away")
	}
	target := net.GetElement("T")
	if target == nil || !target.IsWorkflowMessage() {
		t.Error("task transition must carry the message trigger after the merge")
	}
	in := net.GetIncoming("T")
	if len(in) != 1 || in[0].Source != "s" {
		t.Errorf("merged transition must consume directly from the start place, got %+v", in)
	}
}

func TestTransformTrivialGatewaysDegrade(t *testing.T) {
	// a pass-through XOR degrades to a place, a pass-through AND to a
	// silent transition
	p := bpmn.NewProcess("p1")
	s := p.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "s"})
	x := p.AddNode(&bpmn.Node{Type: bpmn.TypeXorGateway, ID: "x"})
	a := p.AddNode(&bpmn.Node{Type: bpmn.TypeAndGateway, ID: "a"})
	e := p.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "e"})
	p.AddFlow(s, x, "")
	p.AddFlow(x, a, "")
	p.AddFlow(a, e, "")

	doc, err := Transform(&bpmn.Definitions{ID: "defs", Process: p})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	net := doc.Net

	if x := net.GetElement("x"); x == nil || x.Kind != pnml.KindPlace {
		t.Error("trivial XOR gateway must degrade to a place")
	}
	if a := net.GetElement("a"); a == nil || a.Kind != pnml.KindTransition || a.Name != nil {
		t.Error("trivial AND gateway must degrade to a silent transition")
	}
}
