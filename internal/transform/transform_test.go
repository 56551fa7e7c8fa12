package transform

import (
	"strings"
	"testing"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/equality"
	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/pnml"
	"github.com/woped/model-transformer/internal/transform/util"
)

// userTaskBPMN is scenario S1: Start -> UserTask("A", lane Sales) -> End
// under organization Acme.
const userTaskBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" id="defs">
  <collaboration id="collab">
    <participant id="pool" name="Acme" processRef="p1"/>
  </collaboration>
  <process id="p1">
    <laneSet id="ls1">
      <lane id="l1" name="Sales">
        <flowNodeRef>task1</flowNodeRef>
      </lane>
    </laneSet>
    <startEvent id="start1"/>
    <userTask id="task1" name="A"/>
    <endEvent id="end1"/>
    <sequenceFlow id="f1" sourceRef="start1" targetRef="task1"/>
    <sequenceFlow id="f2" sourceRef="task1" targetRef="end1"/>
  </process>
</definitions>`

// xorBPMN is scenario S2 with content-addressed flow ids: Start -> g ->
// {B, C} -> gp -> End.
const xorBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" id="defs">
  <process id="p1">
    <startEvent id="s"/>
    <exclusiveGateway id="g"/>
    <task id="B" name="B"/>
    <task id="C" name="C"/>
    <exclusiveGateway id="gp"/>
    <endEvent id="e"/>
    <sequenceFlow id="sTOg" sourceRef="s" targetRef="g"/>
    <sequenceFlow id="gTOB" sourceRef="g" targetRef="B"/>
    <sequenceFlow id="gTOC" sourceRef="g" targetRef="C"/>
    <sequenceFlow id="BTOgp" sourceRef="B" targetRef="gp"/>
    <sequenceFlow id="CTOgp" sourceRef="C" targetRef="gp"/>
    <sequenceFlow id="gpTOe" sourceRef="gp" targetRef="e"/>
  </process>
</definitions>`

func TestBPMNToPNMLUserTask(t *testing.T) {
	out, err := BPMNToPNML(userTaskBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}

	if !strings.HasPrefix(out, util.XMLHeader) {
		t.Error("output must start with the XML declaration")
	}
	if strings.Contains(out, "\n") {
		t.Error("output must be a single line")
	}

	doc, err := pnml.Parse(out)
	if err != nil {
		t.Fatalf("output must parse as PNML: %v", err)
	}
	net := doc.Net

	task := net.GetElement("task1")
	if task == nil || task.Name == nil || *task.Name != "[UserTask] A" {
		t.Fatalf("transition [UserTask] A expected, got %+v", task)
	}
	res := task.Toolspecific.TransitionResource
	if res == nil || res.RoleName != "Sales" || res.OrganizationalUnitName != "Acme" {
		t.Errorf("resource annotation: got %+v", res)
	}

	if net.GetElement("start1") == nil || net.GetElement("end1") == nil {
		t.Error("start and end places expected")
	}
	if len(net.Arcs()) != 2 {
		t.Errorf("arcs: got %d, want 2", len(net.Arcs()))
	}

	g := net.ToolspecificGlobal
	if g == nil || len(g.Resources.Roles) != 1 || g.Resources.Roles[0].Name != "Sales" {
		t.Errorf("global toolspecific roles: got %+v", g)
	}
}

func TestBPMNToPNMLXorClusters(t *testing.T) {
	out, err := BPMNToPNML(xorBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}

	doc, err := pnml.Parse(out)
	if err != nil {
		t.Fatalf("output must parse as PNML: %v", err)
	}

	clusters := map[string]int{}
	for _, tr := range doc.Net.Transitions() {
		if tr.IsWorkflowOperator() {
			clusters[tr.Toolspecific.Operator.ID]++
		}
	}
	if clusters["g"] != 2 {
		t.Errorf("split cluster size: got %d, want 2", clusters["g"])
	}
	if clusters["gp"] != 2 {
		t.Errorf("join cluster size: got %d, want 2", clusters["gp"])
	}
}

func TestBPMNToPNMLIsDeterministic(t *testing.T) {
	first, err := BPMNToPNML(xorBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}
	second, err := BPMNToPNML(xorBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}
	if first != second {
		t.Error("two runs on the same input must be byte-identical")
	}
}

func TestPNMLToBPMNIsDeterministic(t *testing.T) {
	pnmlXML, err := BPMNToPNML(xorBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}

	first, err := PNMLToBPMN(pnmlXML)
	if err != nil {
		t.Fatalf("PNMLToBPMN: %v", err)
	}
	second, err := PNMLToBPMN(pnmlXML)
	if err != nil {
		t.Fatalf("PNMLToBPMN: %v", err)
	}
	if first != second {
		t.Error("two runs on the same input must be byte-identical")
	}
}

func TestRoundTripXorModel(t *testing.T) {
	pnmlXML, err := BPMNToPNML(xorBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}
	bpmnXML, err := PNMLToBPMN(pnmlXML)
	if err != nil {
		t.Fatalf("PNMLToBPMN: %v", err)
	}

	original, err := bpmn.Parse(xorBPMN)
	if err != nil {
		t.Fatalf("parse original: %v", err)
	}
	roundTripped, err := bpmn.Parse(bpmnXML)
	if err != nil {
		t.Fatalf("parse round trip: %v", err)
	}

	ok, diag := equality.CompareBPMN(original, roundTripped)
	if !ok {
		t.Errorf("round trip must be structurally equivalent:\n%s", diag)
	}
}

func TestRoundTripLeavesNoSilentArtifacts(t *testing.T) {
	pnmlXML, err := BPMNToPNML(xorBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}
	bpmnXML, err := PNMLToBPMN(pnmlXML)
	if err != nil {
		t.Fatalf("PNMLToBPMN: %v", err)
	}

	defs, err := bpmn.Parse(bpmnXML)
	if err != nil {
		t.Fatalf("parse round trip: %v", err)
	}
	for _, n := range defs.Process.Nodes() {
		if n.IsTask() && n.Name == nil {
			t.Errorf("silent task %q survived postprocessing", n.ID)
		}
		if n.IsGateway() && defs.Process.InDegree(n) == 1 && defs.Process.OutDegree(n) == 1 {
			t.Errorf("pass-through gateway %q survived postprocessing", n.ID)
		}
	}
}

func TestBPMNToPNMLMalformedInput(t *testing.T) {
	_, err := BPMNToPNML("<definitions><broken")
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !errs.IsKnown(err) {
		t.Errorf("malformed input must be a known error, got %v", err)
	}
}

func TestPNMLToBPMNMalformedInput(t *testing.T) {
	_, err := PNMLToBPMN("not xml at all")
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !errs.IsKnown(err) {
		t.Errorf("malformed input must be a known error, got %v", err)
	}
}

// orBPMN is scenario S6: an inclusive gateway fanning to three branches with
// a paired inclusive join.
const orBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" id="defs">
  <process id="p1">
    <startEvent id="s"/>
    <inclusiveGateway id="g"/>
    <task id="b1" name="B1"/>
    <task id="b2" name="B2"/>
    <task id="b3" name="B3"/>
    <inclusiveGateway id="j"/>
    <endEvent id="e"/>
    <sequenceFlow id="sTOg" sourceRef="s" targetRef="g"/>
    <sequenceFlow id="gTOb1" sourceRef="g" targetRef="b1"/>
    <sequenceFlow id="gTOb2" sourceRef="g" targetRef="b2"/>
    <sequenceFlow id="gTOb3" sourceRef="g" targetRef="b3"/>
    <sequenceFlow id="b1TOj" sourceRef="b1" targetRef="j"/>
    <sequenceFlow id="b2TOj" sourceRef="b2" targetRef="j"/>
    <sequenceFlow id="b3TOj" sourceRef="b3" targetRef="j"/>
    <sequenceFlow id="jTOe" sourceRef="j" targetRef="e"/>
  </process>
</definitions>`

func TestBPMNToPNMLInclusiveGatewayExpansion(t *testing.T) {
	out, err := BPMNToPNML(orBPMN)
	if err != nil {
		t.Fatalf("BPMNToPNML: %v", err)
	}

	doc, err := pnml.Parse(out)
	if err != nil {
		t.Fatalf("output must parse as PNML: %v", err)
	}

	// the AND block: one split and one join transition with operator id g/j
	andOps := map[pnml.OperatorType]int{}
	xorClusters := map[string]bool{}
	for _, tr := range doc.Net.Transitions() {
		op, ok := tr.OperatorType()
		if !ok {
			continue
		}
		switch op {
		case pnml.AndSplit, pnml.AndJoin:
			andOps[op]++
		case pnml.XorSplit, pnml.XorJoin:
			xorClusters[tr.Toolspecific.Operator.ID] = true
		}
	}

	if andOps[pnml.AndSplit] != 1 || andOps[pnml.AndJoin] != 1 {
		t.Errorf("AND block: got %+v, want one split and one join", andOps)
	}
	// three take-or-skip pairs: three XOR splits and three XOR joins
	if len(xorClusters) != 6 {
		t.Errorf("take-or-skip XOR clusters: got %d, want 6", len(xorClusters))
	}
}
