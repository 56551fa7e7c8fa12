package equality

import (
	"strings"
	"testing"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/pnml"
)

// nestedNet builds a net with total-1 nested pages, one inside the other.
func nestedNet(total int) *pnml.Net {
	top := pnml.NewNet("net0")
	current := top
	for i := 1; i < total; i++ {
		inner := pnml.NewNet("")
		id := "page" + string(rune('0'+i))
		inner.AddElement(pnml.NewPlace("p_" + id))
		current.AddPage(&pnml.Page{ID: id, Net: inner})
		current = inner
	}
	return top
}

func TestGetAllNetsByIDCountsNestedNets(t *testing.T) {
	m := make(map[string]*pnml.Net)
	GetAllNetsByID(nestedNet(8), m)

	if len(m) != 8 {
		t.Errorf("nested nets: got %d, want 8", len(m))
	}
}

// nestedProcess builds a process with total-1 nested subprocesses.
func nestedProcess(total int) *bpmn.Process {
	top := bpmn.NewProcess("proc0")
	current := top
	for i := 1; i < total; i++ {
		id := "sub" + string(rune('0'+i))
		inner := bpmn.NewProcess(id)
		current.AddNode(&bpmn.Node{Type: bpmn.TypeSubprocess, ID: id, Sub: inner})
		current = inner
	}
	return top
}

func TestGetAllProcessesByIDCountsNestedProcesses(t *testing.T) {
	m := make(map[string]*bpmn.Process)
	GetAllProcessesByID(nestedProcess(5), m)

	if len(m) != 5 {
		t.Errorf("nested processes: got %d, want 5", len(m))
	}
}

func simpleDefs(taskName string) *bpmn.Definitions {
	p := bpmn.NewProcess("p1")
	s := p.AddNode(&bpmn.Node{Type: bpmn.TypeStartEvent, ID: "s"})
	task := p.AddNode(&bpmn.Node{Type: bpmn.TypeTask, ID: "t", Name: bpmn.Strptr(taskName)})
	e := p.AddNode(&bpmn.Node{Type: bpmn.TypeEndEvent, ID: "e"})
	p.AddFlow(s, task, "")
	p.AddFlow(task, e, "")
	return &bpmn.Definitions{ID: "d", Process: p}
}

func TestCompareBPMNEqual(t *testing.T) {
	ok, diag := CompareBPMN(simpleDefs("A"), simpleDefs("A"))
	if !ok {
		t.Errorf("models must be equal, diagnostic: %s", diag)
	}
}

func TestCompareBPMNDifferentName(t *testing.T) {
	ok, diag := CompareBPMN(simpleDefs("A"), simpleDefs("B"))
	if ok {
		t.Fatal("models with different task names must differ")
	}
	if !strings.Contains(diag, "task") {
		t.Errorf("diagnostic must name the differing type, got %s", diag)
	}
}

func TestCompareBPMNDifferentOrganizations(t *testing.T) {
	a := simpleDefs("A")
	b := simpleDefs("A")
	b.Collaboration = &bpmn.Collaboration{
		ID:          "c",
		Participant: &bpmn.Participant{ID: "pp", Name: bpmn.Strptr("Acme"), ProcessRef: "p1"},
	}

	ok, diag := CompareBPMN(a, b)
	if ok {
		t.Fatal("models with different organizations must differ")
	}
	if diag != "Wrong organizations" {
		t.Errorf("diagnostic: got %q", diag)
	}
}

func TestCompareBPMNDifferentProcessIDs(t *testing.T) {
	a := simpleDefs("A")
	b := simpleDefs("A")
	b.Process.ID = "other"

	ok, diag := CompareBPMN(a, b)
	if ok {
		t.Fatal("models with different process ids must differ")
	}
	if diag != "Wrong processes IDs" {
		t.Errorf("diagnostic: got %q", diag)
	}
}

func simpleNet(role string) *pnml.Net {
	n := pnml.NewNet("n1")
	p1 := n.AddElement(pnml.NewPlace("p1"))
	tr := n.AddElement(pnml.NewTransition("t", pnml.Strptr("A")))
	tr.SetResource(role, "Acme")
	p2 := n.AddElement(pnml.NewPlace("p2"))
	n.AddArc(p1.ID, tr.ID)
	n.AddArc(tr.ID, p2.ID)
	return n
}

func TestComparePNMLEqual(t *testing.T) {
	ok, diag := ComparePNML(simpleNet("Sales"), simpleNet("Sales"))
	if !ok {
		t.Errorf("nets must be equal, diagnostic: %s", diag)
	}
}

func TestComparePNMLDifferentToolspecific(t *testing.T) {
	ok, diag := ComparePNML(simpleNet("Sales"), simpleNet("Support"))
	if ok {
		t.Fatal("nets with different resource roles must differ")
	}
	if !strings.Contains(diag, "transition") {
		t.Errorf("diagnostic must name the differing type, got %s", diag)
	}
}

func TestComparePNMLDifferentSubnets(t *testing.T) {
	a := simpleNet("Sales")
	b := simpleNet("Sales")
	b.AddPage(&pnml.Page{ID: "extra", Net: pnml.NewNet("extra")})

	ok, diag := ComparePNML(a, b)
	if ok {
		t.Fatal("nets with different page sets must differ")
	}
	if diag != "Different subnet IDs" {
		t.Errorf("diagnostic: got %q", diag)
	}
}
