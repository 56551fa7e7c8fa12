package pnml

import (
	"sort"

	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/util"
)

// Arc is a directed arc between two elements of the same net.
type Arc struct {
	ID     string
	Source string
	Target string
}

// Page embeds the nested net of a subprocess transition. The page id matches
// the id of the transition it refines.
type Page struct {
	ID  string
	Net *Net
}

// Net is one Petri net: elements, arcs and their incoming/outgoing indices,
// nested pages and the optional global resource catalogue. All mutation goes
// through the methods below so the indices stay consistent with the arc set.
type Net struct {
	ID string

	elements map[string]*Element
	arcs     map[string]*Arc

	incoming map[string][]*Arc
	outgoing map[string][]*Arc

	Pages []*Page

	ToolspecificGlobal *ToolspecificGlobal
}

// Pnml is a parsed PNML document holding its single top-level net.
type Pnml struct {
	Net *Net
}

// NewNet returns an empty net with the given id.
func NewNet(id string) *Net {
	return &Net{
		ID:       id,
		elements: make(map[string]*Element),
		arcs:     make(map[string]*Arc),
		incoming: make(map[string][]*Arc),
		outgoing: make(map[string][]*Arc),
	}
}

// GenerateEmptyNet returns a document holding an empty net.
func GenerateEmptyNet(id string) *Pnml {
	return &Pnml{Net: NewNet(id)}
}

// AddElement inserts e and returns the element stored under its id. Adding
// an id that already exists returns the existing element unchanged, which
// makes content-addressed silent nodes naturally idempotent.
func (n *Net) AddElement(e *Element) *Element {
	if existing, ok := n.elements[e.ID]; ok {
		return existing
	}
	n.elements[e.ID] = e
	return e
}

// GetElement returns the element with the given id, or nil.
func (n *Net) GetElement(id string) *Element {
	return n.elements[id]
}

// Elements returns all elements sorted by id.
func (n *Net) Elements() []*Element {
	out := make([]*Element, 0, len(n.elements))
	for _, e := range n.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Places returns all places sorted by id.
func (n *Net) Places() []*Element { return n.elementsOfKind(KindPlace) }

// Transitions returns all transitions sorted by id.
func (n *Net) Transitions() []*Element { return n.elementsOfKind(KindTransition) }

// GatewayHelpers returns all gateway pseudo-nodes sorted by id.
func (n *Net) GatewayHelpers() []*Element { return n.elementsOfKind(KindGatewayHelper) }

// TriggerHelpers returns all trigger pseudo-nodes sorted by id.
func (n *Net) TriggerHelpers() []*Element { return n.elementsOfKind(KindTriggerHelper) }

func (n *Net) elementsOfKind(kind ElementKind) []*Element {
	var out []*Element
	for _, e := range n.elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddArc connects source to target. The arc id is content-addressed; adding
// an arc that already exists returns the existing one, so rewriting passes
// can re-derive connections without emitting duplicates.
func (n *Net) AddArc(source, target string) *Arc {
	id := util.ArcName(source, target)
	if a, ok := n.arcs[id]; ok {
		return a
	}
	a := &Arc{ID: id, Source: source, Target: target}
	n.insertArc(a)
	return a
}

// insertArc registers a fully populated arc in the arc set and both indices.
func (n *Net) insertArc(a *Arc) {
	n.arcs[a.ID] = a
	n.outgoing[a.Source] = append(n.outgoing[a.Source], a)
	n.incoming[a.Target] = append(n.incoming[a.Target], a)
}

// Arcs returns all arcs sorted by id.
func (n *Net) Arcs() []*Arc {
	out := make([]*Arc, 0, len(n.arcs))
	for _, a := range n.arcs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveArc deletes a from the arc set and both indices.
func (n *Net) RemoveArc(a *Arc) {
	delete(n.arcs, a.ID)
	n.outgoing[a.Source] = dropArc(n.outgoing[a.Source], a.ID)
	n.incoming[a.Target] = dropArc(n.incoming[a.Target], a.ID)
}

func dropArc(arcs []*Arc, id string) []*Arc {
	for i, a := range arcs {
		if a.ID == id {
			return append(arcs[:i], arcs[i+1:]...)
		}
	}
	return arcs
}

// RemoveElement deletes e from the element set. Arcs touching e are left to
// the caller.
func (n *Net) RemoveElement(e *Element) {
	delete(n.elements, e.ID)
}

// RemoveElementWithConnectingArcs deletes e together with every arc touching
// it.
func (n *Net) RemoveElementWithConnectingArcs(e *Element) {
	for _, a := range append(n.GetIncoming(e.ID), n.GetOutgoing(e.ID)...) {
		n.RemoveArc(a)
	}
	n.RemoveElement(e)
}

// GetIncoming returns the arcs targeting the element id, sorted by arc id.
func (n *Net) GetIncoming(id string) []*Arc {
	return sortedArcs(n.incoming[id])
}

// GetOutgoing returns the arcs originating at the element id, sorted by arc
// id.
func (n *Net) GetOutgoing(id string) []*Arc {
	return sortedArcs(n.outgoing[id])
}

func sortedArcs(arcs []*Arc) []*Arc {
	out := make([]*Arc, len(arcs))
	copy(out, arcs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InDegree returns the number of arcs targeting e.
func (n *Net) InDegree(e *Element) int { return len(n.incoming[e.ID]) }

// OutDegree returns the number of arcs originating at e.
func (n *Net) OutDegree(e *Element) int { return len(n.outgoing[e.ID]) }

// GetIncomingAndRemoveArcs detaches and returns the incoming arcs of e. The
// returned arcs are no longer part of the net; ConnectToElement re-homes
// them.
func (n *Net) GetIncomingAndRemoveArcs(e *Element) []*Arc {
	arcs := n.GetIncoming(e.ID)
	for _, a := range arcs {
		n.RemoveArc(a)
	}
	return arcs
}

// GetOutgoingAndRemoveArcs detaches and returns the outgoing arcs of e.
func (n *Net) GetOutgoingAndRemoveArcs(e *Element) []*Arc {
	arcs := n.GetOutgoing(e.ID)
	for _, a := range arcs {
		n.RemoveArc(a)
	}
	return arcs
}

// ConnectToElement re-homes a batch of detached arcs to a new target. The
// arcs keep their sources; their ids are re-derived from the new endpoints.
func (n *Net) ConnectToElement(e *Element, arcs []*Arc) {
	for _, a := range arcs {
		n.AddArc(a.Source, e.ID)
	}
}

// RemoveElementAndSplice removes e together with its single incoming and
// single outgoing arc and returns the spliced endpoint ids. Fails without
// mutating when the degree precondition is violated.
func (n *Net) RemoveElementAndSplice(e *Element) (string, string, error) {
	if n.InDegree(e) != 1 || n.OutDegree(e) != 1 {
		return "", "", errs.Internalf(
			"element %q must have exactly one incoming and one outgoing arc, got %d/%d",
			e.ID, n.InDegree(e), n.OutDegree(e))
	}
	in := n.incoming[e.ID][0]
	out := n.outgoing[e.ID][0]
	n.RemoveArc(in)
	n.RemoveArc(out)
	n.RemoveElement(e)
	return in.Source, out.Target, nil
}

// AddPage attaches a nested net as a page.
func (n *Net) AddPage(p *Page) {
	n.Pages = append(n.Pages, p)
}

// GetPage returns the page with the given id, or nil.
func (n *Net) GetPage(id string) *Page {
	for _, p := range n.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SortedPages returns the pages sorted by id.
func (n *Net) SortedPages() []*Page {
	out := append([]*Page(nil), n.Pages...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
