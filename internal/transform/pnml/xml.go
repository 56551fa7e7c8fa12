package pnml

import (
	"encoding/xml"
	"fmt"

	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/util"
)

// NetType is the place/transition net type URI written on every net element.
const NetType = "http://www.informatik.hu-berlin.de/top/pntd/ptNetb"

// Tool identification of the WoPeD toolspecific blocks.
const (
	toolName    = "WoPeD"
	toolVersion = "1.0"
)

type xmlPnml struct {
	XMLName xml.Name `xml:"pnml"`
	Net     *xmlNet  `xml:"net"`
}

type xmlNet struct {
	ID   string `xml:"id,attr"`
	Type string `xml:"type,attr,omitempty"`

	Places      []*xmlPlace      `xml:"place"`
	Transitions []*xmlTransition `xml:"transition"`
	Arcs        []*xmlArc        `xml:"arc"`
	Pages       []*xmlPage       `xml:"page"`

	Toolspecific []*xmlGlobalToolspecific `xml:"toolspecific"`
}

type xmlPage struct {
	ID  string  `xml:"id,attr"`
	Net *xmlNet `xml:"net"`
}

type xmlName struct {
	Text string `xml:"text"`
}

type xmlPlace struct {
	ID           string           `xml:"id,attr"`
	Name         *xmlName         `xml:"name"`
	Toolspecific *xmlToolspecific `xml:"toolspecific"`
}

type xmlTransition struct {
	ID           string           `xml:"id,attr"`
	Name         *xmlName         `xml:"name"`
	Toolspecific *xmlToolspecific `xml:"toolspecific"`
}

type xmlArc struct {
	ID     string `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type xmlToolspecific struct {
	Tool     string           `xml:"tool,attr"`
	Version  string           `xml:"version,attr"`
	Operator *xmlOperator     `xml:"operator"`
	Trigger  *xmlTrigger      `xml:"trigger"`
	Resource *xmlTransitionRe `xml:"transitionResource"`
	Sub      *bool            `xml:"subprocess"`
}

type xmlOperator struct {
	ID       string `xml:"id,attr"`
	Type     int    `xml:"type,attr"`
	Position int    `xml:"position,attr,omitempty"`
}

type xmlTrigger struct {
	ID   string `xml:"id,attr"`
	Type int    `xml:"type,attr"`
}

type xmlTransitionRe struct {
	RoleName               string `xml:"roleName,attr"`
	OrganizationalUnitName string `xml:"organizationalUnitName,attr"`
}

type xmlGlobalToolspecific struct {
	Tool      string        `xml:"tool,attr"`
	Version   string        `xml:"version,attr"`
	Resources *xmlResources `xml:"resources"`
}

type xmlResources struct {
	Roles []xmlNamed `xml:"role"`
	Units []xmlNamed `xml:"organizationUnit"`
}

type xmlNamed struct {
	Name string `xml:"name"`
}

// Parse reads a PNML document into the typed model. Parsing failures,
// documents without a net and arcs with missing endpoints are reported as
// MalformedInput.
func Parse(data string) (*Pnml, error) {
	var doc xmlPnml
	if err := xml.Unmarshal([]byte(data), &doc); err != nil {
		return nil, &errs.MalformedInput{Err: err}
	}
	if doc.Net == nil {
		return nil, &errs.MalformedInput{Err: fmt.Errorf("pnml contains no net")}
	}
	net, err := netFromXML(doc.Net)
	if err != nil {
		return nil, err
	}
	return &Pnml{Net: net}, nil
}

func netFromXML(x *xmlNet) (*Net, error) {
	n := NewNet(x.ID)

	for _, pl := range x.Places {
		e := &Element{Kind: KindPlace, ID: pl.ID, Name: nameFromXML(pl.Name)}
		e.Toolspecific = toolspecificFromXML(pl.Toolspecific)
		n.AddElement(e)
	}
	for _, tr := range x.Transitions {
		e := &Element{Kind: KindTransition, ID: tr.ID, Name: nameFromXML(tr.Name)}
		e.Toolspecific = toolspecificFromXML(tr.Toolspecific)
		n.AddElement(e)
	}
	for _, a := range x.Arcs {
		if a.Source == "" || a.Target == "" {
			return nil, &errs.MalformedInput{Err: fmt.Errorf("arc %q is missing source or target", a.ID)}
		}
		id := a.ID
		if id == "" {
			id = util.ArcName(a.Source, a.Target)
		}
		n.insertArc(&Arc{ID: id, Source: a.Source, Target: a.Target})
	}
	for _, pg := range x.Pages {
		if pg.Net == nil {
			return nil, &errs.MalformedInput{Err: fmt.Errorf("page %q contains no net", pg.ID)}
		}
		inner, err := netFromXML(pg.Net)
		if err != nil {
			return nil, err
		}
		n.AddPage(&Page{ID: pg.ID, Net: inner})
	}
	for _, ts := range x.Toolspecific {
		if ts.Resources == nil {
			continue
		}
		g := &ToolspecificGlobal{}
		for _, r := range ts.Resources.Roles {
			g.Resources.Roles = append(g.Resources.Roles, Role{Name: r.Name})
		}
		for _, u := range ts.Resources.Units {
			g.Resources.Units = append(g.Resources.Units, OrganizationUnit{Name: u.Name})
		}
		n.ToolspecificGlobal = g
	}

	return n, nil
}

func nameFromXML(x *xmlName) *string {
	if x == nil || x.Text == "" {
		return nil
	}
	s := x.Text
	return &s
}

func toolspecificFromXML(x *xmlToolspecific) *Toolspecific {
	if x == nil {
		return nil
	}
	t := &Toolspecific{}
	if x.Operator != nil {
		t.Operator = &Operator{
			ID:       x.Operator.ID,
			Type:     OperatorType(x.Operator.Type),
			Position: x.Operator.Position,
		}
	}
	if x.Trigger != nil {
		t.Trigger = &Trigger{ID: x.Trigger.ID, Type: TriggerType(x.Trigger.Type)}
	}
	if x.Resource != nil {
		t.TransitionResource = &TransitionResource{
			RoleName:               x.Resource.RoleName,
			OrganizationalUnitName: x.Resource.OrganizationalUnitName,
		}
	}
	if x.Sub != nil && *x.Sub {
		t.Subprocess = true
	}
	if t.IsEmpty() {
		return nil
	}
	return t
}

// Marshal writes the document back to XML. Sibling elements are emitted
// sorted by id so that serialization is deterministic.
func Marshal(doc *Pnml) (string, error) {
	out, err := xml.Marshal(xmlPnml{Net: netToXML(doc.Net)})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func netToXML(n *Net) *xmlNet {
	x := &xmlNet{ID: n.ID, Type: NetType}

	for _, e := range n.Elements() {
		switch e.Kind {
		case KindPlace:
			x.Places = append(x.Places, &xmlPlace{
				ID:           e.ID,
				Name:         nameToXML(e.Name),
				Toolspecific: toolspecificToXML(e.Toolspecific),
			})
		default:
			// Pseudo-nodes surviving to serialization render as transitions.
			x.Transitions = append(x.Transitions, &xmlTransition{
				ID:           e.ID,
				Name:         nameToXML(e.Name),
				Toolspecific: toolspecificToXML(e.Toolspecific),
			})
		}
	}
	for _, a := range n.Arcs() {
		x.Arcs = append(x.Arcs, &xmlArc{ID: a.ID, Source: a.Source, Target: a.Target})
	}
	for _, p := range n.SortedPages() {
		x.Pages = append(x.Pages, &xmlPage{ID: p.ID, Net: netToXML(p.Net)})
	}
	if g := n.ToolspecificGlobal; g != nil {
		res := &xmlResources{}
		for _, r := range g.Resources.Roles {
			res.Roles = append(res.Roles, xmlNamed{Name: r.Name})
		}
		for _, u := range g.Resources.Units {
			res.Units = append(res.Units, xmlNamed{Name: u.Name})
		}
		x.Toolspecific = append(x.Toolspecific, &xmlGlobalToolspecific{
			Tool:      toolName,
			Version:   toolVersion,
			Resources: res,
		})
	}

	return x
}

func nameToXML(name *string) *xmlName {
	if name == nil {
		return nil
	}
	return &xmlName{Text: *name}
}

func toolspecificToXML(t *Toolspecific) *xmlToolspecific {
	if t == nil {
		return nil
	}
	x := &xmlToolspecific{Tool: toolName, Version: toolVersion}
	if t.Operator != nil {
		x.Operator = &xmlOperator{
			ID:       t.Operator.ID,
			Type:     int(t.Operator.Type),
			Position: t.Operator.Position,
		}
	}
	if t.Trigger != nil {
		x.Trigger = &xmlTrigger{ID: t.Trigger.ID, Type: int(t.Trigger.Type)}
	}
	if t.TransitionResource != nil {
		x.Resource = &xmlTransitionRe{
			RoleName:               t.TransitionResource.RoleName,
			OrganizationalUnitName: t.TransitionResource.OrganizationalUnitName,
		}
	}
	if t.Subprocess {
		v := true
		x.Sub = &v
	}
	return x
}
