package bpmn

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/woped/model-transformer/internal/transform/errs"
)

// Namespace is the OMG BPMN 2.0 model namespace of every document this
// binding reads and writes.
const Namespace = "http://www.omg.org/spec/BPMN/20100524/MODEL"

// The binding is unordered: element order within a container carries no
// semantics, so each element kind binds to its own slice. Unknown elements
// and attributes are discarded.

type xmlDefinitions struct {
	XMLName       xml.Name          `xml:"definitions"`
	Xmlns         string            `xml:"xmlns,attr,omitempty"`
	ID            string            `xml:"id,attr,omitempty"`
	Collaboration *xmlCollaboration `xml:"collaboration"`
	Processes     []*xmlProcess     `xml:"process"`
}

type xmlCollaboration struct {
	ID          string          `xml:"id,attr,omitempty"`
	Participant *xmlParticipant `xml:"participant"`
}

type xmlParticipant struct {
	ID         string  `xml:"id,attr,omitempty"`
	Name       *string `xml:"name,attr"`
	ProcessRef string  `xml:"processRef,attr,omitempty"`
}

type xmlProcess struct {
	ID   string  `xml:"id,attr"`
	Name *string `xml:"name,attr"`

	StartEvents        []*xmlFlowNode  `xml:"startEvent"`
	EndEvents          []*xmlFlowNode  `xml:"endEvent"`
	CatchEvents        []*xmlCatchNode `xml:"intermediateCatchEvent"`
	Tasks              []*xmlFlowNode  `xml:"task"`
	UserTasks          []*xmlFlowNode  `xml:"userTask"`
	ServiceTasks       []*xmlFlowNode  `xml:"serviceTask"`
	ExclusiveGateways  []*xmlFlowNode  `xml:"exclusiveGateway"`
	ParallelGateways   []*xmlFlowNode  `xml:"parallelGateway"`
	InclusiveGateways  []*xmlFlowNode  `xml:"inclusiveGateway"`
	EventBasedGateways []*xmlFlowNode  `xml:"eventBasedGateway"`
	SubProcesses       []*xmlProcess   `xml:"subProcess"`
	SequenceFlows      []*xmlFlow      `xml:"sequenceFlow"`
	LaneSets           []*xmlLaneSet   `xml:"laneSet"`
}

type xmlFlowNode struct {
	ID       string   `xml:"id,attr"`
	Name     *string  `xml:"name,attr"`
	Incoming []string `xml:"incoming"`
	Outgoing []string `xml:"outgoing"`
}

type xmlCatchNode struct {
	ID       string     `xml:"id,attr"`
	Name     *string    `xml:"name,attr"`
	Incoming []string   `xml:"incoming"`
	Outgoing []string   `xml:"outgoing"`
	Message  *xmlMarker `xml:"messageEventDefinition"`
	Timer    *xmlMarker `xml:"timerEventDefinition"`
	Cond     *xmlMarker `xml:"conditionalEventDefinition"`
}

// xmlMarker is an empty definition element whose presence selects a kind.
type xmlMarker struct{}

type xmlFlow struct {
	ID        string  `xml:"id,attr"`
	Name      *string `xml:"name,attr"`
	SourceRef string  `xml:"sourceRef,attr"`
	TargetRef string  `xml:"targetRef,attr"`
}

type xmlLaneSet struct {
	ID    string     `xml:"id,attr,omitempty"`
	Lanes []*xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID           string   `xml:"id,attr,omitempty"`
	Name         *string  `xml:"name,attr"`
	FlowNodeRefs []string `xml:"flowNodeRef"`
}

// Parse reads a BPMN XML document into the typed model. Parsing failures and
// documents without a process are reported as MalformedInput.
func Parse(data string) (*Definitions, error) {
	var doc xmlDefinitions
	if err := xml.Unmarshal([]byte(data), &doc); err != nil {
		return nil, &errs.MalformedInput{Err: err}
	}
	if len(doc.Processes) == 0 {
		return nil, &errs.MalformedInput{Err: fmt.Errorf("definitions contain no process")}
	}

	defs := &Definitions{
		ID:      doc.ID,
		Process: processFromXML(doc.Processes[0]),
	}
	if doc.Collaboration != nil {
		defs.Collaboration = &Collaboration{ID: doc.Collaboration.ID}
		if pa := doc.Collaboration.Participant; pa != nil {
			defs.Collaboration.Participant = &Participant{
				ID:         pa.ID,
				Name:       normName(pa.Name),
				ProcessRef: pa.ProcessRef,
			}
		}
	}
	return defs, nil
}

func processFromXML(x *xmlProcess) *Process {
	p := NewProcess(x.ID)
	p.Name = normName(x.Name)

	addAll := func(typ NodeType, nodes []*xmlFlowNode) {
		for _, n := range nodes {
			p.AddNode(&Node{Type: typ, ID: n.ID, Name: normName(n.Name)})
		}
	}
	addAll(TypeStartEvent, x.StartEvents)
	addAll(TypeEndEvent, x.EndEvents)
	addAll(TypeTask, x.Tasks)
	addAll(TypeUserTask, x.UserTasks)
	addAll(TypeServiceTask, x.ServiceTasks)
	addAll(TypeXorGateway, x.ExclusiveGateways)
	addAll(TypeAndGateway, x.ParallelGateways)
	addAll(TypeOrGateway, x.InclusiveGateways)
	addAll(TypeEventGateway, x.EventBasedGateways)

	for _, n := range x.CatchEvents {
		kind := TriggerNone
		switch {
		case n.Message != nil:
			kind = TriggerMessage
		case n.Timer != nil:
			kind = TriggerTime
		case n.Cond != nil:
			kind = TriggerResource
		}
		p.AddNode(&Node{
			Type:    TypeIntermediateCatchEvent,
			ID:      n.ID,
			Name:    normName(n.Name),
			Trigger: kind,
		})
	}

	for _, sub := range x.SubProcesses {
		inner := processFromXML(sub)
		p.AddNode(&Node{Type: TypeSubprocess, ID: inner.ID, Name: inner.Name, Sub: inner})
	}

	// The incoming/outgoing child elements of the nodes are derived data;
	// the indices are rebuilt from the sequence flows.
	for _, f := range x.SequenceFlows {
		p.insertFlow(&Flow{
			ID:        f.ID,
			Name:      normName(f.Name),
			SourceRef: f.SourceRef,
			TargetRef: f.TargetRef,
		})
	}

	for _, ls := range x.LaneSets {
		laneSet := &LaneSet{ID: ls.ID}
		for _, l := range ls.Lanes {
			laneSet.Lanes = append(laneSet.Lanes, &Lane{
				ID:           l.ID,
				Name:         normName(l.Name),
				FlowNodeRefs: append([]string(nil), l.FlowNodeRefs...),
			})
		}
		p.LaneSets = append(p.LaneSets, laneSet)
	}

	return p
}

// normName maps absent and empty name attributes to nil.
func normName(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Marshal writes the model back to XML. Sibling elements are emitted grouped
// by kind and sorted by id so that serialization is deterministic.
func Marshal(defs *Definitions) (string, error) {
	doc := xmlDefinitions{
		Xmlns: Namespace,
		ID:    defs.ID,
	}
	if c := defs.Collaboration; c != nil {
		doc.Collaboration = &xmlCollaboration{ID: c.ID}
		if c.Participant != nil {
			doc.Collaboration.Participant = &xmlParticipant{
				ID:         c.Participant.ID,
				Name:       c.Participant.Name,
				ProcessRef: c.Participant.ProcessRef,
			}
		}
	}
	doc.Processes = []*xmlProcess{processToXML(defs.Process)}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func processToXML(p *Process) *xmlProcess {
	x := &xmlProcess{ID: p.ID, Name: p.Name}

	for _, n := range p.Nodes() {
		fn := &xmlFlowNode{
			ID:       n.ID,
			Name:     n.Name,
			Incoming: flowIDs(p.Incoming(n.ID)),
			Outgoing: flowIDs(p.Outgoing(n.ID)),
		}
		switch n.Type {
		case TypeStartEvent:
			x.StartEvents = append(x.StartEvents, fn)
		case TypeEndEvent:
			x.EndEvents = append(x.EndEvents, fn)
		case TypeTask, TypeGeneric:
			// Structural helper nodes surviving to serialization render as
			// plain tasks.
			x.Tasks = append(x.Tasks, fn)
		case TypeUserTask:
			x.UserTasks = append(x.UserTasks, fn)
		case TypeServiceTask:
			x.ServiceTasks = append(x.ServiceTasks, fn)
		case TypeXorGateway:
			x.ExclusiveGateways = append(x.ExclusiveGateways, fn)
		case TypeAndGateway:
			x.ParallelGateways = append(x.ParallelGateways, fn)
		case TypeOrGateway:
			x.InclusiveGateways = append(x.InclusiveGateways, fn)
		case TypeEventGateway:
			x.EventBasedGateways = append(x.EventBasedGateways, fn)
		case TypeIntermediateCatchEvent:
			ce := &xmlCatchNode{
				ID:       fn.ID,
				Name:     fn.Name,
				Incoming: fn.Incoming,
				Outgoing: fn.Outgoing,
			}
			switch n.Trigger {
			case TriggerMessage:
				ce.Message = &xmlMarker{}
			case TriggerTime:
				ce.Timer = &xmlMarker{}
			case TriggerResource:
				ce.Cond = &xmlMarker{}
			}
			x.CatchEvents = append(x.CatchEvents, ce)
		case TypeSubprocess:
			x.SubProcesses = append(x.SubProcesses, processToXML(n.Sub))
		}
	}

	for _, f := range p.Flows() {
		x.SequenceFlows = append(x.SequenceFlows, &xmlFlow{
			ID:        f.ID,
			Name:      f.Name,
			SourceRef: f.SourceRef,
			TargetRef: f.TargetRef,
		})
	}

	for _, ls := range p.LaneSets {
		xs := &xmlLaneSet{ID: ls.ID}
		lanes := append([]*Lane(nil), ls.Lanes...)
		sort.Slice(lanes, func(i, j int) bool { return lanes[i].ID < lanes[j].ID })
		for _, l := range lanes {
			refs := append([]string(nil), l.FlowNodeRefs...)
			sort.Strings(refs)
			xs.Lanes = append(xs.Lanes, &xmlLane{ID: l.ID, Name: l.Name, FlowNodeRefs: refs})
		}
		x.LaneSets = append(x.LaneSets, xs)
	}

	return x
}

func flowIDs(flows []*Flow) []string {
	out := make([]string, 0, len(flows))
	for _, f := range flows {
		out = append(out, f.ID)
	}
	sort.Strings(out)
	return out
}

// TaskKindFromName recovers the task subtype encoded in a transition name
// prefix and returns the stripped name.
func TaskKindFromName(name *string) (NodeType, *string) {
	if name == nil {
		return TypeTask, nil
	}
	switch {
	case strings.HasPrefix(*name, "[UserTask] "):
		return TypeUserTask, normName(Strptr(strings.TrimPrefix(*name, "[UserTask] ")))
	case strings.HasPrefix(*name, "[ServiceTask] "):
		return TypeServiceTask, normName(Strptr(strings.TrimPrefix(*name, "[ServiceTask] ")))
	}
	return TypeTask, name
}
