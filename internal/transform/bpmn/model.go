// Package bpmn holds the typed BPMN process tree, the mutable graph substrate
// over it and the XML binding for the OMG BPMN 2.0 namespace.
package bpmn

// NodeType enumerates the closed set of BPMN node kinds. The values double as
// the XML element names of the BPMN 2.0 model namespace.
type NodeType string

const (
	TypeStartEvent             NodeType = "startEvent"
	TypeEndEvent               NodeType = "endEvent"
	TypeIntermediateCatchEvent NodeType = "intermediateCatchEvent"
	TypeTask                   NodeType = "task"
	TypeUserTask               NodeType = "userTask"
	TypeServiceTask            NodeType = "serviceTask"
	TypeXorGateway             NodeType = "exclusiveGateway"
	TypeAndGateway             NodeType = "parallelGateway"
	TypeOrGateway              NodeType = "inclusiveGateway"
	TypeEventGateway           NodeType = "eventBasedGateway"
	TypeSubprocess             NodeType = "subProcess"

	// TypeGeneric is a structural helper node introduced by preprocessing.
	// It has no BPMN element of its own and maps to a place on the Petri-net
	// side.
	TypeGeneric NodeType = "node"
)

// TriggerKind is the trigger of an intermediate catch event.
type TriggerKind string

const (
	TriggerNone     TriggerKind = ""
	TriggerMessage  TriggerKind = "message"
	TriggerTime     TriggerKind = "time"
	TriggerResource TriggerKind = "resource"
)

// Node is one BPMN flow node. Shared attributes live here; kind-specific
// payload is the trigger kind for catch events and the nested process for
// subprocess nodes.
type Node struct {
	Type NodeType
	ID   string
	Name *string

	// Trigger is set for intermediate catch events.
	Trigger TriggerKind

	// Sub is the nested process of a subprocess node.
	Sub *Process
}

// IsGateway reports whether the node is one of the gateway kinds.
func (n *Node) IsGateway() bool {
	switch n.Type {
	case TypeXorGateway, TypeAndGateway, TypeOrGateway, TypeEventGateway:
		return true
	}
	return false
}

// IsTask reports whether the node is a task of any subtype.
func (n *Node) IsTask() bool {
	switch n.Type {
	case TypeTask, TypeUserTask, TypeServiceTask:
		return true
	}
	return false
}

// Flow is a directed sequence flow between two nodes of the same process.
type Flow struct {
	ID        string
	Name      *string
	SourceRef string
	TargetRef string
}

// Lane is a named swimlane referencing its member node ids.
type Lane struct {
	ID           string
	Name         *string
	FlowNodeRefs []string
}

// LaneSet groups the lanes of one process.
type LaneSet struct {
	ID    string
	Lanes []*Lane
}

// Participant is the pool of a collaboration; its name is the organization.
type Participant struct {
	ID         string
	Name       *string
	ProcessRef string
}

// Collaboration wraps the single participant of the model.
type Collaboration struct {
	ID          string
	Participant *Participant
}

// Definitions is the root of a parsed BPMN model: one process plus an
// optional collaboration.
type Definitions struct {
	ID            string
	Process       *Process
	Collaboration *Collaboration
}

// Organization returns the participant name of the pool, or nil.
func (d *Definitions) Organization() *string {
	if d.Collaboration == nil || d.Collaboration.Participant == nil {
		return nil
	}
	return d.Collaboration.Participant.Name
}

// GenerateEmptyBPMN returns definitions holding a single empty process.
func GenerateEmptyBPMN(id string) *Definitions {
	return &Definitions{
		ID:      id + "_definitions",
		Process: NewProcess(id),
	}
}

// Strptr returns a pointer to s. Helper for literal names in construction and
// tests.
func Strptr(s string) *string { return &s }
