// Package pnml holds the typed PNML tree with the WoPeD workflow extensions,
// the mutable graph substrate over it and the XML binding.
package pnml

import (
	"fmt"
	"sort"
	"strings"
)

// ElementKind enumerates the node kinds of a net. GatewayHelper and
// TriggerHelper are translation-time pseudo-nodes standing in for an operator
// cluster and a decomposed trigger; both behave as transitions with respect
// to the place/transition alternation.
type ElementKind int

const (
	KindPlace ElementKind = iota
	KindTransition
	KindGatewayHelper
	KindTriggerHelper
)

// OperatorType is the numeric WoPeD workflow operator type.
type OperatorType int

const (
	AndSplit        OperatorType = 101
	AndJoin         OperatorType = 102
	AndSplitJoin    OperatorType = 103
	XorSplit        OperatorType = 104
	XorJoin         OperatorType = 105
	XorSplitJoin    OperatorType = 106
	AndJoinXorSplit OperatorType = 107
	XorJoinAndSplit OperatorType = 108
	AndJoinSplit    OperatorType = 109
	XorJoinSplit    OperatorType = 110
)

// IsJoinType reports whether the operator has a join side that a trigger
// merge must not cross.
func (t OperatorType) IsJoinType() bool {
	switch t {
	case XorJoin, AndJoin, XorJoinAndSplit, AndJoinXorSplit, XorJoinSplit, AndJoinSplit:
		return true
	}
	return false
}

// IsPureSplit reports whether the operator is a plain split.
func (t OperatorType) IsPureSplit() bool {
	return t == XorSplit || t == AndSplit
}

// IsAndFamily reports whether the operator renders as a parallel gateway.
// Mixed types are bucketed by their split side.
func (t OperatorType) IsAndFamily() bool {
	switch t {
	case AndSplit, AndJoin, AndSplitJoin, AndJoinSplit, XorJoinAndSplit:
		return true
	}
	return false
}

// TriggerType is the numeric WoPeD trigger type.
type TriggerType int

const (
	TriggerResource TriggerType = 200
	TriggerMessage  TriggerType = 201
	TriggerTime     TriggerType = 202
)

// Operator is the workflow operator reference of a toolspecific block.
// Elements sharing an operator id form one cluster.
type Operator struct {
	ID       string
	Type     OperatorType
	Position int
}

// Trigger marks a transition whose firing is conditioned on an external
// event.
type Trigger struct {
	ID   string
	Type TriggerType
}

// TransitionResource assigns a role and an organizational unit to a
// transition that stands for a user task.
type TransitionResource struct {
	RoleName               string
	OrganizationalUnitName string
}

// Toolspecific is the WoPeD extension block of one net element.
type Toolspecific struct {
	Operator           *Operator
	Trigger            *Trigger
	TransitionResource *TransitionResource
	Subprocess         bool
}

// IsEmpty reports whether the block carries no information and can be
// dropped.
func (t *Toolspecific) IsEmpty() bool {
	return t.Operator == nil && t.Trigger == nil && t.TransitionResource == nil && !t.Subprocess
}

// Role is a named resource role of the global toolspecific block.
type Role struct {
	Name string
}

// OrganizationUnit is a named organization of the global toolspecific block.
type OrganizationUnit struct {
	Name string
}

// Resources lists the roles and organization units of a net.
type Resources struct {
	Roles []Role
	Units []OrganizationUnit
}

// ToolspecificGlobal is the net-level WoPeD extension carrying the resource
// catalogue.
type ToolspecificGlobal struct {
	Resources Resources
}

// CompString renders the catalogue into the canonical comparison form.
func (t *ToolspecificGlobal) CompString() string {
	roles := make([]string, 0, len(t.Resources.Roles))
	for _, r := range t.Resources.Roles {
		roles = append(roles, r.Name)
	}
	sort.Strings(roles)
	units := make([]string, 0, len(t.Resources.Units))
	for _, u := range t.Resources.Units {
		units = append(units, u.Name)
	}
	sort.Strings(units)
	return fmt.Sprintf("roles(%s)units(%s)", strings.Join(roles, ","), strings.Join(units, ","))
}

// Element is one node of a net: a place, a transition or a translation-time
// pseudo-node. Shared attributes live here; the toolspecific block carries
// the WoPeD payload.
type Element struct {
	Kind         ElementKind
	ID           string
	Name         *string
	Toolspecific *Toolspecific
}

// NewPlace returns an unnamed place.
func NewPlace(id string) *Element {
	return &Element{Kind: KindPlace, ID: id}
}

// NewTransition returns a transition; a nil name makes it silent.
func NewTransition(id string, name *string) *Element {
	return &Element{Kind: KindTransition, ID: id, Name: name}
}

// IsPlaceLike reports whether the element occupies a place slot in the
// place/transition alternation.
func (e *Element) IsPlaceLike() bool { return e.Kind == KindPlace }

// ensureToolspecific returns the toolspecific block, allocating it first if
// needed.
func (e *Element) ensureToolspecific() *Toolspecific {
	if e.Toolspecific == nil {
		e.Toolspecific = &Toolspecific{}
	}
	return e.Toolspecific
}

// IsWorkflowOperator reports whether the element belongs to an operator
// cluster.
func (e *Element) IsWorkflowOperator() bool {
	return e.Toolspecific != nil && e.Toolspecific.Operator != nil
}

// OperatorType returns the operator type and whether one is present.
func (e *Element) OperatorType() (OperatorType, bool) {
	if !e.IsWorkflowOperator() {
		return 0, false
	}
	return e.Toolspecific.Operator.Type, true
}

// IsWorkflowTrigger reports whether the element carries an event trigger
// (message or time). Resource triggers belong to the user-task path and are
// reported by IsWorkflowResource.
func (e *Element) IsWorkflowTrigger() bool {
	return e.Toolspecific != nil && e.Toolspecific.Trigger != nil &&
		(e.Toolspecific.Trigger.Type == TriggerMessage || e.Toolspecific.Trigger.Type == TriggerTime)
}

// IsWorkflowMessage reports a message trigger.
func (e *Element) IsWorkflowMessage() bool {
	return e.Toolspecific != nil && e.Toolspecific.Trigger != nil &&
		e.Toolspecific.Trigger.Type == TriggerMessage
}

// IsWorkflowTime reports a time trigger.
func (e *Element) IsWorkflowTime() bool {
	return e.Toolspecific != nil && e.Toolspecific.Trigger != nil &&
		e.Toolspecific.Trigger.Type == TriggerTime
}

// IsWorkflowResource reports whether the element stands for a user task,
// either by its resource annotation or by a resource trigger.
func (e *Element) IsWorkflowResource() bool {
	if e.Toolspecific == nil {
		return false
	}
	if e.Toolspecific.TransitionResource != nil {
		return true
	}
	return e.Toolspecific.Trigger != nil && e.Toolspecific.Trigger.Type == TriggerResource
}

// IsWorkflowSubprocess reports the subprocess marker.
func (e *Element) IsWorkflowSubprocess() bool {
	return e.Toolspecific != nil && e.Toolspecific.Subprocess
}

// MarkAsWorkflowMessage sets a message trigger on the element.
func (e *Element) MarkAsWorkflowMessage() {
	e.ensureToolspecific().Trigger = &Trigger{Type: TriggerMessage}
}

// MarkAsWorkflowTime sets a time trigger on the element.
func (e *Element) MarkAsWorkflowTime() {
	e.ensureToolspecific().Trigger = &Trigger{Type: TriggerTime}
}

// MarkAsWorkflowSubprocess sets the subprocess marker.
func (e *Element) MarkAsWorkflowSubprocess() {
	e.ensureToolspecific().Subprocess = true
}

// SetOperator attaches an operator reference.
func (e *Element) SetOperator(id string, t OperatorType, position int) {
	e.ensureToolspecific().Operator = &Operator{ID: id, Type: t, Position: position}
}

// SetTrigger attaches a trigger of the given type.
func (e *Element) SetTrigger(t TriggerType) {
	e.ensureToolspecific().Trigger = &Trigger{Type: t}
}

// SetResource attaches a role and organizational unit.
func (e *Element) SetResource(role, unit string) {
	e.ensureToolspecific().TransitionResource = &TransitionResource{
		RoleName:               role,
		OrganizationalUnitName: unit,
	}
}

// ClearTrigger removes the trigger and drops an empty toolspecific block.
func (e *Element) ClearTrigger() {
	if e.Toolspecific == nil {
		return
	}
	e.Toolspecific.Trigger = nil
	if e.Toolspecific.IsEmpty() {
		e.Toolspecific = nil
	}
}

// GetName returns the element name, or nil for silent elements.
func (e *Element) GetName() *string { return e.Name }

// Strptr returns a pointer to s.
func Strptr(s string) *string { return &s }
