// Package bpmntopnml implements the BPMN to workflow-net pipeline:
// participant mapping, preprocessing of gateways and adjacent nodes, the main
// structural translation and the trigger-merge postprocess.
package bpmntopnml

import (
	"sort"

	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/errs"
	"github.com/woped/model-transformer/internal/transform/pnml"
)

// CreateParticipantMapping walks the lane sets of the process and derives the
// node id to lane name mapping, recursing into subprocesses. Subprocess
// members inherit the lane of their enclosing subprocess node. A lane that
// has members but no name fails with UnnamedLane.
func CreateParticipantMapping(p *bpmn.Process) error {
	if len(p.LaneSets) == 0 {
		return nil
	}

	// lane name -> member node ids
	laneMembers := make(map[string][]string)
	for _, ls := range p.LaneSets {
		for _, lane := range ls.Lanes {
			for _, ref := range lane.FlowNodeRefs {
				if lane.Name == nil {
					return &errs.UnnamedLane{}
				}
				laneMembers[*lane.Name] = append(laneMembers[*lane.Name], ref)
			}
		}
	}

	mapping := make(map[string]string)
	for laneName, members := range laneMembers {
		for _, id := range members {
			mapping[id] = laneName
		}
	}

	for _, sub := range p.Subprocesses() {
		laneName, ok := mapping[sub.ID]
		if !ok {
			// A subprocess outside every lane contributes no resources.
			continue
		}
		findSubprocessParticipants(mapping, sub, laneName)
	}

	p.ParticipantMapping = mapping
	return nil
}

// findSubprocessParticipants assigns the enclosing lane to every user task of
// the subprocess and its nested subprocesses.
func findSubprocessParticipants(mapping map[string]string, sub *bpmn.Process, laneName string) {
	sub.ParticipantMapping = mapping
	for _, nested := range sub.Subprocesses() {
		findSubprocessParticipants(mapping, nested, laneName)
	}
	for _, n := range sub.Nodes() {
		if n.Type == bpmn.TypeUserTask {
			mapping[n.ID] = laneName
		}
	}
}

// SetGlobalToolspecific writes the resource catalogue of the net: one role
// per distinct lane plus the organization unit of the pool.
func SetGlobalToolspecific(net *pnml.Net, mapping map[string]string, organization string) {
	if len(mapping) == 0 {
		return
	}

	seen := make(map[string]bool)
	var roles []string
	for _, laneName := range mapping {
		if !seen[laneName] {
			seen[laneName] = true
			roles = append(roles, laneName)
		}
	}
	sort.Strings(roles)

	g := &pnml.ToolspecificGlobal{}
	for _, r := range roles {
		g.Resources.Roles = append(g.Resources.Roles, pnml.Role{Name: r})
	}
	g.Resources.Units = append(g.Resources.Units, pnml.OrganizationUnit{Name: organization})
	net.ToolspecificGlobal = g
}
