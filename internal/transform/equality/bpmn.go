package equality

import (
	"fmt"
	"sort"

	"github.com/woped/model-transformer/internal/transform/bpmn"
)

// GetAllProcessesByID collects the process and all nested subprocesses into
// m, keyed by id.
func GetAllProcessesByID(p *bpmn.Process, m map[string]*bpmn.Process) {
	if _, ok := m[p.ID]; !ok {
		m[p.ID] = p
	}
	for _, sub := range p.Subprocesses() {
		m[sub.ID] = sub
		GetAllProcessesByID(sub, m)
	}
}

// bpmnTypeMap buckets the nodes, flows and lane sets of one process.
func bpmnTypeMap(p *bpmn.Process) typeMap {
	m := make(typeMap)

	for _, n := range p.Nodes() {
		out := flowIDList(p.Outgoing(n.ID))
		in := flowIDList(p.Incoming(n.ID))
		m.add(string(n.Type), compString(n.ID, derefName(n.Name), out, in))
	}
	for _, f := range p.Flows() {
		m.add("sequenceFlow", compString(derefName(f.Name), f.SourceRef, f.TargetRef))
	}
	for _, ls := range p.LaneSets {
		lanes := append([]*bpmn.Lane(nil), ls.Lanes...)
		sort.Slice(lanes, func(i, j int) bool { return lanes[i].ID < lanes[j].ID })
		var parts []any
		for _, l := range lanes {
			refs := append([]string(nil), l.FlowNodeRefs...)
			sort.Strings(refs)
			parts = append(parts, fmt.Sprintf("(%s,%v)", derefName(l.Name), refs))
		}
		m.add("laneSet", compString(parts...))
	}

	return m
}

func flowIDList(flows []*bpmn.Flow) string {
	ids := make([]string, 0, len(flows))
	for _, f := range flows {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	return fmt.Sprint(ids)
}

// organization returns the pool organization of the model, or nil.
func organization(defs *bpmn.Definitions) *string {
	return defs.Organization()
}

// CompareBPMN reports whether the two models are structurally equal, with a
// diagnostic on mismatch.
func CompareBPMN(a, b *bpmn.Definitions) (bool, string) {
	aProcesses := make(map[string]*bpmn.Process)
	GetAllProcessesByID(a.Process, aProcesses)
	bProcesses := make(map[string]*bpmn.Process)
	GetAllProcessesByID(b.Process, bProcesses)

	if !sameKeys(processKeys(aProcesses), processKeys(bProcesses)) {
		return false, "Wrong processes IDs"
	}

	if derefName(organization(a)) != derefName(organization(b)) {
		return false, "Wrong organizations"
	}

	var errors []string
	ids := processKeys(aProcesses)
	for _, id := range ids {
		diff := compareTypeMaps(id, bpmnTypeMap(aProcesses[id]), bpmnTypeMap(bProcesses[id]))
		if diff != "" {
			errors = append(errors, diff)
		}
	}

	if len(errors) > 0 {
		return false, "Issues BPMN equality for types:\n" + joinLines(errors)
	}
	return true, ""
}

func processKeys(m map[string]*bpmn.Process) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
