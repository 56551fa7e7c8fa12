package equality

import (
	"sort"

	"github.com/woped/model-transformer/internal/transform/pnml"
)

// GetAllNetsByID collects the net and all nets nested in its pages into m,
// keyed by id.
func GetAllNetsByID(n *pnml.Net, m map[string]*pnml.Net) {
	if n.ID != "" {
		if _, ok := m[n.ID]; !ok {
			m[n.ID] = n
		}
	}
	for _, page := range n.Pages {
		id := page.ID
		if id == "" {
			id = page.Net.ID
		}
		m[id] = page.Net
		GetAllNetsByID(page.Net, m)
	}
}

// petriNetTypeMap buckets the places, transitions, arcs and the global
// toolspecific block of one net.
func petriNetTypeMap(n *pnml.Net) typeMap {
	m := make(typeMap)

	for _, e := range n.Elements() {
		bucket := "transition"
		if e.Kind == pnml.KindPlace {
			bucket = "place"
		}
		m.add(bucket, compString(e.ID, derefName(e.Name), toolspecificString(e)))
	}
	for _, a := range n.Arcs() {
		m.add("arc", compString(a.Source, a.Target))
	}
	if g := n.ToolspecificGlobal; g != nil {
		m.add("toolspecificGlobal", g.CompString())
	}

	return m
}

func toolspecificString(e *pnml.Element) string {
	if e.Toolspecific == nil {
		return "-"
	}
	return compString(
		operatorString(e),
		triggerString(e),
		resourceString(e),
		e.IsWorkflowSubprocess(),
	)
}

func operatorString(e *pnml.Element) string {
	if !e.IsWorkflowOperator() {
		return "-"
	}
	op := e.Toolspecific.Operator
	return compString(op.ID, int(op.Type), op.Position)
}

func triggerString(e *pnml.Element) string {
	if e.Toolspecific.Trigger == nil {
		return "-"
	}
	return compString(int(e.Toolspecific.Trigger.Type))
}

func resourceString(e *pnml.Element) string {
	if e.Toolspecific.TransitionResource == nil {
		return "-"
	}
	r := e.Toolspecific.TransitionResource
	return compString(r.RoleName, r.OrganizationalUnitName)
}

// ComparePNML reports whether the two nets are structurally equal, with a
// diagnostic on mismatch.
func ComparePNML(a, b *pnml.Net) (bool, string) {
	aNets := make(map[string]*pnml.Net)
	GetAllNetsByID(a, aNets)
	bNets := make(map[string]*pnml.Net)
	GetAllNetsByID(b, bNets)

	if !sameKeys(netKeys(aNets), netKeys(bNets)) {
		return false, "Different subnet IDs"
	}

	var errors []string
	for _, id := range netKeys(aNets) {
		diff := compareTypeMaps(id, petriNetTypeMap(aNets[id]), petriNetTypeMap(bNets[id]))
		if diff != "" {
			errors = append(errors, diff)
		}
	}

	if len(errors) > 0 {
		return false, "Issues petrinet equality for types:\n" + joinLines(errors)
	}
	return true, ""
}

func netKeys(m map[string]*pnml.Net) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
