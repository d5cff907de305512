package ast

// visibilityKey is the field every variable/function member carries;
// idempotent promotion simply overwrites it.
const visibilityKey = "visibility"

// ExposeVariables sets every VariableDeclaration member's visibility
// to "public" across the given contracts (spec §4.5).
func ExposeVariables(contracts []interface{}) {
	mutateMembers(contracts, kindVariable)
}

// ExposeFunctions sets every FunctionDefinition member's visibility to
// "public" across the given contracts (spec §4.5).
func ExposeFunctions(contracts []interface{}) {
	mutateMembers(contracts, kindFunction)
}

// mutateMembers promotes every member of memberKind within contracts
// to public visibility, inserting the field if absent. Idempotent:
// re-running leaves an already-public member unchanged.
func mutateMembers(contracts []interface{}, memberKind string) {
	for _, raw := range contracts {
		contract, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		members, _ := contract["nodes"].([]interface{})
		for _, m := range members {
			member, ok := m.(map[string]interface{})
			if !ok || member[nodeTypeKey] != memberKind {
				continue
			}
			member[visibilityKey] = "public"
		}
	}
}

// contractsForMutation resolves which contracts a visibility call
// should target: the pinned target if targetIdx is non-negative,
// otherwise every ContractDefinition in the unit (spec §4.5: "for the
// target contract, or, if no default is set and no override is
// provided, every ContractDefinition in the unit").
func contractsForMutation(unit interface{}, targetIdx int) []interface{} {
	root, ok := isNode(unit)
	if !ok {
		return nil
	}
	nodes, _ := root["nodes"].([]interface{})

	if targetIdx >= 0 {
		if targetIdx >= len(nodes) {
			return nil
		}
		return []interface{}{nodes[targetIdx]}
	}

	var all []interface{}
	for _, n := range nodes {
		contract, ok := n.(map[string]interface{})
		if ok && contract[nodeTypeKey] == "ContractDefinition" {
			all = append(all, contract)
		}
	}
	return all
}
