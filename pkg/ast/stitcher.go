package ast

import (
	"encoding/json"
	"sort"
	"strconv"
)

// memberKind names the contract-member kinds that participate in
// conflict-key computation (spec §3's Conflict Key definition).
const (
	kindFunction             = "FunctionDefinition"
	kindVariable             = "VariableDeclaration"
	kindEvent                = "EventDefinition"
	kindError                = "ErrorDefinition"
	kindModifier             = "ModifierDefinition"
	kindStruct               = "StructDefinition"
	kindEnum                 = "EnumDefinition"
	kindUserDefinedValueType = "UserDefinedValueTypeDefinition"
)

// FindTargetContract locates the contract a stitch/instrument/mutate
// call should operate on. A non-empty name selects the first
// ContractDefinition with that name; an empty name falls back to the
// last ContractDefinition encountered (stitcher.rs's
// find_instrumented_contract_index).
func FindTargetContract(unit interface{}, name string) (int, error) {
	root, ok := isNode(unit)
	if !ok {
		return 0, newErr(NoContracts, "source unit is not an object")
	}
	nodes, _ := root["nodes"].([]interface{})

	if name != "" {
		for i, raw := range nodes {
			n, ok := raw.(map[string]interface{})
			if !ok || n[nodeTypeKey] != "ContractDefinition" {
				continue
			}
			if n["name"] == name {
				return i, nil
			}
		}
		return 0, newErr(ContractNotFound, "contract \""+name+"\" not found")
	}

	lastIdx := -1
	for i, raw := range nodes {
		n, ok := raw.(map[string]interface{})
		if !ok || n[nodeTypeKey] != "ContractDefinition" {
			continue
		}
		lastIdx = i
	}
	if lastIdx == -1 {
		return 0, newErr(NoContracts, "source unit contains no contract definitions")
	}
	return lastIdx, nil
}

// conflictKey is a comparable value uniquely identifying a contract
// member for collision detection (spec §3's Conflict Key).
type conflictKey struct {
	present bool
	key     string
}

func memberConflictKey(member map[string]interface{}) conflictKey {
	kind, _ := member[nodeTypeKey].(string)
	name, _ := member["name"].(string)

	switch kind {
	case kindFunction:
		sig := functionSignature(member)
		funcKind, _ := member["kind"].(string)
		return conflictKey{present: true, key: "Function|" + name + "|" + sig + "|" + funcKind}
	case kindVariable, kindEvent, kindError, kindModifier, kindStruct, kindEnum, kindUserDefinedValueType:
		return conflictKey{present: true, key: kind + "|" + name}
	default:
		// UsingForDirective and anonymous members: never collide.
		return conflictKey{}
	}
}

// functionSignature returns the ordered parameter-type-key signature
// for a FunctionDefinition, the "canonical parameter type signature"
// from spec §3's Conflict Key / Function Signature definitions.
func functionSignature(fn map[string]interface{}) string {
	params, _ := fn["parameters"].(map[string]interface{})
	list, _ := params["parameters"].([]interface{})

	keys := make([]string, len(list))
	for i, raw := range list {
		param, _ := raw.(map[string]interface{})
		keys[i] = parameterTypeKey(param, i)
	}

	sig, _ := json.Marshal(keys)
	return string(sig)
}

// parameterTypeKey implements the priority chain from spec §3's
// Function Signature definition: typeIdentifier, else typeString, else
// a structural serialization of typeName with ids stripped, else a
// positional placeholder.
func parameterTypeKey(param map[string]interface{}, index int) string {
	if param == nil {
		return positionalPlaceholder(index)
	}

	descriptions, _ := param["typeDescriptions"].(map[string]interface{})
	if descriptions != nil {
		if id, ok := descriptions["typeIdentifier"].(string); ok && id != "" {
			return id
		}
		if str, ok := descriptions["typeString"].(string); ok && str != "" {
			return str
		}
	}

	if typeName, ok := param["typeName"]; ok && typeName != nil {
		stripped := dropIDs(typeName)
		serialized, err := json.Marshal(stripped)
		if err == nil {
			return string(serialized)
		}
	}

	return positionalPlaceholder(index)
}

func positionalPlaceholder(index int) string {
	return "__anon_parameter_" + strconv.Itoa(index)
}

// dropIDs structurally copies v, removing every "id" field, matching
// stitcher.rs's drop_ids used before serialising a typeName for
// comparison (ids must not affect equality of otherwise-identical
// types).
func dropIDs(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if k == idKey {
				continue
			}
			out[k] = dropIDs(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = dropIDs(child)
		}
		return out
	default:
		return val
	}
}

// collectIDs returns every id-bearing node's id within v, in traversal
// order, matching stitcher.rs's collect_ids used to snapshot a
// replaced member's original ids.
func collectIDs(v interface{}) []int64 {
	var ids []int64
	walk(v, func(n Node) {
		if id, ok := nodeID(n); ok {
			ids = append(ids, id)
		}
	})
	return ids
}

// Stitch merges fragmentContract's members into unit.nodes[targetIdx]
// under strategy, returning the mutated unit (spec §4.3's stitch
// operation). unit is mutated in place and also returned for
// convenience.
func Stitch(unit interface{}, targetIdx int, fragmentContract Node, strategy ConflictStrategy) (interface{}, error) {
	root, ok := isNode(unit)
	if !ok {
		return nil, newErr(InvariantViolation, "source unit is not an object")
	}
	nodes, _ := root["nodes"].([]interface{})
	if targetIdx < 0 || targetIdx >= len(nodes) {
		return nil, newErr(ContractNotFound, "target contract index out of range")
	}
	target, ok := nodes[targetIdx].(map[string]interface{})
	if !ok {
		return nil, newErr(InvariantViolation, "target node is not an object")
	}
	targetMembers, _ := target["nodes"].([]interface{})

	fragMembers, _ := fragmentContract["nodes"].([]interface{})

	counter := MaxID(unit)

	switch strategy {
	case Replace:
		targetMembers = stitchReplace(targetMembers, fragMembers, &counter)
	default:
		for _, raw := range fragMembers {
			member, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			targetMembers = append(targetMembers, cloneRenumberFrom(member, &counter))
		}
	}

	target["nodes"] = targetMembers
	return unit, nil
}

// targetEntry records a keyed existing member's position and the
// original id sequence within its subtree, so a later replacement can
// reuse those ids (spec §4.3's Replace algorithm).
type targetEntry struct {
	index int
	ids   []int64
}

func stitchReplace(targetMembers, fragMembers []interface{}, counter *int64) []interface{} {
	recorded := map[string]targetEntry{}
	for i, raw := range targetMembers {
		member, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		key := memberConflictKey(member)
		if !key.present {
			continue
		}
		recorded[key.key] = targetEntry{index: i, ids: collectIDs(member)}
	}

	// Replacements preserve target-side insertion order: collect
	// scheduled replacements keyed by target index, then apply in index
	// order.
	replacements := map[int]map[string]interface{}{}
	var appended []interface{}

	for _, raw := range fragMembers {
		member, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		key := memberConflictKey(member)
		if key.present {
			if entry, found := recorded[key.key]; found {
				replacements[entry.index] = applyIDSnapshot(member, entry.ids, counter)
				continue
			}
		}
		appended = append(appended, cloneRenumberFrom(member, counter))
	}

	indices := make([]int, 0, len(replacements))
	for idx := range replacements {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]interface{}, len(targetMembers))
	copy(out, targetMembers)
	for _, idx := range indices {
		out[idx] = replacements[idx]
	}
	return append(out, appended...)
}

// applyIDSnapshot overlays member's structure while reusing ids, in
// traversal order, instead of minting fresh ones for the first len(ids)
// nodeType-bearing nodes; any additional nodes draw fresh ids from
// counter (spec §4.3's "reuses the recorded id sequence ... additional
// nodes receive fresh ids from the counter").
func applyIDSnapshot(member map[string]interface{}, ids []int64, counter *int64) map[string]interface{} {
	cursor := 0
	next := func() int64 {
		if cursor < len(ids) {
			id := ids[cursor]
			cursor++
			return id
		}
		*counter++
		return *counter
	}
	out := assignIDsWith(member, next)
	return out.(map[string]interface{})
}

func assignIDsWith(v interface{}, next func() int64) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		_, tagged := val[nodeTypeKey]
		if tagged {
			out[idKey] = json.Number(strconv.FormatInt(next(), 10))
		}
		for k, child := range val {
			if tagged && k == idKey {
				continue
			}
			out[k] = assignIDsWith(child, next)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = assignIDsWith(child, next)
		}
		return out
	default:
		return val
	}
}

// cloneRenumberFrom deep-clone-renumbers v where counter holds the last
// id handed out (the convention applyIDSnapshot uses): the first clone
// gets *counter+1 and counter ends on the last id assigned.
func cloneRenumberFrom(v interface{}, counter *int64) interface{} {
	next := *counter + 1
	out := cloneRenumber(v, &next)
	*counter = next - 1
	return out
}
