package ast

import (
	"encoding/json"
	"strconv"
)

// Node is a single Solidity AST node decoded as an open map, the Go
// analogue of serde_json::Value: only the handful of fields the engine
// actually inspects (nodeType, id, nodeId references, ...) are named by
// callers, everything else round-trips verbatim.
type Node = map[string]interface{}

// idKey is the field holding a node's integer identifier. Whether a map
// is a node is decided by nodeTypeKey's presence, not by this field
// (see isNode).
const idKey = "id"

// nodeTypeKey discriminates node kinds.
const nodeTypeKey = "nodeType"

// nodeID reads a node's id as an int64, tolerating both json.Number
// (decoder used with UseNumber) and float64 (decoder used without it)
// since solc's AST ids are always small non-negative integers in
// practice but callers may hand us either decoding.
func nodeID(n Node) (int64, bool) {
	raw, ok := n[idKey]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// idAsNumber encodes i the same way the decoder would have, so
// hand-constructed nodes (e.g. synthetic Block wrappers) carry ids
// indistinguishable from parsed ones.
func idAsNumber(i int64) json.Number {
	return json.Number(strconv.FormatInt(i, 10))
}

func isNode(v interface{}) (Node, bool) {
	m, ok := v.(Node)
	if !ok {
		return nil, false
	}
	if _, ok := m[nodeTypeKey]; !ok {
		return nil, false
	}
	return m, true
}

// walk invokes fn on every node-shaped object reachable from v,
// including v itself, descending through maps and slices.
func walk(v interface{}, fn func(Node)) {
	switch val := v.(type) {
	case map[string]interface{}:
		if n, ok := isNode(val); ok {
			fn(n)
		}
		for _, child := range val {
			walk(child, fn)
		}
	case []interface{}:
		for _, child := range val {
			walk(child, fn)
		}
	}
}

// MaxID returns the highest node id reachable from root, or 0 if root
// contains no id-bearing nodes. Grounded on utils.rs's walk_max_id /
// max_id: a plain recursive fold over the tree, not a cache, since the
// tree mutates under the engine on every instrumentation call.
func MaxID(root interface{}) int64 {
	var max int64
	walk(root, func(n Node) {
		if id, ok := nodeID(n); ok && id > max {
			max = id
		}
	})
	return max
}

// CloneWithNewIDs deep-copies root and assigns every nodeType-bearing
// node a fresh id, strictly increasing in traversal order (a node
// before its children) and starting above the tree's current maximum, preserving invariant I1 (global id uniqueness) across the
// clone. Nodes missing an id are assigned one rather than left absent,
// matching clone_with_new_ids_assigns_ids_when_missing in utils.rs.
func CloneWithNewIDs(root interface{}) interface{} {
	next := MaxID(root) + 1
	return cloneRenumber(root, &next)
}

func cloneRenumber(v interface{}, next *int64) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		_, tagged := val[nodeTypeKey]
		if tagged {
			out[idKey] = json.Number(strconv.FormatInt(*next, 10))
			*next++
		}
		for k, child := range val {
			if tagged && k == idKey {
				continue
			}
			out[k] = cloneRenumber(child, next)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = cloneRenumber(child, next)
		}
		return out
	default:
		return val
	}
}
