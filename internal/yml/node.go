// Package yml provides order-preserving helpers over yaml.v3 nodes. Chart
// definitions rely on mapping order to keep sibling states in declaration
// order.
package yml

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	Node yaml.Node
)

// Root unwraps a document node.
func (n *Node) Root() *Node {
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

// Lookup returns the value node for a mapping key (case-insensitive) or nil.
func (n *Node) Lookup(name string) *Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if strings.EqualFold(n.Content[i].Value, name) {
			return (*Node)(n.Content[i+1])
		}
	}
	return nil
}

// Items iterates sequence elements.
func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i := 0; i < len(n.Content); i++ {
		if err := callback(i, (*Node)(n.Content[i])); err != nil {
			return err
		}
	}
	return nil
}

// Pairs iterates mapping entries in declaration order.
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// String returns a scalar value or an error for non-scalar nodes.
func (n *Node) String() (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected scalar", n.Line)
	}
	return n.Value, nil
}

// Bool returns a boolean scalar value.
func (n *Node) Bool() (bool, error) {
	if n.Kind != yaml.ScalarNode {
		return false, fmt.Errorf("line %d: expected boolean", n.Line)
	}
	ret, err := strconv.ParseBool(n.Value)
	if err != nil {
		return false, fmt.Errorf("line %d: invalid boolean %q", n.Line, n.Value)
	}
	return ret, nil
}

// Interface converts the node into plain Go values.
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			v, _ := strconv.ParseBool(n.Value)
			return v
		case "!!null":
			return nil
		case "!!float":
			v, _ := strconv.ParseFloat(n.Value, 64)
			return v
		case "!!int":
			v, _ := strconv.Atoi(n.Value)
			return v
		default:
			return n.Value
		}
	case yaml.MappingNode:
		var aMap = make(map[string]interface{})
		for i := 0; i+1 < len(n.Content); i += 2 {
			aMap[n.Content[i].Value] = (*Node)(n.Content[i+1]).Interface()
		}
		return aMap
	case yaml.SequenceNode:
		var aSlice = make([]interface{}, 0, len(n.Content))
		for i := 0; i < len(n.Content); i++ {
			aSlice = append(aSlice, (*Node)(n.Content[i]).Interface())
		}
		return aSlice
	case yaml.AliasNode:
		if n.Alias != nil {
			return (*Node)(n.Alias).Interface()
		}
	}
	return nil
}
