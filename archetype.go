package tsumiki

import (
	"fmt"
	"strings"
)

// archetypeNode is the canonical identity of one set of component types.
// Nodes hang off a sentinel root; ids strictly increase along every
// root-to-node path, so a given set has exactly one node.
type archetypeNode struct {
	info     *typeInfo // nil at the root
	rank     int
	parent   *archetypeNode
	children map[int]*archetypeNode
	mask     typeSet
	types    []*typeInfo // root-to-node path, ascending by id
}

func (n *archetypeNode) String() string {
	names := make([]string, len(n.types))
	for i, info := range n.types {
		names[i] = info.name
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// archetypeTrie memoizes every archetype seen by one world.
type archetypeTrie struct {
	root  *archetypeNode
	nodes int
}

func newArchetypeTrie() *archetypeTrie {
	return &archetypeTrie{
		root:  &archetypeNode{rank: sentinelRank},
		nodes: 1,
	}
}

// child returns the memoized forward transition from n by info, creating it
// on first use. Callers guarantee info.id > n.rank.
func (t *archetypeTrie) child(n *archetypeNode, info *typeInfo) *archetypeNode {
	if c, ok := n.children[info.id]; ok {
		return c
	}
	if n.children == nil {
		n.children = make(map[int]*archetypeNode, 2)
	}
	types := make([]*typeInfo, len(n.types)+1)
	copy(types, n.types)
	types[len(n.types)] = info
	c := &archetypeNode{
		info:   info,
		rank:   info.id,
		parent: n,
		mask:   n.mask.with(info.id),
		types:  types,
	}
	n.children[info.id] = c
	t.nodes++
	return c
}

// add returns the node for n's set plus info. Inserting the same types in any
// order converges on the same node.
func (t *archetypeTrie) add(n *archetypeNode, info *typeInfo) (*archetypeNode, error) {
	if n.info == info {
		return n, nil
	}
	if info.id <= t.root.rank {
		return nil, fmt.Errorf("%w: %s has rank %d", ErrUnsupportedArchetypeRoot, info.name, info.id)
	}
	if info.id > n.rank {
		return t.child(n, info), nil
	}

	// Walk up past every larger id, slot info in, then replay.
	var passed [BlockSize]*typeInfo
	over := passed[:0]
	cur := n
	for cur.rank > info.id {
		over = append(over, cur.info)
		cur = cur.parent
	}
	if cur.rank != info.id {
		cur = t.child(cur, info)
	}
	for i := len(over) - 1; i >= 0; i-- {
		cur = t.child(cur, over[i])
	}
	return cur, nil
}

// remove returns the node for n's set minus info, or n if info is absent.
func (t *archetypeTrie) remove(n *archetypeNode, info *typeInfo) *archetypeNode {
	if !n.mask.has(info.id) {
		return n
	}
	var passed [BlockSize]*typeInfo
	over := passed[:0]
	cur := n
	for cur.rank > info.id {
		over = append(over, cur.info)
		cur = cur.parent
	}
	cur = cur.parent
	for i := len(over) - 1; i >= 0; i-- {
		cur = t.child(cur, over[i])
	}
	return cur
}

// insertAll folds infos into n in the given order.
func (t *archetypeTrie) insertAll(n *archetypeNode, infos []*typeInfo) (*archetypeNode, error) {
	var err error
	for _, info := range infos {
		if n, err = t.add(n, info); err != nil {
			return nil, err
		}
	}
	return n, nil
}
