package schema

import (
	"fmt"
	"sort"
	"strings"
)

// TypeGraph is the containment graph between managed types: an entity points
// at its supertype, a composite points at every composite it embeds. A cycle
// in this graph would make attribute walking unbounded.
type TypeGraph struct {
	nodes []string
	edges map[string][]string
}

// NewTypeGraph creates a type graph from the registered entities and composites
func NewTypeGraph(entities map[string]*EntitySchema, composites map[string]*CompositeSchema) *TypeGraph {
	graph := &TypeGraph{
		edges: make(map[string][]string),
	}

	for name, e := range entities {
		node := "entity:" + name
		graph.nodes = append(graph.nodes, node)
		if e.Supertype != "" {
			graph.edges[node] = append(graph.edges[node], "entity:"+e.Supertype)
		}
	}
	for name, c := range composites {
		node := "composite:" + name
		graph.nodes = append(graph.nodes, node)
		for _, attr := range c.Attributes {
			if attr.Kind == KindEmbedded {
				graph.edges[node] = append(graph.edges[node], "composite:"+attr.Target)
			}
		}
	}
	sort.Strings(graph.nodes)

	return graph
}

// DetectCycles detects circular references in the type graph
func (g *TypeGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string) bool
	dfs = func(node string, path []string) bool {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				if dfs(neighbor, path) {
					return true
				}
			} else if recursionStack[neighbor] {
				cycleStart := -1
				for i, n := range path {
					if n == neighbor {
						cycleStart = i
						break
					}
				}
				if cycleStart >= 0 {
					cycle := make([]string, len(path)-cycleStart)
					copy(cycle, path[cycleStart:])
					cycles = append(cycles, cycle)
				}
				return true
			}
		}

		recursionStack[node] = false
		return false
	}

	for _, node := range g.nodes {
		if !visited[node] {
			dfs(node, []string{})
		}
	}

	return cycles
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("  Cycle %d: %s -> %s",
			i+1,
			strings.Join(cycle, " -> "),
			cycle[0]))
	}
	return b.String()
}
