package decision

import (
	"errors"
	"fmt"
)

// MaxDepth is the default recursion ceiling for Evaluate and Validate.
const MaxDepth = 32

var (
	ErrMissingPredicate = errors.New("decision: missing predicate")
	ErrUnknownPredicate = errors.New("decision: unknown predicate")
	ErrTooDeep          = errors.New("decision: condition tree too deep")
	ErrNilNode          = errors.New("decision: nil node")
)

// Evaluate evaluates node against ctx. Branches short-circuit in child
// order. A nil node, or a subtree deeper than MaxDepth, evaluates to false
// and its Invert flag is not applied.
func Evaluate[C any](node Node[C], ctx C) bool {
	return EvaluateDepth(node, ctx, MaxDepth)
}

// EvaluateDepth is Evaluate with an explicit depth ceiling.
func EvaluateDepth[C any](node Node[C], ctx C, maxDepth int) bool {
	return eval(node, ctx, 1, maxDepth)
}

func eval[C any](node Node[C], ctx C, depth, maxDepth int) bool {
	if depth > maxDepth {
		return false
	}

	var result bool
	switch n := node.(type) {
	case *Single[C]:
		if n == nil {
			return false
		}
		result = n.Predicate != nil && n.Predicate(ctx)
	case *And[C]:
		if n == nil {
			return false
		}
		result = true
		for _, child := range n.Children {
			if !eval(child, ctx, depth+1, maxDepth) {
				result = false
				break
			}
		}
	case *Or[C]:
		if n == nil {
			return false
		}
		result = len(n.Children) == 0
		for _, child := range n.Children {
			if eval(child, ctx, depth+1, maxDepth) {
				result = true
				break
			}
		}
	default:
		return false
	}

	if node.inverted() {
		return !result
	}
	return result
}

// EvaluateAll is the implicit top-level AND used by transitions: true when
// every node is true, true for an empty list.
func EvaluateAll[C any](nodes []Node[C], ctx C) bool {
	return EvaluateAllDepth(nodes, ctx, MaxDepth)
}

// EvaluateAllDepth is EvaluateAll with an explicit depth ceiling.
func EvaluateAllDepth[C any](nodes []Node[C], ctx C, maxDepth int) bool {
	for _, n := range nodes {
		if !EvaluateDepth(n, ctx, maxDepth) {
			return false
		}
	}
	return true
}

// Validate reports configuration problems in a tree: nil nodes, leaves with
// no predicate and subtrees deeper than maxDepth. A nil error means the
// tree evaluates exactly as authored.
func Validate[C any](node Node[C], maxDepth int) error {
	var errs []error
	validate[C](node, "", 1, maxDepth, &errs)
	return errors.Join(errs...)
}

func validate[C any](node Node[C], path string, depth, maxDepth int, errs *[]error) {
	if depth > maxDepth {
		*errs = append(*errs, fmt.Errorf("%w: %s exceeds depth %d", ErrTooDeep, pathOrRoot(path), maxDepth))
		return
	}
	switch n := node.(type) {
	case *Single[C]:
		if n == nil {
			*errs = append(*errs, fmt.Errorf("%w at %s", ErrNilNode, pathOrRoot(path)))
			return
		}
		if n.Predicate == nil {
			*errs = append(*errs, fmt.Errorf("%w %q at %s", ErrMissingPredicate, n.Name, pathOrRoot(path)))
		}
	case *And[C]:
		if n == nil {
			*errs = append(*errs, fmt.Errorf("%w at %s", ErrNilNode, pathOrRoot(path)))
			return
		}
		for i, child := range n.Children {
			validate[C](child, fmt.Sprintf("%s/and[%d]", path, i), depth+1, maxDepth, errs)
		}
	case *Or[C]:
		if n == nil {
			*errs = append(*errs, fmt.Errorf("%w at %s", ErrNilNode, pathOrRoot(path)))
			return
		}
		for i, child := range n.Children {
			validate[C](child, fmt.Sprintf("%s/or[%d]", path, i), depth+1, maxDepth, errs)
		}
	default:
		*errs = append(*errs, fmt.Errorf("%w at %s", ErrNilNode, pathOrRoot(path)))
	}
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
