package execution

import (
	"context"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/cory-johannsen/goap/internal/goap"
)

// Leaf adapts one poll of a to a go-behaviortree leaf, so planned actions can
// also be embedded in larger trees.
func Leaf(ctx context.Context, a goap.Action) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		return toStatus(a.Execute(ctx)), nil
	})
}

// toStatus maps a goap.Status onto bt.Status. Unknown values fail.
func toStatus(s goap.Status) bt.Status {
	switch s {
	case goap.Running:
		return bt.Running
	case goap.Success:
		return bt.Success
	default:
		return bt.Failure
	}
}
