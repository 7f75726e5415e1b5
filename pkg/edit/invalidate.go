package edit

import (
	"errors"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

var errReached = errors.New("target reached")

// InvalidatePath clears the identity of target and of every ancestor between
// it and root, since their content hashes cover the edited node. It reports
// whether target was found under root.
func InvalidatePath(root, target *model.Node, w traverse.Walker) (bool, error) {
	if root == nil || target == nil {
		return false, nil
	}

	var path []*model.Node
	err := w.Walk(root, func(e traverse.Entry) error {
		path = append(path[:e.Depth], e.Node)
		if e.Node != target {
			return nil
		}
		for _, n := range path {
			n.ID = ""
		}
		return errReached
	})
	if errors.Is(err, errReached) {
		return true, nil
	}
	return false, err
}
