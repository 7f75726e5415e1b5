package traverse

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/parallel"
)

// FlattenParallel produces the same listing as Flatten, flattening the root's
// child subtrees on a worker pool. Output order is identical to Flatten.
// Worthwhile only for very large trees.
func (w Walker) FlattenParallel(root *model.Node, pool *parallel.WorkerPool) ([]Entry, error) {
	if root == nil {
		return nil, nil
	}
	if pool == nil || len(root.Children) < 2 {
		return w.Flatten(root)
	}

	// Each child subtree is walked with the bound reduced by one level and its
	// depths shifted afterwards, so errors match a sequential walk.
	sub := Walker{MaxDepth: w.maxDepth() - 1}

	parts := make([][]Entry, len(root.Children))
	errs := make([]error, len(root.Children))
	done := make(chan int, len(root.Children))

	pending := 0
	for i, child := range root.Children {
		if child == nil {
			continue
		}
		i, child := i, child
		task := func() {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("flatten subtree %d: panic: %v", i, r)
				}
				done <- i
			}()
			parts[i], errs[i] = sub.flattenSub(child)
		}
		if !pool.Submit(task) {
			task()
		}
		pending++
	}
	for ; pending > 0; pending-- {
		<-done
	}

	// Report the leftmost failure, matching sequential order.
	for _, err := range errs {
		if err != nil {
			var me *model.Error
			if errors.As(err, &me) {
				me.Depth++
			}
			return nil, err
		}
	}

	total := 1
	for _, p := range parts {
		total += len(p)
	}
	entries := make([]Entry, 0, total)
	entries = append(entries, Entry{Node: root, Depth: 0})
	for _, p := range parts {
		for _, e := range p {
			entries = append(entries, Entry{Node: e.Node, Depth: e.Depth + 1})
		}
	}
	return entries, nil
}

func (w Walker) flattenSub(root *model.Node) ([]Entry, error) {
	var entries []Entry
	err := w.walk(root, 0, w.MaxDepth, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}
