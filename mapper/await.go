package mapper

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// pending is an Awaitable found in a tree, with the setter that puts its
// result back in place.
type pending struct {
	a   Awaitable
	set func(any)
}

// awaitTree replaces every Awaitable in v with its result. The leaves of one
// level are awaited concurrently; a result may itself hold Awaitables, which
// are awaited in turn. The first error cancels the others.
func awaitTree(ctx context.Context, v any) (any, error) {
	if a, ok := v.(Awaitable); ok {
		res, err := a.Await(ctx)
		if err != nil {
			return nil, err
		}
		return awaitTree(ctx, res)
	}

	var todo []pending
	collect(v, &todo)
	if len(todo) == 0 {
		return v, nil
	}

	results := make([]any, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range todo {
		g.Go(func() error {
			res, err := p.a.Await(gctx)
			if err != nil {
				return err
			}
			res, err = awaitTree(gctx, res)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, p := range todo {
		p.set(results[i])
	}
	return v, nil
}

func collect(v any, todo *[]pending) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			if a, ok := e.(Awaitable); ok {
				*todo = append(*todo, pending{a: a, set: func(r any) { t[k] = r }})
				continue
			}
			collect(e, todo)
		}
	case []any:
		for i, e := range t {
			if a, ok := e.(Awaitable); ok {
				*todo = append(*todo, pending{a: a, set: func(r any) { t[i] = r }})
				continue
			}
			collect(e, todo)
		}
	}
}
