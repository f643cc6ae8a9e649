package builtins

import (
	"sync"

	"github.com/tomhrr/cosh/lang/machine"
)

// registerWorker adds the multi-worker builtins (spec.md §5 "Multi-worker
// builtins"): `pfor` runs a closure over every element of a list for its
// side effects; `pforn`/`pmap`/`pgrepn` do the same, or collect/filter
// results, spread across n concurrently executing Thread.Fork()s — Go's
// own goroutine+WaitGroup idiom standing in for the original runtime's
// subprocess worker pool, since a Thread's mutable per-call state can't be
// shared across goroutines but is cheap to fork (see Thread.Fork).
func registerWorker(reg map[string]machine.Builtin) {
	reg["pfor"] = func(th *machine.Thread, stack *[]machine.Value) error {
		fnv, list, err := popFnAndList(stack)
		if err != nil {
			return err
		}
		return runWorkers(th, list, fnv, 1, nil)
	}
	reg["pforn"] = func(th *machine.Thread, stack *[]machine.Value) error {
		n, fnv, list, err := popNFnAndList(stack)
		if err != nil {
			return err
		}
		return runWorkers(th, list, fnv, n, nil)
	}
	reg["pmap"] = func(th *machine.Thread, stack *[]machine.Value) error {
		n, fnv, list, err := popNFnAndList(stack)
		if err != nil {
			return err
		}
		out := make([]machine.Value, list.Len())
		if err := runWorkers(th, list, fnv, n, func(i int, results []machine.Value) {
			if len(results) > 0 {
				out[i] = results[0]
			} else {
				out[i] = machine.Null{}
			}
		}); err != nil {
			return err
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
	reg["pgrepn"] = func(th *machine.Thread, stack *[]machine.Value) error {
		n, fnv, list, err := popNFnAndList(stack)
		if err != nil {
			return err
		}
		keep := make([]bool, list.Len())
		if err := runWorkers(th, list, fnv, n, func(i int, results []machine.Value) {
			keep[i] = len(results) > 0 && machine.Truthy(results[0])
		}); err != nil {
			return err
		}
		var out []machine.Value
		for i, k := range keep {
			if k {
				out = append(out, list.Index(i))
			}
		}
		machine.Push(stack, machine.NewList(out))
		return nil
	}
}

// runWorkers applies fn to every element of list across n goroutines, each
// with its own forked Thread, calling collect(i, results) (if non-nil) as
// each element's call completes. The first error from any element call
// wins and is returned once every worker has drained.
func runWorkers(th *machine.Thread, list *machine.List, fn machine.Callable, n int, collect func(int, []machine.Value)) error {
	if n < 1 {
		n = 1
	}
	elems := list.Elems()
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	worker := func() {
		defer wg.Done()
		wth := th.Fork()
		for i := range jobs {
			results, err := fn.Call(wth, []machine.Value{elems[i]})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				continue
			}
			if collect != nil {
				collect(i, results)
			}
		}
	}
	for w := 0; w < n; w++ {
		wg.Add(1)
		go worker()
	}
	for i := range elems {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return firstErr
}

func popFnAndList(stack *[]machine.Value) (machine.Callable, *machine.List, error) {
	fnv, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	fn, ok := fnv.(machine.Callable)
	if !ok {
		return nil, nil, machine.NewError(machine.TypeMismatch, "expected a closure, got %s", fnv.Type())
	}
	lv, err := machine.Pop(stack)
	if err != nil {
		return nil, nil, err
	}
	list, ok := lv.(*machine.List)
	if !ok {
		return nil, nil, machine.NewError(machine.TypeMismatch, "expected a list, got %s", lv.Type())
	}
	return fn, list, nil
}

func popNFnAndList(stack *[]machine.Value) (int, machine.Callable, *machine.List, error) {
	nv, err := machine.Pop(stack)
	if err != nil {
		return 0, nil, nil, err
	}
	n, ok := nv.(machine.Int)
	if !ok {
		return 0, nil, nil, machine.NewError(machine.TypeMismatch, "expected a worker count")
	}
	fn, list, err := popFnAndList(stack)
	if err != nil {
		return 0, nil, nil, err
	}
	return int(n), fn, list, nil
}
