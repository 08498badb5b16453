// Package parallel implements the dataset-wide operations from spec §4.9
// and §5 that walk every chunk currently on disk: a bounded worker pool
// over the chunk set, the unique-values reductions, trivial-chunk
// cleanup, and whole-dataset removal.
package parallel

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// ForEachChunk runs fn once for every chunk coordinate that currently
// exists on disk, via a worker pool bounded to numThreads concurrent
// calls (numThreads == 1 runs one call at a time; numThreads <= 0 sets no
// bound). fn is called concurrently across
// distinct coordinates; it must not share mutable state without its own
// synchronization.
func ForEachChunk(ctx context.Context, d *dataset.Dataset, numThreads int, fn func(ctx context.Context, coord types.Shape) error) error {
	coords, err := d.Handle().EnumerateChunks(ctx, d.IsZarr(), len(d.Shape()))
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	if numThreads > 0 {
		g.SetLimit(numThreads)
	}
	for _, coord := range coords {
		coord := coord
		g.Go(func() error { return fn(gctx, coord) })
	}
	return g.Wait()
}

// RemoveTrivialChunks deletes every on-disk chunk whose distinct-value set
// has size 1 — i.e. every element in the chunk is the same value, not
// necessarily the dataset's fill value (spec §4.9, matching the original's
// removeTrivialChunks<T>: a chunk can be uniformly some other background
// value a different tool wrote). If removeSpecificValue is true, a chunk is
// only removed when that single value additionally equals value. Returns
// the number of chunks removed.
func RemoveTrivialChunks[T types.Elem](ctx context.Context, d *dataset.Dataset, numThreads int, removeSpecificValue bool, value T) (int, error) {
	var removed int64
	var mu sync.Mutex
	err := ForEachChunk(ctx, d, numThreads, func(ctx context.Context, coord types.Shape) error {
		data, err := dataset.ReadChunk[T](ctx, d, coord)
		if err != nil {
			if nstoreerr.Is(err, nstoreerr.VarlenError) {
				return nil // variable-length chunks have no fixed-width element set to compare.
			}
			return err
		}
		sole, ok := soleUniqueValue(data)
		if !ok {
			return nil
		}
		if removeSpecificValue && sole != value {
			return nil
		}
		if err := d.RemoveChunk(ctx, coord); err != nil {
			return err
		}
		mu.Lock()
		removed++
		mu.Unlock()
		return nil
	})
	return int(removed), err
}

// soleUniqueValue reports the chunk's single distinct element value and
// true, or ok=false if the chunk holds more than one distinct value (or is
// empty).
func soleUniqueValue[T comparable](data []T) (value T, ok bool) {
	if len(data) == 0 {
		return value, false
	}
	uniques := map[T]struct{}{data[0]: {}}
	for _, v := range data[1:] {
		if _, seen := uniques[v]; !seen {
			uniques[v] = struct{}{}
			if len(uniques) > 1 {
				return value, false
			}
		}
	}
	return data[0], true
}

// Unique returns the sorted set of distinct element values across every
// chunk currently on disk (spec §4.9).
func Unique[T types.Elem](ctx context.Context, d *dataset.Dataset, numThreads int) ([]T, error) {
	seen := map[T]struct{}{}
	var mu sync.Mutex
	err := ForEachChunk(ctx, d, numThreads, func(ctx context.Context, coord types.Shape) error {
		data, err := dataset.ReadChunk[T](ctx, d, coord)
		if err != nil {
			return err
		}
		local := make(map[T]struct{}, len(data))
		for _, v := range data {
			local[v] = struct{}{}
		}
		mu.Lock()
		for v := range local {
			seen[v] = struct{}{}
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(a, b) })
	return out, nil
}

// UniqueWithCounts is Unique plus, for each distinct value, how many times
// it occurs across the whole dataset.
func UniqueWithCounts[T types.Elem](ctx context.Context, d *dataset.Dataset, numThreads int) (values []T, counts []int64, err error) {
	tally := map[T]int64{}
	var mu sync.Mutex
	err = ForEachChunk(ctx, d, numThreads, func(ctx context.Context, coord types.Shape) error {
		data, err := dataset.ReadChunk[T](ctx, d, coord)
		if err != nil {
			return err
		}
		local := map[T]int64{}
		for _, v := range data {
			local[v]++
		}
		mu.Lock()
		for v, c := range local {
			tally[v] += c
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	values = make([]T, 0, len(tally))
	for v := range tally {
		values = append(values, v)
	}
	slices.SortFunc(values, func(a, b T) int { return cmp.Compare(a, b) })
	counts = make([]int64, len(values))
	for i, v := range values {
		counts[i] = tally[v]
	}
	return values, counts, nil
}

// RemoveDataset deletes every key (chunks and metadata) under a dataset's
// handle.
func RemoveDataset(ctx context.Context, d *dataset.Dataset) error {
	return d.Handle().RemoveAll(ctx)
}
