// Package pipeline runs one or more Workers producing quad batches and a
// single writer that dedups and serializes them, with concurrency
// bounded by a channel and a wave-joined worker pool. Grounded on
// original_source/FlexRML.cpp's ThreadSafeQueue/process_triple_map/
// writerThread/map_data_to_file_threading.
package pipeline

import (
	"runtime"
	"sync"

	"github.com/rmlstream/rmlstream/estimate"
	"github.com/rmlstream/rmlstream/quad/nquads"
)

// channelCapacity bounds the number of in-flight batches the channel
// between producers and the writer may hold, per spec §4.8.
const channelCapacity = 1000

// Pipeline runs every Worker to completion and writes the deduplicated
// union of their quads to Writer.
type Pipeline struct {
	Workers     []*Worker
	ThreadCount int // 0 means hardware concurrency
	Width       estimate.HashWidth
	Writer      *nquads.Writer
	Dedup       bool // false disables dedup entirely (still single-pass through the writer)
}

// Result reports what a run produced.
type Result struct {
	QuadsWritten  uint64
	QuadsDeduped  uint64
	BatchesPopped uint64
}

// Run executes every worker and writes their output. With exactly one
// worker, the channel is skipped entirely and the worker runs on the
// caller's goroutine (spec §4.8's single-triples-map fast path).
func (p *Pipeline) Run() (Result, error) {
	if len(p.Workers) == 1 {
		return p.runSingle()
	}
	return p.runConcurrent()
}

func (p *Pipeline) runSingle() (Result, error) {
	dedup := newDedupSet(p.Width)
	var res Result
	emit := func(b Batch) error {
		return p.consumeBatch(b, dedup, &res)
	}
	if err := p.Workers[0].Run(emit); err != nil {
		return res, err
	}
	if err := p.Writer.Flush(); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) runConcurrent() (Result, error) {
	threadCount := p.ThreadCount
	if threadCount <= 0 {
		threadCount = runtime.NumCPU()
	}
	waveSize := threadCount - 1
	if waveSize < 1 {
		waveSize = 1
	}

	ch := make(chan Batch, channelCapacity)
	dedup := newDedupSet(p.Width)
	var res Result
	var writeErr error
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for b := range ch {
			mQueueDepth.Set(float64(len(ch)))
			if err := p.consumeBatch(b, dedup, &res); err != nil {
				writeErr = err
			}
		}
	}()

	var firstErr error
	for i := 0; i < len(p.Workers); {
		end := i + waveSize
		if end > len(p.Workers) {
			end = len(p.Workers)
		}
		var wg sync.WaitGroup
		errs := make([]error, end-i)
		for j := i; j < end; j++ {
			wg.Add(1)
			go func(worker *Worker, slot int) {
				defer wg.Done()
				errs[slot] = worker.Run(func(b Batch) error {
					ch <- b
					return nil
				})
			}(p.Workers[j], j-i)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		i = end
	}
	close(ch)
	<-writerDone

	if firstErr != nil {
		return res, firstErr
	}
	if writeErr != nil {
		return res, writeErr
	}
	if err := p.Writer.Flush(); err != nil {
		return res, err
	}
	return res, nil
}

// consumeBatch implements the writer's per-batch work: look each quad
// up in the dedup set, write misses, discard hits, and flush the
// batch's output as a unit. Grounded on writerThread's per-quad hash
// check and file write.
func (p *Pipeline) consumeBatch(b Batch, dedup *dedupSet, res *Result) error {
	mBatchesProcessed.Inc()
	res.BatchesPopped++
	for _, q := range b {
		if p.Dedup {
			if dedup.seenOrAdd(q) {
				mQuadsDeduped.Inc()
				res.QuadsDeduped++
				continue
			}
		}
		if err := p.Writer.WriteQuad(q); err != nil {
			return err
		}
		mQuadsWritten.Inc()
		res.QuadsWritten++
	}
	return p.Writer.Flush()
}
