package pipeline

import (
	"fmt"
	"io"

	"github.com/rmlstream/rmlstream/csvsource"
	"github.com/rmlstream/rmlstream/parentindex"
	"github.com/rmlstream/rmlstream/quadgen"
	"github.com/rmlstream/rmlstream/rml"
	"github.com/rmlstream/rmlstream/template"
)

// batchSize is the fixed number of quads a producer accumulates before
// handing a batch off to the consumer, per spec §4.8.
const batchSize = 100

// Batch is a fixed-size (except possibly the final, shorter one) slice
// of generated quads moving from a producer to the writer.
type Batch []quadgen.Quad

// Worker produces every quad one triples map's plan derives from its
// logical source, batching them for the consumer. One Worker exists per
// triples map; Worker state (parent indexes, generator) belongs to it
// alone and is never shared with another worker, per spec §5.
type Worker struct {
	tm      rml.TriplesMap
	baseIRI string
	eval    *template.Evaluator
	src     csvsource.Source
	sources func(string) (csvsource.Source, bool) // resolves join parent sources by name
}

// NewWorker builds a Worker for tm, iterating child over src. sources
// resolves a join's parent source by LogicalSource name, used only if
// tm carries predicate-object maps with joins.
func NewWorker(tm rml.TriplesMap, baseIRI string, eval *template.Evaluator, src csvsource.Source, sources func(string) (csvsource.Source, bool)) *Worker {
	return &Worker{tm: tm, baseIRI: baseIRI, eval: eval, src: src, sources: sources}
}

// buildJoins implements the INDEXING state: one parent index per
// predicate-object map that carries a join descriptor, built once
// before the worker starts reading its child source.
func (w *Worker) buildJoins() (map[int]quadgen.JoinIndex, error) {
	return BuildJoins(w.tm, w.sources)
}

// BuildJoins builds one parent index per predicate-object map of tm that
// carries a join descriptor, resolving each parent logical source
// through sources. Exposed at package level so callers that need the
// same parent indexes ahead of running a Worker (the size estimator)
// build them identically instead of duplicating the dispatch logic.
// Grounded on original_source/FlexRML.cpp's process_triple_map's
// upfront parent_file_index construction.
func BuildJoins(tm rml.TriplesMap, sources func(string) (csvsource.Source, bool)) (map[int]quadgen.JoinIndex, error) {
	joins := map[int]quadgen.JoinIndex{}
	for i, pom := range tm.PredicateObjectMaps {
		if pom.Join == nil {
			continue
		}
		parentSrc, ok := sources(pom.Join.ParentSource)
		if !ok {
			return nil, fmt.Errorf("pipeline: no source registered for parent %q", pom.Join.ParentSource)
		}
		if pom.Join.ReferenceCondition {
			idx, err := parentindex.BuildReferenceIndex(parentSrc, pom.Join.ParentColumn)
			if err != nil {
				return nil, err
			}
			joins[i] = quadgen.JoinIndex{Reference: idx}
			continue
		}
		idx, err := parentindex.BuildFullIndex(parentSrc, pom.Join.ParentColumn, pom.Object.Value)
		if err != nil {
			return nil, err
		}
		joins[i] = quadgen.JoinIndex{Full: idx}
	}
	return joins, nil
}

// Run drives the READING/BATCH_READY/PUSH/EOF/FLUSH_TAIL states: scan
// the child source row by row, accumulate generated quads into
// fixed-size batches, and hand each batch to emit as it fills; the
// final, possibly short, batch is flushed after EOF.
func (w *Worker) Run(emit func(Batch) error) error {
	joins, err := w.buildJoins()
	if err != nil {
		return err
	}
	gen := quadgen.NewGenerator(w.tm, w.baseIRI, w.eval, joins)

	cur, err := w.src.Open()
	if err != nil {
		return err
	}
	defer cur.Close()
	header := cur.Header()

	batch := make(Batch, 0, batchSize)
	for {
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		quads, err := gen.GenerateRow(header, row)
		if err != nil {
			return err
		}
		batch = append(batch, quads...)
		for len(batch) >= batchSize {
			if err := emit(batch[:batchSize:batchSize]); err != nil {
				return err
			}
			batch = append(Batch(nil), batch[batchSize:]...)
		}
	}
	if len(batch) > 0 {
		if err := emit(batch); err != nil {
			return err
		}
	}
	return nil
}
