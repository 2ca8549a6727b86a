// Package command wires rmlstream's CLI flags to the streaming
// materialization engine. Grounded on cmd/cayleyimport/cayleyimport.go's
// single-command cobra.Command-plus-RunE idiom.
package command

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rmlstream/rmlstream/csvsource"
	"github.com/rmlstream/rmlstream/estimate"
	"github.com/rmlstream/rmlstream/internal/config"
	"github.com/rmlstream/rmlstream/internal/rlog"
	"github.com/rmlstream/rmlstream/pipeline"
	"github.com/rmlstream/rmlstream/quad/nquads"
	"github.com/rmlstream/rmlstream/rdf"
	"github.com/rmlstream/rmlstream/rdf/turtle"
	"github.com/rmlstream/rmlstream/rml"
	"github.com/rmlstream/rmlstream/template"
)

// NewCmd builds the root rmlstream command.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rmlstream",
		Short: "Materialize RDF quads from CSV sources against an RML mapping document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return run(cfg, afero.NewOsFs())
		},
	}
	config.RegisterFlags(cmd)
	return cmd
}

// run executes one end-to-end materialization: parse the mapping
// document, normalize and extract it into a plan, choose a dedup hash
// width, then stream every triples map's rows through the pipeline.
// Every file touched — mapping document, CSV sources, output sink — is
// opened through fs, so a caller can substitute an afero.MemMapFs in
// tests instead of hitting the real filesystem.
func run(cfg *config.Config, fs afero.Fs) error {
	doc, err := afero.ReadFile(fs, cfg.MappingPath)
	if err != nil {
		return fmt.Errorf("rmlstream: reading mapping document: %w", err)
	}
	triples, baseIRI, err := turtle.Parse(string(doc))
	if err != nil {
		return fmt.Errorf("rmlstream: parsing mapping document: %w", err)
	}

	store := rdf.NewStore(triples)
	blanks := rdf.NewBlankNodeCounter(0)
	rml.Normalize(store, blanks)

	plan, err := rml.Extract(store, baseIRI)
	if err != nil {
		return fmt.Errorf("rmlstream: extracting mapping plan: %w", err)
	}

	sourcesByName := map[string]csvsource.Source{}
	resolve := func(name string) (csvsource.Source, bool) {
		src, ok := sourcesByName[name]
		return src, ok
	}
	for _, tm := range plan.TriplesMaps {
		if _, ok := sourcesByName[tm.LogicalSource.Source]; !ok {
			sourcesByName[tm.LogicalSource.Source] = csvsource.NewFile(fs, tm.LogicalSource.Source)
		}
	}
	for _, tm := range plan.TriplesMaps {
		for _, pom := range tm.PredicateObjectMaps {
			if pom.Join == nil {
				continue
			}
			if _, ok := sourcesByName[pom.Join.ParentSource]; !ok {
				sourcesByName[pom.Join.ParentSource] = csvsource.NewFile(fs, pom.Join.ParentSource)
			}
		}
	}

	eval := template.NewEvaluator(cfg.EmptyTokens)

	joinsByTM := map[string]map[int]estimate.JoinContext{}
	for _, tm := range plan.TriplesMaps {
		joins, err := pipeline.BuildJoins(tm, resolve)
		if err != nil {
			return err
		}
		joinsByTM[tm.ID] = joins
	}

	opts := estimate.Options{Rate: cfg.SampleRate, Adaptive: cfg.Adaptive}
	if cfg.HasFixedWidth {
		opts.FixedWidth = cfg.FixedWidth
	}
	estimator := estimate.NewEstimator(opts, eval, plan.BaseIRI)
	width, sampled, err := estimator.ChooseWidth(plan, sourcesByName, joinsByTM)
	if err != nil {
		return fmt.Errorf("rmlstream: choosing dedup hash width: %w", err)
	}
	if sampled > 0 {
		rlog.Infof("estimated %d distinct quads, selected %d-bit dedup width", sampled, int(width))
	}

	out, err := fs.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("rmlstream: creating output file: %w", err)
	}
	defer out.Close()
	writer := nquads.NewWriter(out)

	var workers []*pipeline.Worker
	for _, tm := range plan.TriplesMaps {
		src := sourcesByName[tm.LogicalSource.Source]
		workers = append(workers, pipeline.NewWorker(tm, plan.BaseIRI, eval, src, resolve))
	}

	p := &pipeline.Pipeline{
		Workers: workers,
		Width:   width,
		Writer:  writer,
		Dedup:   cfg.Dedup,
	}
	if cfg.Threaded {
		p.ThreadCount = cfg.ThreadCount
	} else {
		p.ThreadCount = 1
	}

	res, err := p.Run()
	if err != nil {
		return fmt.Errorf("rmlstream: running pipeline: %w", err)
	}
	rlog.Infof("wrote %d quads (%d deduplicated) across %d batches", res.QuadsWritten, res.QuadsDeduped, res.BatchesPopped)
	fmt.Printf("%d quads written to %s\n", res.QuadsWritten, cfg.OutputPath)
	return nil
}

