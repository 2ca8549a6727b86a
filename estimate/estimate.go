// Package estimate samples a compiled plan's sources to approximate the
// number of distinct quads a run will produce, so the pipeline can pick
// the narrowest dedup hash width that still keeps collision probability
// negligible.
package estimate

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/rmlstream/rmlstream/csvsource"
	"github.com/rmlstream/rmlstream/quadgen"
	"github.com/rmlstream/rmlstream/rml"
	"github.com/rmlstream/rmlstream/template"
)

// HashWidth is a dedup fingerprint width, in bits.
type HashWidth int

const (
	Width32  HashWidth = 32
	Width64  HashWidth = 64
	Width128 HashWidth = 128
)

// Birthday-bound thresholds for a ~0.05% collision probability, per
// spec §4.7 (the 32-bit figure is the most recent of several disagreeing
// revisions in the original source; see DESIGN.md).
const (
	threshold32 = 2073
	threshold64 = 135835773
)

// SelectWidth maps an estimated distinct-quad count to the narrowest
// hash width that keeps collision probability under the threshold.
func SelectWidth(estimated uint64) HashWidth {
	switch {
	case estimated <= threshold32:
		return Width32
	case estimated <= threshold64:
		return Width64
	default:
		return Width128
	}
}

// Options configures a sampling run. Rate is the Bernoulli sampling
// probability (default 0.05); FixedWidth, when non-zero, bypasses
// estimation entirely; Adaptive, when false and FixedWidth is zero,
// selects Width128 unconditionally rather than sampling.
type Options struct {
	Rate       float64
	FixedWidth HashWidth
	Adaptive   bool
	Rand       *rand.Rand // nil uses a fresh generator with fixed seed 1 for each sampling pass
}

func (o Options) rate() float64 {
	if o.Rate > 0 {
		return o.Rate
	}
	return 0.05
}

func (o Options) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewSource(1))
}

// JoinContext supplies whatever prebuilt parent index a predicate-object
// map's join needs, mirroring quadgen.JoinIndex's shape; the estimator
// performs the real join against it, sampling only the child side (the
// parent rate is 1, per spec §4.7).
type JoinContext = quadgen.JoinIndex

// Estimator samples a compiled plan's sources to approximate its output
// size. Grounded on original_source/FlexRML.cpp's generate_subsample/
// estimate_join_size/estimate_generated_triple, generalized from exact
// row counting to Bernoulli-sampled distinct-hash counting per spec §4.7.
type Estimator struct {
	opts    Options
	eval    *template.Evaluator
	baseIRI string
}

// NewEstimator builds an Estimator. eval is shared with the generator
// layer so field lookup and empty-token handling stay consistent;
// baseIRI matches the plan's declared base, needed only for the join
// branch's reuse of the real quadgen.Generator.
func NewEstimator(opts Options, eval *template.Evaluator, baseIRI string) *Estimator {
	return &Estimator{opts: opts, eval: eval, baseIRI: baseIRI}
}

// ChooseWidth resolves the dedup hash width for plan, running sampling
// only when no fixed override is set and the adaptive flag is on.
func (e *Estimator) ChooseWidth(plan *rml.Plan, sources map[string]csvsource.Source, joins map[string]map[int]JoinContext) (HashWidth, uint64, error) {
	if e.opts.FixedWidth != 0 {
		return e.opts.FixedWidth, 0, nil
	}
	if !e.opts.Adaptive {
		return Width128, 0, nil
	}
	total, err := e.Estimate(plan, sources, joins)
	if err != nil {
		return 0, 0, err
	}
	return SelectWidth(total), total, nil
}

// Estimate sums the estimated distinct-quad contribution of every
// predicate-object map and class expansion in plan, terminating early
// once the running sum crosses the 128-bit threshold (further precision
// past that point changes nothing about the width decision).
func (e *Estimator) Estimate(plan *rml.Plan, sources map[string]csvsource.Source, joins map[string]map[int]JoinContext) (uint64, error) {
	var total uint64
	for _, tm := range plan.TriplesMaps {
		src, ok := sources[tm.LogicalSource.Source]
		if !ok {
			return 0, fmt.Errorf("estimate: no source registered for %q", tm.LogicalSource.Source)
		}

		classEstimate, err := e.estimateClasses(tm, src)
		if err != nil {
			return 0, err
		}
		total = saturatingAdd(total, classEstimate)
		if total > threshold64 {
			return total, nil
		}

		for i, pom := range tm.PredicateObjectMaps {
			var est uint64
			if pom.Join == nil {
				est, err = e.estimateNoJoin(tm, pom, src)
			} else {
				est, err = e.estimateJoin(tm, pom, src, joins[tm.ID][i])
			}
			if err != nil {
				return 0, err
			}
			total = saturatingAdd(total, est)
			if total > threshold64 {
				return total, nil
			}
		}
	}
	return total, nil
}

// estimateNoJoin implements spec §4.7's no-join branch: sample child
// rows at rate p, hash a deterministic composition of the triples-map-
// scoped template strings and the row's interpolated subject/predicate/
// object values, count distinct hashes, and scale by 1/p.
func (e *Estimator) estimateNoJoin(tm rml.TriplesMap, pom rml.PredicateObjectMap, src csvsource.Source) (uint64, error) {
	cur, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	header := cur.Header()

	rate := e.opts.rate()
	rng := e.opts.rng()
	seen := map[uint64]bool{}

	for {
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if rng.Float64() > rate {
			continue
		}
		fp, skip, err := e.fingerprint(tm, pom, header, row)
		if err != nil {
			return 0, err
		}
		if skip {
			continue
		}
		seen[fp] = true
	}
	return uint64(float64(len(seen)) / rate), nil
}

// estimateJoin samples only the child side (parent rate is 1: the join
// consults the already-built index in full) and hashes the resulting
// joined quad's fingerprint.
func (e *Estimator) estimateJoin(tm rml.TriplesMap, pom rml.PredicateObjectMap, src csvsource.Source, join JoinContext) (uint64, error) {
	cur, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	header := cur.Header()

	rate := e.opts.rate()
	rng := e.opts.rng()
	seen := map[uint64]bool{}

	gen := quadgen.NewGenerator(rml.TriplesMap{
		ID:                  tm.ID,
		LogicalSource:       tm.LogicalSource,
		SubjectMap:          tm.SubjectMap,
		PredicateObjectMaps: []rml.PredicateObjectMap{pom},
	}, e.baseIRI, e.eval, map[int]quadgen.JoinIndex{0: join})

	for {
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if rng.Float64() > rate {
			continue
		}
		quads, err := gen.GenerateRow(header, row)
		if err != nil {
			return 0, err
		}
		for _, q := range quads {
			seen[xxhash.Sum64String(q.Subject+"\x00"+q.Predicate+"\x00"+q.Object+"\x00"+q.Graph)] = true
		}
	}
	return uint64(float64(len(seen)) / rate), nil
}

// estimateClasses implements spec §4.7's class-contribution rule: a
// constant subject contributes exactly |classes| once (every row yields
// the same rdf:type triples), a non-constant subject contributes
// |classes| times the number of distinct subjects seen in the sample.
func (e *Estimator) estimateClasses(tm rml.TriplesMap, src csvsource.Source) (uint64, error) {
	n := len(tm.SubjectMap.Classes)
	if n == 0 {
		return 0, nil
	}
	if tm.SubjectMap.Type == rml.TermMapConstant {
		return uint64(n), nil
	}

	cur, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	header := cur.Header()

	rate := e.opts.rate()
	rng := e.opts.rng()
	subjTT := template.TermLiteral
	if tm.SubjectMap.TermType == rml.TermIRI {
		subjTT = template.TermIRI
	}
	seen := map[string]bool{}

	for {
		row, err := cur.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if rng.Float64() > rate {
			continue
		}
		val, empty, err := e.evalTermMap(tm.SubjectMap.Type, tm.SubjectMap.Value, header, row, subjTT)
		if err != nil {
			return 0, err
		}
		if empty {
			continue
		}
		seen[val] = true
	}
	return uint64(len(seen) * n), nil
}

// fingerprint composes the deterministic string spec §4.7 describes:
// the triples-map-scoped template strings (namespacing the hash so two
// predicate-object maps producing the same row values never collide in
// a shared count) followed by the row's interpolated subject/predicate/
// object values.
func (e *Estimator) fingerprint(tm rml.TriplesMap, pom rml.PredicateObjectMap, header, row []string) (uint64, bool, error) {
	subjTT := objectTermTypeFor(tm.SubjectMap.TermType)
	subjVal, empty, err := e.evalTermMap(tm.SubjectMap.Type, tm.SubjectMap.Value, header, row, subjTT)
	if err != nil {
		return 0, false, err
	}
	if empty {
		return 0, true, nil
	}

	predVal, empty, err := e.evalTermMap(pom.Predicate.Type, pom.Predicate.Value, header, row, template.TermIRI)
	if err != nil {
		return 0, false, err
	}
	if empty {
		return 0, true, nil
	}

	objTT := objectTermTypeFor(pom.Object.TermType)
	objVal, empty, err := e.evalTermMap(pom.Object.Type, pom.Object.Value, header, row, objTT)
	if err != nil {
		return 0, false, err
	}
	if empty {
		return 0, true, nil
	}

	composed := tm.SubjectMap.Value + "\x00" + pom.Predicate.Value + "\x00" + pom.Object.Value +
		"\x00" + subjVal + "\x00" + predVal + "\x00" + objVal
	return xxhash.Sum64String(composed), false, nil
}

func (e *Estimator) evalTermMap(typ rml.TermMapType, val string, header, row []string, tt template.TermType) (string, bool, error) {
	switch typ {
	case rml.TermMapConstant:
		return val, false, nil
	case rml.TermMapReference:
		return e.eval.Eval("{"+val+"}", header, row, tt)
	default:
		return e.eval.Eval(val, header, row, tt)
	}
}

func objectTermTypeFor(tt rml.TermType) template.TermType {
	if tt == rml.TermIRI {
		return template.TermIRI
	}
	return template.TermLiteral
}

// saturatingAdd adds b to a, clamping at threshold64+1 rather than
// wrapping — the original's int32 accumulator could overflow negative
// on a large corpus; a uint64 accumulator here never does, but clamping
// keeps the "early terminate past the 128-bit threshold" rule exact
// without needing a separate overflow check.
func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return threshold64 + 1
	}
	return sum
}
