package rml

import (
	"strings"

	"github.com/rmlstream/rmlstream/rdf"
)

// shorthandToMap pairs each constant-shorthand predicate with the
// "-Map"-suffixed predicate its expansion introduces.
var shorthandToMap = map[string]string{
	RMLSubject:   RMLSubjectMap,
	RMLPredicate: RMLPredicateMap,
	RMLObject:    RMLObjectMap,
	RMLGraph:     RMLGraphMap,
	RMLDataType:  RMLDataTypeMap,
	RMLLanguage:  RMLLanguageMap,
}

// Normalize rewrites the RML syntactic-sugar patterns recognized by the
// mapping-rule compiler into a canonical shape, in a fixed pass order:
// implicit-type, constant-shorthand expansion (one sub-pass per
// shorthand predicate), multi-predicate fan-out, multi-object fan-out,
// local-parent inlining, join expansion, graph-map normalization. Each
// pass is a bounded scan over the current triple set plus targeted
// insert/remove calls; none of them recurse, so a blank node minted
// mid-pass is never revisited within that same pass. Calling Normalize
// again on an already-normalized store is a no-op.
//
// Grounded on original_source/rdf_vector_helper.cpp's expand_implicit_type,
// expand_constant_shorthand, expand_multiple_predicate_maps,
// expand_multiple_object_maps, inline_local_parent, expand_join, and
// expand_graph_map.
func Normalize(store *rdf.Store, blanks *rdf.BlankNodeCounter) {
	implicitTypePass(store)
	for _, shorthand := range []string{RMLSubject, RMLPredicate, RMLObject, RMLGraph, RMLDataType, RMLLanguage} {
		constantShorthandPass(store, shorthand, blanks)
	}
	multiPredicateFanOutPass(store, blanks)
	multiObjectFanOutPass(store, blanks)
	localParentInliningPass(store)
	joinExpansionPass(store, blanks)
	graphMapNormalizationPass(store, blanks)
}

func implicitTypePass(store *rdf.Store) {
	seen := map[string]bool{}
	for _, subj := range store.SubjectsOf(RMLLogicalSource, "") {
		if seen[subj] {
			continue
		}
		seen[subj] = true
		hasType := false
		for _, typ := range store.ObjectsOf(subj, RDFType) {
			if typ == TriplesMap {
				hasType = true
				break
			}
		}
		if !hasType {
			store.Insert(rdf.Triple{Subject: subj, Predicate: RDFType, Object: TriplesMap})
		}
	}
}

// constantShorthandPass rewrites every `X shorthand "v"` triple into
// `X shorthand-map _:b . _:b rr:constant "v"`, minting a fresh blank node
// per occurrence.
func constantShorthandPass(store *rdf.Store, shorthand string, blanks *rdf.BlankNodeCounter) {
	mapPred, ok := shorthandToMap[shorthand]
	if !ok {
		return
	}
	type occurrence struct{ subj, val string }
	var matches []occurrence
	for _, t := range store.All() {
		if t.Predicate == shorthand {
			matches = append(matches, occurrence{t.Subject, t.Object})
		}
	}
	for _, m := range matches {
		store.RemoveWhere(m.subj, shorthand, m.val)
		b := blanks.Next()
		store.Insert(rdf.Triple{Subject: m.subj, Predicate: mapPred, Object: b})
		store.Insert(rdf.Triple{Subject: b, Predicate: RMLConstant, Object: m.val})
	}
}

type pomEdge struct{ tm, pom string }

func collectPOMEdges(store *rdf.Store) []pomEdge {
	var edges []pomEdge
	for _, t := range store.All() {
		if t.Predicate == RMLPredicateObjectMap {
			edges = append(edges, pomEdge{t.Subject, t.Object})
		}
	}
	return edges
}

// multiPredicateFanOutPass splits a predicate-object map carrying more
// than one rr:predicateMap edge into one predicate-object map per
// predicate, each retaining every object map and graph map the original
// carried.
func multiPredicateFanOutPass(store *rdf.Store, blanks *rdf.BlankNodeCounter) {
	edges := collectPOMEdges(store)
	poms := map[string]bool{}
	for _, e := range edges {
		poms[e.pom] = true
	}
	for pom := range poms {
		preds := store.ObjectsOf(pom, RMLPredicateMap)
		if len(preds) <= 1 {
			continue
		}
		objs := store.ObjectsOf(pom, RMLObjectMap)
		graphs := store.ObjectsOf(pom, RMLGraphMap)
		var tms []string
		for _, e := range edges {
			if e.pom == pom {
				tms = append(tms, e.tm)
			}
		}
		for _, tm := range tms {
			store.RemoveWhere(tm, RMLPredicateObjectMap, pom)
		}
		for _, pred := range preds {
			fresh := blanks.Next()
			store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLPredicateMap, Object: pred})
			for _, o := range objs {
				store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLObjectMap, Object: o})
			}
			for _, g := range graphs {
				store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLGraphMap, Object: g})
			}
			for _, tm := range tms {
				store.Insert(rdf.Triple{Subject: tm, Predicate: RMLPredicateObjectMap, Object: fresh})
			}
		}
		store.RemoveWhere(pom, RMLPredicateMap, "")
		store.RemoveWhere(pom, RMLObjectMap, "")
		store.RemoveWhere(pom, RMLGraphMap, "")
	}
}

// multiObjectFanOutPass splits a predicate-object map carrying more than
// one rr:objectMap edge into one predicate-object map per object,
// retaining the (by this point singular) predicate map and any graph
// maps.
func multiObjectFanOutPass(store *rdf.Store, blanks *rdf.BlankNodeCounter) {
	edges := collectPOMEdges(store)
	poms := map[string]bool{}
	for _, e := range edges {
		poms[e.pom] = true
	}
	for pom := range poms {
		objs := store.ObjectsOf(pom, RMLObjectMap)
		if len(objs) <= 1 {
			continue
		}
		preds := store.ObjectsOf(pom, RMLPredicateMap)
		graphs := store.ObjectsOf(pom, RMLGraphMap)
		var tms []string
		for _, e := range edges {
			if e.pom == pom {
				tms = append(tms, e.tm)
			}
		}
		for _, tm := range tms {
			store.RemoveWhere(tm, RMLPredicateObjectMap, pom)
		}
		for _, obj := range objs {
			fresh := blanks.Next()
			for _, p := range preds {
				store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLPredicateMap, Object: p})
			}
			store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLObjectMap, Object: obj})
			for _, g := range graphs {
				store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLGraphMap, Object: g})
			}
			for _, tm := range tms {
				store.Insert(rdf.Triple{Subject: tm, Predicate: RMLPredicateObjectMap, Object: fresh})
			}
		}
		store.RemoveWhere(pom, RMLPredicateMap, "")
		store.RemoveWhere(pom, RMLObjectMap, "")
		store.RemoveWhere(pom, RMLGraphMap, "")
	}
}

type omEdge struct{ pom, om string }

func collectOMEdges(store *rdf.Store) []omEdge {
	var edges []omEdge
	for _, t := range store.All() {
		if t.Predicate == RMLObjectMap {
			edges = append(edges, omEdge{t.Subject, t.Object})
		}
	}
	return edges
}

// localParentInliningPass rewrites an object map with rr:parentTriplesMap
// but no rr:joinCondition into a direct reference to the parent's
// subject map node: the parent's subject becomes the object, with no
// join machinery involved.
func localParentInliningPass(store *rdf.Store) {
	for _, e := range collectOMEdges(store) {
		parents := store.ObjectsOf(e.om, RMLParentTriplesMap)
		if len(parents) == 0 {
			continue
		}
		if len(store.ObjectsOf(e.om, RMLJoinCondition)) > 0 {
			continue
		}
		parentSMs := store.ObjectsOf(parents[0], RMLSubjectMap)
		if len(parentSMs) == 0 {
			continue
		}
		store.RemoveWhere(e.pom, RMLObjectMap, e.om)
		store.Insert(rdf.Triple{Subject: e.pom, Predicate: RMLObjectMap, Object: parentSMs[0]})
	}
}

// joinExpansionPass rewrites an object map with both rr:parentTriplesMap
// and rr:joinCondition into a fresh object-map node carrying the derived
// template, the parent's source path, the join's child/parent keys, and
// the joinReferenceCondition flag, then removes the join triples from
// the original object map.
func joinExpansionPass(store *rdf.Store, blanks *rdf.BlankNodeCounter) {
	for _, e := range collectOMEdges(store) {
		parents := store.ObjectsOf(e.om, RMLParentTriplesMap)
		if len(parents) == 0 {
			continue
		}
		joinConds := store.ObjectsOf(e.om, RMLJoinCondition)
		if len(joinConds) == 0 {
			continue
		}
		parent, jc := parents[0], joinConds[0]

		children := store.ObjectsOf(jc, RMLChild)
		parentKeys := store.ObjectsOf(jc, RMLParent)
		if len(children) == 0 || len(parentKeys) == 0 {
			continue
		}
		childCol, parentCol := children[0], parentKeys[0]

		template := ""
		referenceCondition := false
		if parentSMs := store.ObjectsOf(parent, RMLSubjectMap); len(parentSMs) > 0 {
			if tmpls := store.ObjectsOf(parentSMs[0], RMLTemplate); len(tmpls) > 0 {
				parentTemplate := tmpls[0]
				template = strings.ReplaceAll(parentTemplate, "{"+parentCol+"}", "{"+childCol+"}")
				referenceCondition = parentTemplate == "{"+parentCol+"}"
			}
		}

		parentSource := ""
		if lsNodes := store.ObjectsOf(parent, RMLLogicalSource); len(lsNodes) > 0 {
			if srcs := store.ObjectsOf(lsNodes[0], RMLSource); len(srcs) > 0 {
				parentSource = srcs[0]
			}
		}

		fresh := blanks.Next()
		if template != "" {
			store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLTemplate, Object: template})
		}
		store.Insert(rdf.Triple{Subject: fresh, Predicate: synParentSource, Object: parentSource})
		store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLParent, Object: parentCol})
		store.Insert(rdf.Triple{Subject: fresh, Predicate: RMLChild, Object: childCol})
		flag := "false"
		if referenceCondition {
			flag = "true"
		}
		store.Insert(rdf.Triple{Subject: fresh, Predicate: synJoinReferenceCondition, Object: flag})

		store.RemoveWhere(e.om, RMLParentTriplesMap, parent)
		store.RemoveWhere(e.om, RMLJoinCondition, jc)
		store.RemoveWhere(e.pom, RMLObjectMap, e.om)
		store.Insert(rdf.Triple{Subject: e.pom, Predicate: RMLObjectMap, Object: fresh})
	}
}

// graphMapNormalizationPass expands any remaining rr:graph shorthand
// (introduced, for example, by the fan-out passes copying a
// predicate-object map's graph edges around) into canonical graph-map
// form. Re-running the constant-shorthand expansion here is a no-op if
// pass 2 already caught every occurrence.
func graphMapNormalizationPass(store *rdf.Store, blanks *rdf.BlankNodeCounter) {
	constantShorthandPass(store, RMLGraph, blanks)
}
