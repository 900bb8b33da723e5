package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/httptim/rednet-core/internal/search/index"
)

// Result is one scored, filtered document (spec.md §4.11).
type Result struct {
	DocID int
	URL   string
	Title string
	Score float64
}

// evaluate resolves node against ix and the full corpus, returning the
// matching document ids with enough bookkeeping for scoring.
func evaluate(node *Node, ix *index.Index) map[int]bool {
	switch node.Kind {
	case NodeTerm:
		return docsForTerm(node.Term, ix)
	case NodePhrase:
		return docsForPhrase(node.Phrase, ix)
	case NodeFilter:
		return docsForFilter(node, ix)
	case NodeNot:
		universe := allDocs(ix)
		excluded := evaluate(node.Child, ix)
		for id := range excluded {
			delete(universe, id)
		}
		return universe
	case NodeAnd:
		left := evaluate(node.Left, ix)
		right := evaluate(node.Right, ix)
		out := map[int]bool{}
		for id := range left {
			if right[id] {
				out[id] = true
			}
		}
		return out
	case NodeOr:
		left := evaluate(node.Left, ix)
		right := evaluate(node.Right, ix)
		out := map[int]bool{}
		for id := range left {
			out[id] = true
		}
		for id := range right {
			out[id] = true
		}
		return out
	default:
		return map[int]bool{}
	}
}

func docsForTerm(term string, ix *index.Index) map[int]bool {
	out := map[int]bool{}
	for _, p := range ix.Postings(term) {
		out[p.DocID] = true
	}
	return out
}

func docsForPhrase(phrase []string, ix *index.Index) map[int]bool {
	out := map[int]bool{}
	if len(phrase) == 0 {
		return out
	}
	candidates := docsForTerm(phrase[0], ix)
	for id := range candidates {
		doc, ok := ix.Document(id)
		if ok && containsAdjacent(doc.Content, phrase) {
			out[id] = true
		}
	}
	return out
}

func containsAdjacent(content string, phrase []string) bool {
	tokens := index.Tokenize(content)
	if len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func docsForFilter(node *Node, ix *index.Index) map[int]bool {
	out := map[int]bool{}
	for _, doc := range ix.AllDocuments() {
		if filterMatches(node, doc) {
			out[doc.ID] = true
		}
	}
	return out
}

func filterMatches(node *Node, doc index.Document) bool {
	switch node.FilterKey {
	case "site":
		return strings.Contains(strings.ToLower(doc.URL), node.FilterVal)
	case "type":
		return strings.EqualFold(doc.Type, node.FilterVal)
	case "title":
		return strings.Contains(strings.ToLower(doc.Title), node.FilterVal)
	default:
		return false
	}
}

func allDocs(ix *index.Index) map[int]bool {
	out := map[int]bool{}
	for _, doc := range ix.AllDocuments() {
		out[doc.ID] = true
	}
	return out
}

// termsIn collects every NodeTerm/NodePhrase leaf for tf-idf scoring;
// filters and NOT contribute no score weight of their own.
func termsIn(node *Node) []string {
	switch node.Kind {
	case NodeTerm:
		return []string{node.Term}
	case NodePhrase:
		return append([]string(nil), node.Phrase...)
	case NodeAnd, NodeOr:
		return append(termsIn(node.Left), termsIn(node.Right)...)
	case NodeNot:
		return nil
	default:
		return nil
	}
}

// Score runs node against ix, scoring each matching document by
// sum(tf(t,d) * log(N/df(t))) over query terms, sorted by descending
// score and stably by docId (spec.md §4.11).
func Score(node *Node, ix *index.Index) []Result {
	matches := evaluate(node, ix)
	terms := termsIn(node)
	n := float64(ix.Stats().TotalDocuments)

	results := make([]Result, 0, len(matches))
	for id := range matches {
		doc, ok := ix.Document(id)
		if !ok {
			continue
		}
		score := 0.0
		docTF := termFreqInDoc(doc.Content)
		for _, t := range terms {
			tf := float64(docTF[t])
			if tf == 0 {
				continue
			}
			df := float64(ix.DocFrequency(t))
			if df == 0 || n == 0 {
				continue
			}
			score += tf * math.Log(n/df)
		}
		results = append(results, Result{DocID: id, URL: doc.URL, Title: doc.Title, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	return results
}

func termFreqInDoc(content string) map[string]int {
	tf := map[string]int{}
	for _, t := range index.Tokenize(content) {
		tf[t]++
	}
	return tf
}
