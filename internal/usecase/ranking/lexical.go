package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/expertmatch/internal/domain/expert"
)

// BM25 parameters (standard Robertson values).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// maxSemanticCandidates bounds the candidate-id list handed to the semantic
// backend.
const maxSemanticCandidates = 1000

// lexicalScores is the per-request output of the ephemeral BM25 index:
// normalized scores aligned with the candidate slice, and the capped
// candidate-id list ordered by raw score descending.
type lexicalScores struct {
	norm   []float64
	topIDs []string
}

// scoreLexical builds a BM25 index over the candidate set and scores every
// candidate against the query. The index lives only for this request.
// Candidates with no tokens score zero; if every raw score is zero, every
// normalized score is zero.
func scoreLexical(candidates []expert.Profile, queryText string) lexicalScores {
	out := lexicalScores{norm: make([]float64, len(candidates))}
	if len(candidates) == 0 {
		return out
	}

	queryTerms := tokenize(queryText)
	if len(queryTerms) == 0 {
		return out
	}

	docs := make([][]string, len(candidates))
	totalLen := 0
	docFreq := make(map[string]int)
	for i := range candidates {
		docs[i] = tokenize(candidates[i].Document())
		totalLen += len(docs[i])
		for _, term := range uniqueTerms(docs[i]) {
			docFreq[term]++
		}
	}
	avgDocLen := float64(totalLen) / float64(len(candidates))

	raw := make([]float64, len(candidates))
	maxRaw := 0.0
	for i, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		tf := make(map[string]int, len(doc))
		for _, term := range doc {
			tf[term]++
		}
		score := 0.0
		for _, term := range queryTerms {
			freq := tf[term]
			if freq == 0 {
				continue
			}
			score += idf(len(candidates), docFreq[term]) *
				tfNorm(float64(freq), float64(len(doc)), avgDocLen)
		}
		raw[i] = score
		if score > maxRaw {
			maxRaw = score
		}
	}

	if maxRaw > 0 {
		for i, r := range raw {
			out.norm[i] = r / maxRaw
		}
	}
	out.topIDs = topCandidates(candidates, raw)
	return out
}

// tokenize lowercases, strips every character outside [a-z0-9\s], and splits
// on whitespace.
func tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func idf(totalDocs, docFreq int) float64 {
	return math.Log((float64(totalDocs)-float64(docFreq))/(float64(docFreq)+0.5) + 1)
}

func tfNorm(termFreq, docLen, avgDocLen float64) float64 {
	if avgDocLen == 0 {
		return 0
	}
	denom := termFreq + bm25K1*(1-bm25B+bm25B*docLen/avgDocLen)
	return termFreq * (bm25K1 + 1) / denom
}

// topCandidates returns the ids of positively scored candidates ordered by
// raw score descending, capped at maxSemanticCandidates. Ties keep candidate
// order.
func topCandidates(candidates []expert.Profile, raw []float64) []string {
	idx := make([]int, 0, len(raw))
	for i, r := range raw {
		if r > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return raw[idx[a]] > raw[idx[b]]
	})
	if len(idx) > maxSemanticCandidates {
		idx = idx[:maxSemanticCandidates]
	}
	ids := make([]string, len(idx))
	for i, j := range idx {
		ids[i] = candidates[j].ID
	}
	return ids
}
