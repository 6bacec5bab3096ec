package nlp

import (
	"math"
	"sort"
	"strings"
)

// maxVocabTerms caps the similarity vocabulary at the most frequent
// informative terms across the two texts.
const maxVocabTerms = 100

// Similarity computes the cosine similarity of the term-frequency vectors of
// two texts over their shared non-stop-word vocabulary, capped at the 100
// terms with the highest combined frequency (ties broken lexicographically).
// The result is clamped to [0,1]. Degenerate inputs — empty texts, no shared
// vocabulary, nothing but stop words — score exactly 0.0 and never error.
func Similarity(a, b string) float64 {
	fa := termFrequencies(a)
	fb := termFrequencies(b)
	if len(fa) == 0 || len(fb) == 0 {
		return 0
	}

	total := make(map[string]int, len(fa)+len(fb))
	for t, n := range fa {
		total[t] += n
	}
	for t, n := range fb {
		total[t] += n
	}
	vocab := make([]string, 0, len(total))
	for t := range total {
		vocab = append(vocab, t)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if total[vocab[i]] != total[vocab[j]] {
			return total[vocab[i]] > total[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if len(vocab) > maxVocabTerms {
		vocab = vocab[:maxVocabTerms]
	}

	var dot, na, nb float64
	for _, t := range vocab {
		x := float64(fa[t])
		y := float64(fb[t])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(math.Max(sim, 0), 1)
}

// termFrequencies tokenizes normalized text into informative terms: stop
// words and single-character tokens are dropped.
func termFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, w := range strings.Fields(Normalize(text)) {
		if len(w) < 2 || stopWords[w] {
			continue
		}
		freq[w]++
	}
	return freq
}
