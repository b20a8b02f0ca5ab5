package triage

import (
	"sort"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Per-term match weights. Title matches must outrank tag matches, and tag
// matches must outrank body matches.
const (
	titleWeight = 2.0
	tagWeight   = 1.0
	bodyWeight  = 0.5
)

// RankArticles scores published candidates against the query text by term
// overlap and returns at most limit results, highest score first.
//
// The sort is stable: candidates with equal scores keep their input order.
// Candidates are never mutated. An empty query or candidate list yields an
// empty result.
func RankArticles(query string, candidates []domain.Article, limit int) []domain.Article {
	terms := queryTerms(query)
	if len(terms) == 0 || len(candidates) == 0 || limit <= 0 {
		return []domain.Article{}
	}

	type scored struct {
		article domain.Article
		score   float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Status != domain.ArticleStatusPublished {
			continue
		}
		score := scoreArticle(terms, candidate)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, scored{article: candidate, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result := make([]domain.Article, 0, len(ranked))
	for _, entry := range ranked {
		result = append(result, entry.article)
	}
	return result
}

func scoreArticle(terms []string, article domain.Article) float64 {
	title := strings.ToLower(article.Title)
	body := strings.ToLower(article.Body)
	tags := make([]string, 0, len(article.Tags))
	for _, tag := range article.Tags {
		tags = append(tags, strings.ToLower(tag))
	}

	score := 0.0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleWeight
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				score += tagWeight
				break
			}
		}
		if strings.Contains(body, term) {
			score += bodyWeight
		}
	}
	return score
}

// queryTerms lowercases and splits the query, dropping terms shorter than
// three runes to keep stopwords from dominating the score.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		term := strings.Trim(field, ".,!?:;\"'()")
		if len([]rune(term)) < 3 {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
