package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("invoice", "invoice"))
	assert.Equal(t, 1, LevenshteinDistance("invoice", "invoise"))
	assert.Equal(t, 7, LevenshteinDistance("", "invoice"))
	assert.Equal(t, 0, LevenshteinDistance("Invoice", "INVOICE"), "comparison is case-insensitive")
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("invoice", "Your invoice is attached", 2))
	assert.True(t, Match("invoice", "Your invoise is attached", 2), "one typo within threshold")
	assert.False(t, Match("invoice", "weekly newsletter", 2))
}

func TestRelevanceScore(t *testing.T) {
	exact := RelevanceScore("invoice", "Invoice #42", "noreply@vendor.com")
	fuzzyHit := RelevanceScore("invoice", "Your invoise arrived", "noreply@vendor.com")
	senderOnly := RelevanceScore("invoice", "Payment due", "invoice@vendor.com")
	miss := RelevanceScore("invoice", "Team lunch", "alice@corp.com")

	assert.Greater(t, exact, fuzzyHit, "exact subject hit outranks a near miss")
	assert.Greater(t, fuzzyHit, miss)
	assert.Greater(t, senderOnly, miss)
	assert.Equal(t, 0.0, miss)
	assert.Equal(t, 0.0, RelevanceScore("", "anything", "a@b.c"))
}
