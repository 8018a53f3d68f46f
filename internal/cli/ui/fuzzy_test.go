package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Post", "Pst", 1},
		{"Post.tags", "Post.tag", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			result := LevenshteinDistance(tt.s1, tt.s2)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d", tt.s1, tt.s2, result, tt.expected)
			}
		})
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Post", "PostStat", "Tag", "User", "Comment"}

	tests := []struct {
		name     string
		target   string
		opts     *FuzzyMatchOptions
		expected []string
	}{
		{name: "exact match first", target: "Post", expected: []string{"Post"}},
		{name: "closest first then candidate order", target: "Pst", expected: []string{"Post", "Tag", "User"}},
		{name: "case insensitive", target: "post", expected: []string{"Post"}},
		{
			name:     "case sensitive",
			target:   "POST",
			opts:     &FuzzyMatchOptions{MaxDistance: 1, CaseSensitive: true},
			expected: []string{},
		},
		{
			name:     "limited suggestions",
			target:   "Usr",
			opts:     &FuzzyMatchOptions{MaxSuggestions: 1},
			expected: []string{"User"},
		},
		{name: "nothing close", target: "Department", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindSimilar(tt.target, candidates, tt.opts)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("FindSimilar(%q) = %v; want %v", tt.target, result, tt.expected)
			}
		})
	}
}
