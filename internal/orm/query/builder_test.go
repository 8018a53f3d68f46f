package query

import (
	"testing"
)

func TestPredicateBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*PredicateBuilder)
		expected string
	}{
		{
			name:     "empty",
			build:    func(pb *PredicateBuilder) {},
			expected: "1=1",
		},
		{
			name: "and chain",
			build: func(pb *PredicateBuilder) {
				pb.And("p.status", OpEqual, "published").And("p.views", OpGreaterThan, 10)
			},
			expected: "p.status = 'published' and p.views > 10",
		},
		{
			name: "or chain",
			build: func(pb *PredicateBuilder) {
				pb.Or("p.status", OpEqual, "draft").Or("p.status", OpEqual, "review")
			},
			expected: "p.status = 'draft' or p.status = 'review'",
		},
		{
			name: "left associative",
			build: func(pb *PredicateBuilder) {
				pb.And("a", OpEqual, 1).And("b", OpEqual, 2).Or("c", OpEqual, 3)
			},
			expected: "(a = 1 and b = 2) or c = 3",
		},
		{
			name: "or group",
			build: func(pb *PredicateBuilder) {
				pb.And("p.published", OpEqual, true).OrGroup(func(g *PredicateBuilder) {
					g.And("p.views", OpGreaterThan, 100).And("p.featured", OpEqual, true)
				})
			},
			expected: "p.published = true and (p.views > 100 or p.featured = true)",
		},
		{
			name: "and group",
			build: func(pb *PredicateBuilder) {
				pb.AndGroup(func(g *PredicateBuilder) {
					g.Or("a", OpEqual, 1).Or("b", OpEqual, 2)
				}).Where(IsNotNull(Attr("c")))
			},
			expected: "(a = 1 and b = 2) and c is not null",
		},
		{
			name: "empty group is skipped",
			build: func(pb *PredicateBuilder) {
				pb.And("a", OpEqual, 1).OrGroup(func(g *PredicateBuilder) {})
			},
			expected: "a = 1",
		},
		{
			name: "arbitrary predicates",
			build: func(pb *PredicateBuilder) {
				pb.Where(In(Attr("p.id"), 1, 2)).OrWhere(Like(Attr("p.title"), Param("q")))
			},
			expected: "p.id in (1, 2) or p.title like :q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewPredicateBuilder()
			tt.build(pb)
			if got := Format(pb.Build()); got != tt.expected {
				t.Errorf("Format(Build()) = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredicateBuilder_Empty(t *testing.T) {
	pb := NewPredicateBuilder()
	if !pb.Empty() {
		t.Error("new builder should be empty")
	}
	pb.Where(nil)
	if !pb.Empty() {
		t.Error("nil predicates should be ignored")
	}
	pb.And("a", OpEqual, 1)
	if pb.Empty() {
		t.Error("builder should not be empty after And")
	}
}
