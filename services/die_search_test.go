package services

import (
	"testing"
)

func sampleDies() []Die {
	return []Die{
		{DieCode: "D-103", DieName: "Wedding card", JobType: "Card", Type: "Flat", ProductSize: Dimensions{Length: 18, Breadth: 12}},
		{DieCode: "D-101", DieName: "Square card", JobType: "Card", Type: "Flat", ProductSize: Dimensions{Length: 15, Breadth: 15}},
		{DieCode: "D-102", DieName: "Gift box", JobType: "Box", Type: "Rotary", ProductSize: Dimensions{Length: 12, Breadth: 18.3}},
		{DieCode: "D-104", DieName: "Tag", JobType: "Tag", Type: "Flat", ProductSize: Dimensions{Length: 5, Breadth: 9}},
	}
}

func codes(dies []Die) []string {
	out := make([]string, 0, len(dies))
	for _, d := range dies {
		out = append(out, d.DieCode)
	}
	return out
}

func TestSearchDies(t *testing.T) {
	tests := []struct {
		name string
		q    DieQuery
		want []string
	}{
		{"no filters sorts by code", DieQuery{}, []string{"D-101", "D-102", "D-103", "D-104"}},
		{"text on name", DieQuery{Text: "CARD"}, []string{"D-101", "D-103"}},
		{"text on code", DieQuery{Text: "d-104"}, []string{"D-104"}},
		{"job type", DieQuery{JobType: "box"}, []string{"D-102"}},
		{"die type", DieQuery{Type: "flat", Limit: 2}, []string{"D-101", "D-103"}},
		{"size either orientation, closest first", DieQuery{Length: 18, Breadth: 12}, []string{"D-103", "D-102"}},
		{"rotated request", DieQuery{Length: 12, Breadth: 18}, []string{"D-103", "D-102"}},
		{"tight tolerance", DieQuery{Length: 18, Breadth: 12, Tolerance: 0.1}, []string{"D-103"}},
		{"one side only", DieQuery{Length: 15}, []string{"D-101"}},
		{"nothing close", DieQuery{Length: 40, Breadth: 40}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codes(SearchDies(sampleDies(), tt.q))
			if len(got) != len(tt.want) {
				t.Fatalf("SearchDies() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("SearchDies() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
