package report

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/trezcool/matokeo/core/academic"
)

// pageCount counts the page objects in a finalized PDF stream; the document
// catalog contributes one extra "/Type /Pages" node.
func pageCount(b []byte) int {
	return bytes.Count(b, []byte("/Type /Page")) - 1
}

// expectedPages replays the layout: one line per result (or the single
// no-results line) from below the title, breaking at the bottom margin.
func expectedPages(nResults int) int {
	lines := nResults
	if lines == 0 {
		lines = 1
	}
	pages := 1
	y := topMargin + titleGap
	for i := 0; i < lines; i++ {
		y += lineStep
		if y > pageHeight-bottomMargin {
			pages++
			y = topMargin
		}
	}
	return pages
}

func manyResults(n int) []academic.Result {
	results := make([]academic.Result, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, academic.Result{
			SubjectName: fmt.Sprintf("Subject %d", i),
			Marks:       i % 101,
		})
	}
	return results
}

func TestResultLines(t *testing.T) {
	tests := []struct {
		name    string
		results []academic.Result
		want    []string
	}{
		{name: "no results", want: []string{"No results available."}},
		{
			name:    "subject and marks",
			results: []academic.Result{{SubjectName: "Mathematics", Marks: 72}},
			want:    []string{"Mathematics: 72"},
		},
		{
			name:    "unresolved subject",
			results: []academic.Result{{Marks: 40}},
			want:    []string{"Unknown Subject: 40"},
		},
		{
			name: "order preserved",
			results: []academic.Result{
				{SubjectName: "Mathematics", Marks: 72},
				{SubjectName: "Physics", Marks: 0},
			},
			want: []string{"Mathematics: 72", "Physics: 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resultLines(tt.results)
			if len(got) != len(tt.want) {
				t.Fatalf("resultLines() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("resultLines()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRender(t *testing.T) {
	st := academic.Student{Name: "Jane Roe", RollNo: "s1001"}

	tests := []struct {
		name     string
		nResults int
	}{
		{name: "no results", nResults: 0},
		{name: "single page", nResults: 10},
		{name: "fills the first page", nResults: 35},
		{name: "spills onto a second page", nResults: 60},
		{name: "many pages", nResults: 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(st, manyResults(tt.nResults))
			if err != nil {
				t.Fatalf("Render(): %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF")) {
				t.Error("output is not a PDF stream")
			}
			if got, want := pageCount(out), expectedPages(tt.nResults); got != want {
				t.Errorf("pageCount = %d, want %d", got, want)
			}
		})
	}
}
