package core

import (
	"sort"

	"github.com/maruel/natural"
)

// SortStrings sorts in natural order, so student2 precedes student10.
func SortStrings(s []string) {
	sort.Sort(natural.StringSlice(s))
}

// SortSubmissions orders by student name naturally, then by time.
func SortSubmissions(subs []Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].Student != subs[j].Student {
			return natural.Less(subs[i].Student, subs[j].Student)
		}
		return subs[i].Time.Before(subs[j].Time)
	})
}
