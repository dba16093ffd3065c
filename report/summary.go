package report

import (
	"math"
	"sort"
	"strconv"
)

// DefaultTopN is how many groups ranked lists show.
const DefaultTopN = 10

type Group struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Hours   float64 `json:"hours"`
	Entries int     `json:"entries"`
}

type Summary struct {
	TotalHours    float64 `json:"totalHours"`
	EntryCount    int     `json:"entryCount"`
	WorkItemCount int     `json:"workItemCount"`
	// Groups are in first-seen order; use Top for ranked lists.
	ByUser     []Group `json:"byUser"`
	ByType     []Group `json:"byType"`
	ByWorkItem []Group `json:"byWorkItem"`
}

type grouper struct {
	index  map[string]int
	groups []Group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(key, label string, hours float64) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.groups)
		g.index[key] = i
		g.groups = append(g.groups, Group{Key: key, Label: label})
	}
	g.groups[i].Hours += hours
	g.groups[i].Entries++
}

func Summarize(rows []Row) Summary {
	users, types, items := newGrouper(), newGrouper(), newGrouper()

	summary := Summary{EntryCount: len(rows)}
	for _, row := range rows {
		summary.TotalHours += row.Hours

		name := row.UserDisplayName()
		users.add(name, name, row.Hours)

		typeName := row.TypeName()
		types.add(typeName, typeName, row.Hours)

		label := row.WorkItemTitle
		if label == "" {
			label = "#" + strconv.Itoa(row.WorkItemID)
		}
		items.add(strconv.Itoa(row.WorkItemID), label, row.Hours)
	}

	summary.WorkItemCount = len(items.groups)
	summary.ByUser = nonNil(users.groups)
	summary.ByType = nonNil(types.groups)
	summary.ByWorkItem = nonNil(items.groups)
	return summary
}

// Top returns the n groups with most hours, or all of them ranked for a
// negative n. Ties keep their original order.
func Top(groups []Group, n int) []Group {
	ranked := append([]Group(nil), groups...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Hours > ranked[j].Hours
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return nonNil(ranked)
}

func RoundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func nonNil(groups []Group) []Group {
	if groups == nil {
		return []Group{}
	}
	return groups
}
