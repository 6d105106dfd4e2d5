package members

import (
	"sort"
	"strings"

	"github.com/campus-clubs/backend/internal/models"
)

// ExecutiveTitles lists the committee titles in display order.
var ExecutiveTitles = []string{
	"President",
	"Vice President",
	"General Secretary",
	"Joint Secretary",
	"Treasurer",
	"Organizing Secretary",
	"Media & PR",
	"Event Coordinator",
	"Executive Member",
}

var executiveRank = func() map[string]int {
	m := make(map[string]int, len(ExecutiveTitles))
	for i, t := range ExecutiveTitles {
		m[models.NormalizePosition(t)] = i
	}
	return m
}()

// ExecutiveRank returns the display rank of a position and whether it is an executive title.
func ExecutiveRank(position string) (int, bool) {
	r, ok := executiveRank[models.NormalizePosition(position)]
	return r, ok
}

// RankExecutives keeps members whose position is an executive title and orders them
// by title rank, then name (case-insensitive), then id.
func RankExecutives(list []models.Member) []models.Member {
	out := make([]models.Member, 0, len(list))
	for _, m := range list {
		if _, ok := ExecutiveRank(m.Position); ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, _ := ExecutiveRank(out[i].Position)
		rj, _ := ExecutiveRank(out[j].Position)
		if ri != rj {
			return ri < rj
		}
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
