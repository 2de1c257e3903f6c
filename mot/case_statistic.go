package mot

import (
	"fmt"
	"strings"
)

// AssociationCase is one of six situations resolved by TrackerSet for every frame
type AssociationCase uint16

const (
	// CaseTrackerNoRegions - tracker overlaps no region
	CaseTrackerNoRegions AssociationCase = iota
	// CaseRegionNoTrackers - region overlaps no tracker
	CaseRegionNoTrackers
	// CaseOneToOne - tracker and region overlap only each other
	CaseOneToOne
	// CaseManyTrackersOneRegion - several trackers share one region
	CaseManyTrackersOneRegion
	// CaseOneTrackerManyRegions - tracker overlaps several regions, none of them shared
	CaseOneTrackerManyRegions
	// CaseManyToMany - tracker overlaps several regions, some of them shared with other trackers
	CaseManyToMany

	casesCount = 6
)

var caseNames = [casesCount][2]string{
	{"Tracker  1  <=> 0  Regions", "T:1-0:R"},
	{"Trackers 0  <=> 1  Region", "T:0-1:R"},
	{"Trackers 1  <=> 1  Region", "T:1-1:R"},
	{"Trackers 2+ <=> 1  Region", "T:2+-1:R"},
	{"Trackers 1  <=> 2+ Regions", "T:1-2+:R"},
	{"Trackers 2+ <=> 2+ Regions", "T:2+-2+:R"},
}

func (c AssociationCase) String() string {
	if int(c) >= casesCount {
		return "unknown"
	}
	return caseNames[c][1]
}

// CaseStatistic counts how many times an association case fired
type CaseStatistic struct {
	Name      string
	ShortName string
	Count     int
}

func (cs CaseStatistic) String() string {
	return fmt.Sprintf("(%s -> %d)", cs.ShortName, cs.Count)
}

// CaseStatistics holds counters of all six association cases
type CaseStatistics [casesCount]CaseStatistic

func newCaseStatistics() CaseStatistics {
	stats := CaseStatistics{}
	for i := range stats {
		stats[i] = CaseStatistic{Name: caseNames[i][0], ShortName: caseNames[i][1]}
	}
	return stats
}

func (stats *CaseStatistics) inc(c AssociationCase) {
	stats[c].Count++
}

// Count returns counter of the given case
func (stats CaseStatistics) Count(c AssociationCase) int {
	return stats[c].Count
}

func (stats CaseStatistics) String() string {
	parts := make([]string, len(stats))
	for i := range stats {
		parts[i] = stats[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
