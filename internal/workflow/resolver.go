package workflow

import "stage-analytics-service/internal/model"

// claimForward matches each start, in ascending order, to the needed
// earliest unclaimed candidates strictly after it. The occurrence closes at the
// last of them. Starts that cannot gather enough candidates stay open and
// claim nothing. The result holds an entry index per start, or -1.
func claimForward(entries []entry, starts, candidates []int, needed int) []int {
	if needed < 1 {
		needed = 1
	}
	claimed := make([]bool, len(candidates))
	closers := make([]int, len(starts))
	picked := make([]int, 0, needed)

	for i, s := range starts {
		closers[i] = -1
		picked = picked[:0]
		for c, idx := range candidates {
			if claimed[c] || !entries[idx].at.After(entries[s].at) {
				continue
			}
			picked = append(picked, c)
			if len(picked) == needed {
				break
			}
		}
		if len(picked) < needed {
			continue
		}
		for _, c := range picked {
			claimed[c] = true
		}
		closers[i] = candidates[picked[needed-1]]
	}
	return closers
}

// claimBackward matches each marker, in ascending order, to the latest
// unclaimed opener strictly before it.
func claimBackward(entries []entry, markers, openers []int) []int {
	claimed := make([]bool, len(openers))
	found := make([]int, len(markers))

	for i, m := range markers {
		found[i] = -1
		for c := len(openers) - 1; c >= 0; c-- {
			idx := openers[c]
			if claimed[c] || !entries[idx].at.Before(entries[m].at) {
				continue
			}
			claimed[c] = true
			found[i] = idx
			break
		}
	}
	return found
}

// pausedWalk is the active/paused state machine of one paused-tracking
// occurrence. members are the group's entry indices in chronological order.
type pausedWalk struct {
	activeMs int64
	pausedMs int64
	paused   bool
	last     int
	end      int
}

func walkPaused(entries []entry, start int, members []int, claimedEnds map[int]bool) pausedWalk {
	w := pausedWalk{last: start, end: -1}
	startAt := entries[start].at

	for _, idx := range members {
		e := entries[idx]
		if !e.at.After(startAt) {
			continue
		}
		switch e.event.EventType {
		case model.EventPause:
			w.credit(entries, idx)
			w.paused = true
		case model.EventResume:
			w.credit(entries, idx)
			w.paused = false
		case model.EventEnd:
			if claimedEnds[idx] {
				continue
			}
			w.credit(entries, idx)
			claimedEnds[idx] = true
			w.end = idx
			return w
		}
	}
	return w
}

func (w *pausedWalk) credit(entries []entry, idx int) {
	elapsed := entries[idx].at.Sub(entries[w.last].at).Milliseconds()
	if w.paused {
		w.pausedMs += elapsed
	} else {
		w.activeMs += elapsed
	}
	w.last = idx
}

// OpenOccurrences reconstructs a vehicle against its full event history and
// returns the occurrences that have no qualifying closer yet. The history must
// not be window-restricted: a closer may lie outside any reporting window.
func OpenOccurrences(v model.Vehicle) ([]Interval, []Issue) {
	res := Reconstruct(v.VehicleNumber, v.Stages)
	open := make([]Interval, 0)
	for _, iv := range res.Intervals {
		if iv.Open() {
			open = append(open, iv)
		}
	}
	return open, res.Issues
}

// IsOpen reports whether the occurrence started by start is still open.
func IsOpen(v model.Vehicle, start model.StageEvent) bool {
	open, _ := OpenOccurrences(v)
	at := start.Timestamp.Truncate(timeResolution)
	for _, iv := range open {
		if iv.StartedAt.Equal(at) && iv.StageName == start.Name() {
			return true
		}
	}
	return false
}
