package game

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// =============================================================================
// SUBMISSIONS & ROUND RESOLUTION
// =============================================================================

// Select relays a live answer preview to the opponent. It records nothing;
// only Submit commits an answer.
func (h *Hub) Select(conn *websockets.Conn, ev internal.ProvinceEvent) {
	h.mu.Lock()
	_, ok := h.rooms[ev.RoomID]
	h.mu.Unlock()
	if !ok {
		h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, ev.RoomID))
		return
	}

	h.broadcastExcept(ev.RoomID, conn, "provinceSelected", internal.ProvinceSelectedPayload{
		UserID:   ev.UserID,
		Province: ev.Province,
	})
}

// Submit commits a player's answer for the item on display. Outside a
// displaying phase the submission is rejected without touching any state.
// The second commit closes the window: the display machine is forced into
// inter_loading and resolution is scheduled.
func (h *Hub) Submit(conn *websockets.Conn, ev internal.ProvinceEvent) {
	h.mu.Lock()
	room, ok := h.rooms[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: code %q", internal.ErrRoomNotFound, ev.RoomID))
		return
	}
	if !room.HasPlayer(ev.UserID) {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: %s in room %q", internal.ErrPlayerNotFound, ev.UserID, ev.RoomID))
		return
	}
	ds, ok := h.displays[ev.RoomID]
	if !ok || ds.Phase != internal.PhaseDisplaying {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: no submission window open in room %q", internal.ErrInvalidPhase, ev.RoomID))
		return
	}

	subs := h.submissions[ev.RoomID]
	if subs == nil {
		subs = make(map[string]internal.Submission)
		h.submissions[ev.RoomID] = subs
	}
	// Re-submitting before the window closes replaces the earlier answer.
	subs[ev.UserID] = internal.Submission{Province: ev.Province, SubmittedAt: time.Now()}

	count := len(subs)
	total := len(room.Players)
	closing := count == total && total >= internal.MinPlayersToStart
	var closingIndex int
	if closing {
		// Freeze which item this round is scored against, then shove the
		// machine into inter_loading so no further submits land.
		closingIndex = ds.CurrentIndex
		ds.Phase = internal.PhaseInterLoading
		ds.Countdown = internal.InterLoadingTicks
	}
	h.mu.Unlock()

	log.Printf("[Submit] room=%s: %s submitted (%d/%d)", ev.RoomID, ev.UserID, count, total)
	h.broadcastExcept(ev.RoomID, conn, "opponentSubmitted", internal.OpponentSubmittedPayload{
		UserID:   ev.UserID,
		Province: ev.Province,
	})

	if closing {
		h.broadcast(ev.RoomID, "bothSubmitted", internal.BothSubmittedPayload{
			Message:         "Both players have submitted their answers",
			SubmissionCount: count,
			TotalPlayers:    total,
		})
		h.broadcastContentState(ev.RoomID)
		time.AfterFunc(h.timings.ResolveDelay, func() {
			h.resolveRound(ev.RoomID, closingIndex)
		})
	}
}

// resolveRound scores the closed round and applies damage. It runs after a
// scheduled delay, so everything is re-validated: the room, the machine and
// both submissions must still be intact or the round is abandoned.
func (h *Hub) resolveRound(code string, itemIndex int) {
	h.mu.Lock()
	room, ok := h.rooms[code]
	ds := h.displays[code]
	subs := h.submissions[code]

	if !ok || ds == nil || len(room.Players) != 2 || len(subs) != 2 ||
		itemIndex < 0 || itemIndex >= len(ds.Items) {
		h.mu.Unlock()
		log.Printf("[resolveRound] room=%s: state changed before resolution, abandoning round", code)
		return
	}
	for userID := range subs {
		if !room.HasPlayer(userID) {
			h.mu.Unlock()
			log.Printf("[resolveRound] room=%s: submitter %s left, abandoning round", code, userID)
			return
		}
	}

	item := ds.Items[itemIndex]
	results := make([]internal.PlayerResult, 0, 2)
	for userID, sub := range subs {
		results = append(results, internal.PlayerResult{
			UserID:    userID,
			Province:  sub.Province,
			IsCorrect: sub.Province == item.Province,
		})
	}

	// Every wrong answer costs a health point; right answers cost nothing.
	// Two wrong answers hurt both players, two right answers hurt no one.
	for i := range results {
		p := room.Players[results[i].UserID]
		if !results[i].IsCorrect {
			p.Health--
		}
		results[i].Health = p.Health
	}
	sort.Slice(results, func(i, j int) bool { return results[i].UserID < results[j].UserID })

	delete(h.submissions, code)

	var survivors []string
	for userID, p := range room.Players {
		if p.Health > 0 {
			survivors = append(survivors, userID)
		}
	}
	over := len(survivors) < len(room.Players)
	var overPayload internal.GameOverPayload
	if over {
		winner := ""
		if len(survivors) == 1 {
			winner = survivors[0]
		}
		overPayload = internal.GameOverPayload{Winner: winner, Players: room.PlayerSnapshots()}
		// The match is decided; stop the content flow where it stands.
		ds.Phase = internal.PhaseCompleted
		ds.Countdown = 0
		if ds.Cancel != nil {
			ds.Cancel()
		}
	}
	h.mu.Unlock()

	h.broadcast(code, "showResults", internal.ShowResultsPayload{
		Results:       results,
		CorrectAnswer: item.Province,
		ContentItem:   item,
	})

	if over {
		log.Printf("[resolveRound] room=%s: game over, winner=%q", code, overPayload.Winner)
		h.broadcast(code, "gameOver", overPayload)
		h.broadcastContentState(code)
		return
	}

	time.AfterFunc(h.timings.NextRoundDelay, func() {
		h.nextRound(code)
	})
}

// nextRound tells the room a fresh round is coming, with current healths.
func (h *Hub) nextRound(code string) {
	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.submissions, code)
	payload := internal.NextRoundPayload{Players: room.PlayerSnapshots()}
	h.mu.Unlock()

	h.broadcast(code, "nextRound", payload)
}
