package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
	"github.com/AtharAdista/garuda-hacks-6-BE/internal/websockets"
)

// =============================================================================
// CONTENT DISPLAY MACHINE
// =============================================================================
//
// One machine per started room: a background fetch loop fills Items while a
// one-second ticker walks the phases
//
//   initial_loading -> displaying -> inter_loading -> displaying -> ... -> completed
//
// Both loops stop through the machine's cancel func, which teardown and the
// completed transition both fire.

// StartDisplay spins up the room's display machine. It runs after the start
// delay, so the room is looked up fresh; a room that vanished meanwhile
// gets no machine.
func (h *Hub) StartDisplay(ctx context.Context, code string) {
	h.mu.Lock()
	if _, ok := h.rooms[code]; !ok {
		h.mu.Unlock()
		log.Printf("[StartDisplay] room=%s: gone before start, skipping", code)
		return
	}
	if _, ok := h.displays[code]; ok {
		h.mu.Unlock()
		log.Printf("[StartDisplay] room=%s: machine already running", code)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	ds := &internal.DisplayState{
		Phase:        internal.PhaseInitialLoading,
		CurrentIndex: -1,
		Countdown:    internal.InitialLoadingTicks,
		Cancel:       cancel,
	}
	h.displays[code] = ds
	h.mu.Unlock()

	log.Printf("[StartDisplay] room=%s: content flow started", code)
	h.broadcastContentState(code)

	go h.fetchItems(ctx, code, ds)
	go h.runTicker(ctx, code)
}

// fetchItems pulls up to MaxContentItems quiz items, one call at a time with
// a fixed pause between calls. A failed call is logged and skipped; the
// round plays with whatever arrived.
func (h *Hub) fetchItems(ctx context.Context, code string, ds *internal.DisplayState) {
	for seq := 1; seq <= internal.MaxContentItems; seq++ {
		if ctx.Err() != nil {
			return
		}

		item, err := h.fetcher.FetchItem(ctx, seq)
		if err != nil {
			log.Printf("[fetchItems] room=%s: call %d failed, skipping: %v", code, seq, err)
		} else {
			h.mu.Lock()
			if h.displays[code] != ds {
				// Machine replaced or torn down while we were fetching.
				h.mu.Unlock()
				return
			}
			ds.Items = append(ds.Items, item)
			ds.TotalItems = len(ds.Items)
			h.mu.Unlock()
		}

		if seq < internal.MaxContentItems {
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.timings.FetchInterval):
			}
		}
	}

	// Nothing at all arrived: the machine can never leave initial_loading,
	// so surface that instead of resetting the countdown forever.
	h.mu.Lock()
	failed := h.displays[code] == ds && len(ds.Items) == 0
	if failed {
		ds.Phase = internal.PhaseError
		ds.Countdown = 0
	}
	h.mu.Unlock()

	if failed {
		log.Printf("[fetchItems] room=%s: no items fetched, content flow failed", code)
		h.broadcastContentState(code)
	}
}

func (h *Hub) runTicker(ctx context.Context, code string) {
	ticker := time.NewTicker(h.timings.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(code)
		}
	}
}

// tick advances the countdown and, at zero, the phase. Every tick ends in a
// contentStateUpdate broadcast so clients stay in lockstep.
func (h *Hub) tick(code string) {
	h.mu.Lock()
	ds, ok := h.displays[code]
	if !ok || ds.Phase == internal.PhaseCompleted || ds.Phase == internal.PhaseError {
		h.mu.Unlock()
		return
	}

	ds.Countdown--
	if ds.Countdown <= 0 {
		h.advanceLocked(code, ds)
	}
	h.mu.Unlock()

	h.broadcastContentState(code)
}

// advanceLocked is the phase table. Callers hold h.mu.
func (h *Hub) advanceLocked(code string, ds *internal.DisplayState) {
	switch ds.Phase {
	case internal.PhaseInitialLoading:
		if len(ds.Items) == 0 {
			// Still waiting on the first item; run the loading countdown
			// again.
			ds.Countdown = internal.InitialLoadingTicks
			return
		}
		h.enterDisplayingLocked(code, ds, 0)

	case internal.PhaseDisplaying:
		if ds.CurrentIndex+1 < len(ds.Items) {
			ds.Phase = internal.PhaseInterLoading
			ds.Countdown = internal.InterLoadingTicks
			return
		}
		h.completeLocked(code, ds)

	case internal.PhaseInterLoading:
		next := ds.CurrentIndex + 1
		if next < len(ds.Items) {
			h.enterDisplayingLocked(code, ds, next)
			return
		}
		h.completeLocked(code, ds)
	}
}

// enterDisplayingLocked shows item idx and opens a fresh submission window.
func (h *Hub) enterDisplayingLocked(code string, ds *internal.DisplayState, idx int) {
	ds.Phase = internal.PhaseDisplaying
	ds.CurrentIndex = idx
	ds.Countdown = internal.DisplayingTicks
	delete(h.submissions, code)
}

func (h *Hub) completeLocked(code string, ds *internal.DisplayState) {
	ds.Phase = internal.PhaseCompleted
	ds.Countdown = 0
	if ds.Cancel != nil {
		ds.Cancel()
	}
	log.Printf("[tick] room=%s: content flow completed after %d items", code, len(ds.Items))
}

// RequestContentState answers a display snapshot query, serving clients that
// joined or reconnected mid-flow.
func (h *Hub) RequestContentState(conn *websockets.Conn, ev internal.RoomDataRequest) {
	h.mu.Lock()
	ds, ok := h.displays[ev.RoomID]
	if !ok {
		h.mu.Unlock()
		h.sendError(conn, fmt.Errorf("%w: no content flow for room %q", internal.ErrRoomNotFound, ev.RoomID))
		return
	}
	payload := contentSnapshotLocked(ds)
	h.mu.Unlock()

	h.send(conn, "contentStateUpdate", payload)
}
