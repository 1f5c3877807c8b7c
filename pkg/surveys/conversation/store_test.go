package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

func TestStoreGetPutRemove(t *testing.T) {
	store := NewStore(30*time.Minute, time.Hour)
	defer store.Stop()

	t.Run("missing entry", func(t *testing.T) {
		if _, err := store.Get("r1"); err != ErrNotFound {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		state := NewState("r1", time.Now())
		state.SurveyKey = "wellbeing"
		store.Put("r1", state)

		got, err := store.Get("r1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SurveyKey != "wellbeing" {
			t.Errorf("unexpected state: %+v", got)
		}
	})

	t.Run("put replaces, never merges", func(t *testing.T) {
		replacement := NewState("r1", time.Now())
		replacement.SurveyKey = "onboarding"
		store.Put("r1", replacement)

		got, err := store.Get("r1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SurveyKey != "onboarding" {
			t.Errorf("unexpected state: %+v", got)
		}
	})

	t.Run("remove", func(t *testing.T) {
		store.Remove("r1")
		if _, err := store.Get("r1"); err != ErrNotFound {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestStoreExpiration(t *testing.T) {
	store := NewStore(30*time.Minute, time.Hour)
	defer store.Stop()

	now := time.Now()
	store.nowFn = func() time.Time { return now }

	state := NewState("r1", now)
	store.Put("r1", state)

	t.Run("fresh entry is returned", func(t *testing.T) {
		if _, err := store.Get("r1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("stale entry is evicted on access", func(t *testing.T) {
		now = now.Add(31 * time.Minute)
		if _, err := store.Get("r1"); err != ErrExpired {
			t.Errorf("unexpected error: %v", err)
		}
		// evicted: the second access is a plain miss
		if _, err := store.Get("r1"); err != ErrNotFound {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("put refreshes activity", func(t *testing.T) {
		store.Put("r2", NewState("r2", now))
		now = now.Add(29 * time.Minute)
		state, err := store.Get("r2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		store.Put("r2", state)
		now = now.Add(29 * time.Minute)
		if _, err := store.Get("r2"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestStoreSweep(t *testing.T) {
	store := NewStore(30*time.Minute, time.Hour)
	defer store.Stop()

	now := time.Now()
	store.nowFn = func() time.Time { return now }

	store.Put("r1", NewState("r1", now))
	store.Put("r2", NewState("r2", now))
	now = now.Add(20 * time.Minute)
	store.Put("r3", NewState("r3", now))

	now = now.Add(15 * time.Minute)
	store.sweepExpired()

	if store.ActiveCount() != 1 {
		t.Errorf("unexpected entry count after sweep: %d", store.ActiveCount())
	}
	if _, err := store.Get("r3"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Two concurrent turn sequences for the same respondent must be serialized:
// both increments must be visible afterwards.
func TestStoreAcquireSerializesPerRespondent(t *testing.T) {
	store := NewStore(30*time.Minute, time.Hour)
	defer store.Stop()

	state := NewState("r1", time.Now())
	store.Put("r1", state)

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := store.Acquire("r1")
			defer release()

			current, err := store.Get("r1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			next := *current
			next.Visited = append(append([]int{}, current.Visited...), len(current.Visited)+1)
			store.Put("r1", &next)
		}()
	}
	wg.Wait()

	got, err := store.Get("r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Visited) != turns {
		t.Errorf("lost updates: %d visited entries, want %d", len(got.Visited), turns)
	}
}

func TestStatePhaseTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("start to completion", func(t *testing.T) {
		state := NewState("r1", time.Now())
		for _, event := range []string{EVENT_SELECT_SURVEY, EVENT_BEGIN, EVENT_COMPLETE} {
			if err := state.AdvancePhase(ctx, event); err != nil {
				t.Fatalf("unexpected error on %s: %v", event, err)
			}
		}
		if state.Phase != PHASE_COMPLETED {
			t.Errorf("unexpected phase: %s", state.Phase)
		}
	})

	t.Run("cancel while in progress", func(t *testing.T) {
		state := NewState("r1", time.Now())
		_ = state.AdvancePhase(ctx, EVENT_SELECT_SURVEY)
		_ = state.AdvancePhase(ctx, EVENT_BEGIN)
		if err := state.AdvancePhase(ctx, EVENT_CANCEL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.Phase != PHASE_CANCELLED {
			t.Errorf("unexpected phase: %s", state.Phase)
		}
	})

	t.Run("illegal transition leaves phase unchanged", func(t *testing.T) {
		state := NewState("r1", time.Now())
		if err := state.AdvancePhase(ctx, EVENT_COMPLETE); err == nil {
			t.Error("should produce error")
		}
		if state.Phase != PHASE_IDLE {
			t.Errorf("unexpected phase: %s", state.Phase)
		}
	})
}

func TestStateAnswerBookkeeping(t *testing.T) {
	state := NewState("r1", time.Now())
	state.MoveTo(1, 1)
	state.RecordAnswer(1, surveyTypes.AnswerValue{Text: "hello"})
	state.MoveTo(2, 2)

	if state.VisitedAccountedFor() {
		t.Error("current question has no answer yet")
	}

	state.RecordAnswer(2, surveyTypes.AnswerValue{Skipped: true})
	if !state.VisitedAccountedFor() {
		t.Error("all visited positions are answered or skipped")
	}
	if !state.Skipped[2] || state.Answered[2] {
		t.Errorf("unexpected bookkeeping: answered=%v skipped=%v", state.Answered, state.Skipped)
	}

	// back to position 2 is not possible past position 1
	prev := state.StepBack()
	if prev != 1 {
		t.Errorf("unexpected previous position: %d", prev)
	}
	if cached, ok := state.AnswerCache[1]; !ok || cached.Text != "hello" {
		t.Errorf("answer cache lost the earlier answer: %+v", state.AnswerCache)
	}

	// re-answering after back replaces the skip marker path
	state.RecordAnswer(1, surveyTypes.AnswerValue{Text: "changed"})
	if state.AnswerCache[1].Text != "changed" {
		t.Errorf("unexpected cache value: %+v", state.AnswerCache[1])
	}
}
