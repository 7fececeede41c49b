package focus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kenaz-focus/internal/apperr"
	"github.com/starford/kenaz-focus/internal/digest"
	"github.com/starford/kenaz-focus/internal/models"
)

type sourceFunc func(ctx context.Context) ([]models.NoteWithNotebook, error)

func (f sourceFunc) Snapshot(ctx context.Context) ([]models.NoteWithNotebook, error) { return f(ctx) }

func testBudget() digest.Budget {
	return digest.Budget{MaxNotes: 10, MaxTotalChars: 10000, MaxSnippetChars: 100, MaxParagraphCount: 3, MaxParagraphChars: 100}
}

func notesWith(content string) []models.NoteWithNotebook {
	return []models.NoteWithNotebook{{
		Note:          models.Note{ID: "a.md", Title: "A", Content: content, CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		NotebookTitle: "Inbox",
	}}
}

func TestRefresher_TriggerGenerates(t *testing.T) {
	f := newFixture(t)
	src := sourceFunc(func(context.Context) ([]models.NoteWithNotebook, error) { return notesWith("hello"), nil })
	r := NewRefresher(src, f.ctrl, testBudget(), nil)

	r.Trigger(context.Background())
	r.Wait()

	assert.EqualValues(t, 1, f.gen.calls.Load())
	assert.Equal(t, PhaseReady, f.ctrl.Snapshot().Phase)
}

func TestRefresher_LaterTriggerSupersedesPendingBatch(t *testing.T) {
	f := newFixture(t)
	var calls atomic.Int32
	firstEntered := make(chan struct{})
	src := sourceFunc(func(ctx context.Context) ([]models.NoteWithNotebook, error) {
		if calls.Add(1) == 1 {
			close(firstEntered)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return notesWith("second"), nil
	})
	r := NewRefresher(src, f.ctrl, testBudget(), nil)

	r.Trigger(context.Background())
	<-firstEntered
	r.Trigger(context.Background())
	r.Wait()

	assert.EqualValues(t, 1, f.gen.calls.Load())
	want := digest.BuildRecentDigests(notesWith("second"), testBudget())
	assert.False(t, f.ctrl.NeedsRecentFocus(context.Background(), want))
}

func TestRefresher_SnapshotErrorSkipsGeneration(t *testing.T) {
	f := newFixture(t)
	src := sourceFunc(func(context.Context) ([]models.NoteWithNotebook, error) { return nil, errors.New("disk gone") })
	r := NewRefresher(src, f.ctrl, testBudget(), nil)

	r.Trigger(context.Background())
	r.Wait()
	assert.EqualValues(t, 0, f.gen.calls.Load())

	_, err := r.Digests(context.Background())
	assert.ErrorContains(t, err, "disk gone")
}

func TestRefresher_RegenerateRejectsWhileLoading(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.release = make(chan struct{})
	f.gen.started = make(chan struct{}, 1)
	src := sourceFunc(func(context.Context) ([]models.NoteWithNotebook, error) { return notesWith("x"), nil })
	r := NewRefresher(src, f.ctrl, testBudget(), nil)

	r.Trigger(ctx)
	<-f.gen.started

	require.ErrorIs(t, r.Regenerate(ctx), apperr.ErrGenerationInFlight)

	close(f.gen.release)
	r.Wait()
	f.gen.release = nil
	f.gen.started = nil
	require.NoError(t, r.Regenerate(ctx))
	assert.EqualValues(t, 2, f.gen.calls.Load())
}
