package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// fakeTemplates 内存模板侧实现，failID 指定的模板触发失败
type fakeTemplates struct {
	due    []domain.TaskTemplate
	failID uuid.UUID
	fired  []uuid.UUID
}

func (f *fakeTemplates) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.TaskTemplate, error) {
	if limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeTemplates) Fire(ctx context.Context, tpl domain.TaskTemplate, now time.Time) error {
	if tpl.ID == f.failID {
		return errors.New("insert failed")
	}
	f.fired = append(f.fired, tpl.ID)
	return nil
}

// fakeVerifications 内存自动化测试侧实现，按 ID 返回预设结论
type fakeVerifications struct {
	due      []domain.Verification
	statuses map[uuid.UUID]string
	failID   uuid.UUID
	ran      []uuid.UUID
}

func (f *fakeVerifications) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Verification, error) {
	return f.due, nil
}

func (f *fakeVerifications) Run(ctx context.Context, v domain.Verification, now time.Time) (string, error) {
	if v.ID == f.failID {
		return "", errors.New("tx failed")
	}
	f.ran = append(f.ran, v.ID)
	return f.statuses[v.ID], nil
}

func newTestVerifier(t *testing.T, ft *fakeTemplates, fv *fakeVerifications) *Verifier {
	t.Helper()
	v, err := NewVerifier(context.Background(), ft, fv, nil, nil, Config{
		Interval:    time.Minute,
		BatchSize:   100,
		Concurrency: 1,
		Timezone:    "UTC",
	})
	require.NoError(t, err)
	t.Cleanup(v.Stop)
	return v
}

func TestTickOnceFiresDueWork(t *testing.T) {
	t1, t2 := uuid.New(), uuid.New()
	v1, v2, v3 := uuid.New(), uuid.New(), uuid.New()

	ft := &fakeTemplates{due: []domain.TaskTemplate{{ID: t1}, {ID: t2}}}
	fv := &fakeVerifications{
		due: []domain.Verification{{ID: v1}, {ID: v2}, {ID: v3}},
		statuses: map[uuid.UUID]string{
			v1: domain.StatusPassed,
			v2: domain.StatusFailed,
			v3: domain.StatusSkipped,
		},
	}

	ver := newTestVerifier(t, ft, fv)
	require.NoError(t, ver.tickOnce(context.Background()))

	assert.ElementsMatch(t, []uuid.UUID{t1, t2}, ft.fired)
	assert.ElementsMatch(t, []uuid.UUID{v1, v2, v3}, fv.ran)
}

func TestTickOnceFailureDoesNotStopBatch(t *testing.T) {
	bad, good := uuid.New(), uuid.New()
	badV, goodV := uuid.New(), uuid.New()

	ft := &fakeTemplates{
		due:    []domain.TaskTemplate{{ID: bad}, {ID: good}},
		failID: bad,
	}
	fv := &fakeVerifications{
		due:      []domain.Verification{{ID: badV}, {ID: goodV}},
		statuses: map[uuid.UUID]string{goodV: domain.StatusPassed},
		failID:   badV,
	}

	ver := newTestVerifier(t, ft, fv)
	// 单项失败只记录日志，本轮整体不报错
	require.NoError(t, ver.tickOnce(context.Background()))

	assert.Equal(t, []uuid.UUID{good}, ft.fired)
	assert.Equal(t, []uuid.UUID{goodV}, fv.ran)
}

func TestTickOnceEmptyBatch(t *testing.T) {
	ver := newTestVerifier(t, &fakeTemplates{}, &fakeVerifications{})
	require.NoError(t, ver.tickOnce(context.Background()))
}

func TestTickOnceRespectsBatchSize(t *testing.T) {
	due := make([]domain.TaskTemplate, 10)
	for i := range due {
		due[i] = domain.TaskTemplate{ID: uuid.New()}
	}
	ft := &fakeTemplates{due: due}
	fv := &fakeVerifications{}

	v, err := NewVerifier(context.Background(), ft, fv, nil, nil, Config{
		Interval:    time.Minute,
		BatchSize:   4,
		Concurrency: 1,
		Timezone:    "UTC",
	})
	require.NoError(t, err)
	t.Cleanup(v.Stop)

	require.NoError(t, v.tickOnce(context.Background()))
	assert.Len(t, ft.fired, 4)
}

func TestNewVerifierRejectsBadTimezone(t *testing.T) {
	_, err := NewVerifier(context.Background(), &fakeTemplates{}, &fakeVerifications{}, nil, nil, Config{
		Interval: time.Minute,
		Timezone: "Mars/Olympus",
	})
	assert.Error(t, err)
}
