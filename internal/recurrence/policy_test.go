package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func intPtr(v int) *int { return &v }

func TestValidate(t *testing.T) {
	valid := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1}
	require.NoError(t, Validate(valid))

	t.Run("interval zero rejected", func(t *testing.T) {
		r := valid
		r.Interval = 0
		assert.Error(t, Validate(r))
	})
	t.Run("negative interval rejected", func(t *testing.T) {
		r := valid
		r.Interval = -3
		assert.Error(t, Validate(r))
	})
	t.Run("unknown pattern rejected", func(t *testing.T) {
		r := valid
		r.Pattern = "hourly"
		assert.Error(t, Validate(r))
	})
	t.Run("anchor ranges", func(t *testing.T) {
		r := valid
		r.AnchorDayOfWeek = intPtr(7)
		assert.Error(t, Validate(r))

		r = valid
		r.AnchorDayOfMonth = intPtr(0)
		assert.Error(t, Validate(r))

		r = valid
		r.AnchorDayOfMonth = intPtr(32)
		assert.Error(t, Validate(r))

		r = domain.RecurrenceRule{Pattern: domain.PatternYearly, Interval: 1, AnchorMonth: intPtr(13)}
		assert.Error(t, Validate(r))
	})
	t.Run("cron expr", func(t *testing.T) {
		assert.NoError(t, Validate(domain.RecurrenceRule{CronExpr: "0 9 * * 1"}))
		assert.NoError(t, Validate(domain.RecurrenceRule{CronExpr: "@daily"}))
		assert.Error(t, Validate(domain.RecurrenceRule{CronExpr: "not a cron"}))
	})
}

func TestNextDueBiweekly(t *testing.T) {
	// weekly interval=2 从 2024-01-01 推进到 2024-01-15
	rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 2}
	last := mustTime(t, "2024-01-01T00:00:00Z")
	now := mustTime(t, "2024-01-02T00:00:00Z")

	next := NextDue(rule, now, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2024-01-15T00:00:00Z"), *next)

	// biweekly interval=1 等价于 weekly interval=2
	rule = domain.RecurrenceRule{Pattern: domain.PatternBiweekly, Interval: 1}
	next = NextDue(rule, now, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2024-01-15T00:00:00Z"), *next)
}

func TestNextDueDaily(t *testing.T) {
	rule := domain.RecurrenceRule{Pattern: domain.PatternDaily, Interval: 3}
	last := mustTime(t, "2024-03-10T08:30:00Z")
	next := NextDue(rule, last, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2024-03-13T08:30:00Z"), *next)
}

func TestNextDueMonthlyClamping(t *testing.T) {
	t.Run("day 31 into leap february", func(t *testing.T) {
		rule := domain.RecurrenceRule{Pattern: domain.PatternMonthly, Interval: 1, AnchorDayOfMonth: intPtr(31)}
		last := mustTime(t, "2024-01-31T00:00:00Z")
		next := NextDue(rule, last, &last, 1)
		require.NotNil(t, next)
		assert.Equal(t, mustTime(t, "2024-02-29T00:00:00Z"), *next)
	})
	t.Run("day 31 into non-leap february", func(t *testing.T) {
		rule := domain.RecurrenceRule{Pattern: domain.PatternMonthly, Interval: 1, AnchorDayOfMonth: intPtr(31)}
		last := mustTime(t, "2023-01-31T00:00:00Z")
		next := NextDue(rule, last, &last, 1)
		require.NotNil(t, next)
		assert.Equal(t, mustTime(t, "2023-02-28T00:00:00Z"), *next)
	})
	t.Run("no overflow into march", func(t *testing.T) {
		// time.AddDate 会把 1月31日+1月 溢出成 3月2日，这里必须收敛到月末
		rule := domain.RecurrenceRule{Pattern: domain.PatternMonthly, Interval: 1}
		last := mustTime(t, "2024-01-31T00:00:00Z")
		next := NextDue(rule, last, &last, 1)
		require.NotNil(t, next)
		assert.Equal(t, time.February, next.Month())
	})
	t.Run("anchor restores day after short month", func(t *testing.T) {
		rule := domain.RecurrenceRule{Pattern: domain.PatternMonthly, Interval: 1, AnchorDayOfMonth: intPtr(31)}
		last := mustTime(t, "2024-02-29T00:00:00Z")
		next := NextDue(rule, last, &last, 2)
		require.NotNil(t, next)
		assert.Equal(t, mustTime(t, "2024-03-31T00:00:00Z"), *next)
	})
}

func TestNextDueQuarterlyYearly(t *testing.T) {
	rule := domain.RecurrenceRule{Pattern: domain.PatternQuarterly, Interval: 1}
	last := mustTime(t, "2024-01-15T00:00:00Z")
	next := NextDue(rule, last, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2024-04-15T00:00:00Z"), *next)

	rule = domain.RecurrenceRule{Pattern: domain.PatternYearly, Interval: 1}
	next = NextDue(rule, last, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2025-01-15T00:00:00Z"), *next)
}

func TestNextDueYearlyAnchorMonth(t *testing.T) {
	rule := domain.RecurrenceRule{Pattern: domain.PatternYearly, Interval: 1, AnchorMonth: intPtr(6)}
	last := mustTime(t, "2024-03-10T00:00:00Z")
	next := NextDue(rule, last, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2025-06-10T00:00:00Z"), *next)
}

func TestNextDueCron(t *testing.T) {
	rule := domain.RecurrenceRule{CronExpr: "0 0 * * *"}
	last := mustTime(t, "2024-01-01T05:00:00Z")
	next := NextDue(rule, last, &last, 1)
	require.NotNil(t, next)
	assert.Equal(t, mustTime(t, "2024-01-02T00:00:00Z"), next.UTC())
}

func TestNextDueExhaustion(t *testing.T) {
	last := mustTime(t, "2024-01-01T00:00:00Z")

	t.Run("end_at passed", func(t *testing.T) {
		end := mustTime(t, "2024-02-01T00:00:00Z")
		rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1, EndAt: &end}
		now := mustTime(t, "2024-03-01T00:00:00Z")
		assert.Nil(t, NextDue(rule, now, &last, 1))
	})
	t.Run("computed next beyond end_at", func(t *testing.T) {
		end := mustTime(t, "2024-01-05T00:00:00Z")
		rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1, EndAt: &end}
		now := mustTime(t, "2024-01-02T00:00:00Z")
		assert.Nil(t, NextDue(rule, now, &last, 1))
	})
	t.Run("max occurrences reached", func(t *testing.T) {
		rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1, MaxOccurrences: intPtr(3)}
		now := mustTime(t, "2024-01-02T00:00:00Z")
		assert.Nil(t, NextDue(rule, now, &last, 3))
		assert.NotNil(t, NextDue(rule, now, &last, 2))
	})
	t.Run("no termination recurs indefinitely", func(t *testing.T) {
		rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1}
		require.True(t, rule.Indefinite())
		now := mustTime(t, "2030-01-01T00:00:00Z")
		assert.NotNil(t, NextDue(rule, now, &last, 100000))
	})
}

func TestNextDueMonotonic(t *testing.T) {
	// last 递增时 next 单调不减
	rules := []domain.RecurrenceRule{
		{Pattern: domain.PatternDaily, Interval: 1},
		{Pattern: domain.PatternWeekly, Interval: 2},
		{Pattern: domain.PatternMonthly, Interval: 1, AnchorDayOfMonth: intPtr(31)},
		{Pattern: domain.PatternQuarterly, Interval: 1},
		{Pattern: domain.PatternYearly, Interval: 1},
	}
	now := mustTime(t, "2024-01-01T00:00:00Z")
	for _, rule := range rules {
		var prev *time.Time
		for d := 0; d < 600; d += 7 {
			last := now.AddDate(0, 0, d)
			next := NextDue(rule, now, &last, 0)
			require.NotNil(t, next)
			assert.True(t, next.After(last), "next must be after last for %s", rule.Pattern)
			if prev != nil {
				assert.False(t, next.Before(*prev), "next must not decrease for %s", rule.Pattern)
			}
			prev = next
		}
	}
}

func TestNextDueWithoutLastUsesNow(t *testing.T) {
	rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1}
	now := mustTime(t, "2024-05-01T12:00:00Z")
	next := NextDue(rule, now, nil, 0)
	require.NotNil(t, next)
	assert.Equal(t, now.AddDate(0, 0, 7), *next)
}

func TestWeeklyAnchorBehavior(t *testing.T) {
	anchor := intPtr(3) // 周三
	rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1, AnchorDayOfWeek: anchor}
	last := mustTime(t, "2024-01-01T00:00:00Z") // 周一

	t.Run("advancement ignores anchor by default", func(t *testing.T) {
		next := NextDue(rule, last, &last, 1)
		require.NotNil(t, next)
		assert.Equal(t, mustTime(t, "2024-01-08T00:00:00Z"), *next)
		assert.Equal(t, time.Monday, next.Weekday())
	})

	t.Run("alignment flag rolls to anchor weekday", func(t *testing.T) {
		AlignWeeklyToAnchor = true
		defer func() { AlignWeeklyToAnchor = false }()
		next := NextDue(rule, last, &last, 1)
		require.NotNil(t, next)
		assert.Equal(t, time.Wednesday, next.Weekday())
		assert.Equal(t, mustTime(t, "2024-01-10T00:00:00Z"), *next)
	})

	t.Run("first due aligns to anchor weekday", func(t *testing.T) {
		next := FirstDue(rule, last)
		require.NotNil(t, next)
		assert.Equal(t, time.Wednesday, next.Weekday())
	})
}

func TestIsDue(t *testing.T) {
	now := mustTime(t, "2024-06-01T00:00:00Z")
	past := mustTime(t, "2024-05-01T00:00:00Z")
	future := mustTime(t, "2024-07-01T00:00:00Z")
	rule := domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1}

	tpl := domain.TaskTemplate{Active: true, Rule: rule, NextOccurrenceAt: &past}
	assert.True(t, IsDue(tpl, now))

	tpl.NextOccurrenceAt = &future
	assert.False(t, IsDue(tpl, now))

	tpl.NextOccurrenceAt = &past
	tpl.Active = false
	assert.False(t, IsDue(tpl, now), "paused template is never due")

	tpl.Active = true
	tpl.NextOccurrenceAt = nil
	assert.False(t, IsDue(tpl, now))

	// 次数耗尽
	tpl.NextOccurrenceAt = &past
	tpl.Rule.MaxOccurrences = intPtr(5)
	tpl.OccurrencesCreated = 5
	assert.False(t, IsDue(tpl, now))
}

func TestFromFrequency(t *testing.T) {
	cases := map[string]string{
		"daily":     domain.PatternDaily,
		"Weekly":    domain.PatternWeekly,
		"bi-weekly": domain.PatternBiweekly,
		"BIWEEKLY":  domain.PatternBiweekly,
		"monthly":   domain.PatternMonthly,
		"Quarterly": domain.PatternQuarterly,
		"annually":  domain.PatternYearly,
		"yearly":    domain.PatternYearly,
		"":          domain.PatternWeekly,
		"whenever":  domain.PatternWeekly,
	}
	for in, want := range cases {
		rule := FromFrequency(in)
		assert.Equal(t, want, rule.Pattern, "frequency %q", in)
		assert.Equal(t, 1, rule.Interval)
	}
}
