// Package recurrence 提供重复规则的纯计算逻辑
// 给定模式（daily/weekly/biweekly/monthly/quarterly/yearly）、周期倍数、
// 可选锚定（星期几/每月第几天/月份）以及终止条件（截止时间/最大次数），
// 计算下一次到期时间并判断序列是否已耗尽
// 定期任务模板与自动化控制测试共用同一套推进逻辑
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// AlignWeeklyToAnchor 控制 weekly/biweekly 推进时是否对齐锚定的星期几
// 历史行为是按上次触发时间整周推进、忽略 anchor_day_of_week，
// 此开关保留两种行为，默认保持历史行为
var AlignWeeklyToAnchor = false

// cronParser 标准五段 cron 解析器，支持 @daily 等描述符
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate 校验重复规则
// 参数:
//
//	r: 待校验的重复规则
//
// 返回:
//
//	error: 规则非法时返回错误，合法返回 nil
//
// 校验项:
//
//	interval 必须 >= 1；anchor_day_of_week 取值 0-6；anchor_day_of_month 取值 1-31；
//	anchor_month_of_year 取值 1-12；pattern 必须是已知模式；
//	cron_expr 设置时必须可解析（此时 pattern 可以为空）
func Validate(r domain.RecurrenceRule) error {
	if r.CronExpr != "" {
		if _, err := cronParser.Parse(r.CronExpr); err != nil {
			return fmt.Errorf("invalid cron_expr %q: %w", r.CronExpr, err)
		}
		return nil
	}
	switch r.Pattern {
	case domain.PatternDaily, domain.PatternWeekly, domain.PatternBiweekly,
		domain.PatternMonthly, domain.PatternQuarterly, domain.PatternYearly:
	default:
		return fmt.Errorf("unknown pattern %q", r.Pattern)
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", r.Interval)
	}
	if r.AnchorDayOfWeek != nil && (*r.AnchorDayOfWeek < 0 || *r.AnchorDayOfWeek > 6) {
		return fmt.Errorf("anchor_day_of_week out of range: %d", *r.AnchorDayOfWeek)
	}
	if r.AnchorDayOfMonth != nil && (*r.AnchorDayOfMonth < 1 || *r.AnchorDayOfMonth > 31) {
		return fmt.Errorf("anchor_day_of_month out of range: %d", *r.AnchorDayOfMonth)
	}
	if r.AnchorMonth != nil && (*r.AnchorMonth < 1 || *r.AnchorMonth > 12) {
		return fmt.Errorf("anchor_month_of_year out of range: %d", *r.AnchorMonth)
	}
	return nil
}

// NextDue 计算下一次到期时间
// 参数:
//
//	r: 重复规则
//	now: 当前时间，用于终止条件判断，last 缺省时也作为推进基准
//	last: 上次触发时间，可为 nil（首次触发）
//	created: 已触发次数，与 max_occurrences 比较
//
// 返回:
//
//	*time.Time: 下一次到期时间；序列已耗尽时返回 nil
//
// 说明:
//
//	weekly/biweekly 从上次触发时间整周推进（interval 周 / interval*2 周）；
//	monthly/quarterly/yearly 按日历月推进（interval*1/3/12 个月），
//	目标月份天数不足时向月末收敛（31 号遇二月 → 28/29 号）；
//	cron_expr 设置时直接使用 cron 的 Next 计算；
//	计算出的时间超过 end_at 同样视为耗尽
func NextDue(r domain.RecurrenceRule, now time.Time, last *time.Time, created int) *time.Time {
	if exhausted(r, now, created) {
		return nil
	}
	base := now
	if last != nil {
		base = *last
	}

	var next time.Time
	if r.CronExpr != "" {
		sched, err := cronParser.Parse(r.CronExpr)
		if err != nil {
			return nil
		}
		next = sched.Next(base)
	} else {
		switch r.Pattern {
		case domain.PatternDaily:
			next = base.AddDate(0, 0, r.Interval)
		case domain.PatternWeekly:
			next = base.AddDate(0, 0, 7*r.Interval)
		case domain.PatternBiweekly:
			next = base.AddDate(0, 0, 14*r.Interval)
		case domain.PatternMonthly:
			next = addMonthsClamped(base, r.Interval, r.AnchorDayOfMonth)
		case domain.PatternQuarterly:
			next = addMonthsClamped(base, 3*r.Interval, r.AnchorDayOfMonth)
		case domain.PatternYearly:
			next = addMonthsClamped(base, 12*r.Interval, r.AnchorDayOfMonth)
			if r.AnchorMonth != nil {
				next = moveToMonth(next, time.Month(*r.AnchorMonth), r.AnchorDayOfMonth)
			}
		default:
			return nil
		}
		if AlignWeeklyToAnchor && r.AnchorDayOfWeek != nil &&
			(r.Pattern == domain.PatternWeekly || r.Pattern == domain.PatternBiweekly) {
			next = rollToWeekday(next, time.Weekday(*r.AnchorDayOfWeek))
		}
	}

	if r.EndAt != nil && next.After(*r.EndAt) {
		return nil
	}
	return &next
}

// FirstDue 模板创建时计算首个到期时间
// 与后续推进不同：weekly/biweekly 在初始创建时会对齐锚定的星期几
func FirstDue(r domain.RecurrenceRule, now time.Time) *time.Time {
	next := NextDue(r, now, nil, 0)
	if next == nil {
		return nil
	}
	if r.AnchorDayOfWeek != nil &&
		(r.Pattern == domain.PatternWeekly || r.Pattern == domain.PatternBiweekly) {
		rolled := rollToWeekday(*next, time.Weekday(*r.AnchorDayOfWeek))
		if r.EndAt != nil && rolled.After(*r.EndAt) {
			return nil
		}
		return &rolled
	}
	return next
}

// exhausted 终止条件判断：截止时间已过或触发次数达到上限
func exhausted(r domain.RecurrenceRule, now time.Time, created int) bool {
	if r.EndAt != nil && now.After(*r.EndAt) {
		return true
	}
	if r.MaxOccurrences != nil && created >= *r.MaxOccurrences {
		return true
	}
	return false
}

// IsDue 判断模板当前是否到期
// 条件: 模板启用 且 next_occurrence_at 已设置 且 now >= next_occurrence_at 且序列未耗尽
func IsDue(tpl domain.TaskTemplate, now time.Time) bool {
	if !tpl.Active || tpl.NextOccurrenceAt == nil {
		return false
	}
	if now.Before(*tpl.NextOccurrenceAt) {
		return false
	}
	return !exhausted(tpl.Rule, now, tpl.OccurrencesCreated)
}

// FromFrequency 将宽松的频率字符串转换为重复规则
// 无法识别的输入回落为每周一次
func FromFrequency(freq string) domain.RecurrenceRule {
	switch strings.ToLower(strings.TrimSpace(freq)) {
	case "daily":
		return domain.RecurrenceRule{Pattern: domain.PatternDaily, Interval: 1}
	case "weekly":
		return domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1}
	case "biweekly", "bi-weekly", "fortnightly":
		return domain.RecurrenceRule{Pattern: domain.PatternBiweekly, Interval: 1}
	case "monthly":
		return domain.RecurrenceRule{Pattern: domain.PatternMonthly, Interval: 1}
	case "quarterly":
		return domain.RecurrenceRule{Pattern: domain.PatternQuarterly, Interval: 1}
	case "yearly", "annually", "annual":
		return domain.RecurrenceRule{Pattern: domain.PatternYearly, Interval: 1}
	default:
		return domain.RecurrenceRule{Pattern: domain.PatternWeekly, Interval: 1}
	}
}

// addMonthsClamped 按日历月推进并向月末收敛
// 不使用 time.AddDate，避免 1月31日 +1 月溢出到 3月
func addMonthsClamped(base time.Time, months int, anchorDay *int) time.Time {
	y, m, d := base.Date()
	total := int(m) - 1 + months
	y += total / 12
	m = time.Month(total%12 + 1)

	day := d
	if anchorDay != nil {
		day = *anchorDay
	}
	if max := daysInMonth(y, m); day > max {
		day = max
	}
	h, min, sec := base.Clock()
	return time.Date(y, m, day, h, min, sec, base.Nanosecond(), base.Location())
}

// moveToMonth 将时间移动到同年的指定月份，天数向月末收敛
func moveToMonth(t time.Time, month time.Month, anchorDay *int) time.Time {
	day := t.Day()
	if anchorDay != nil {
		day = *anchorDay
	}
	if max := daysInMonth(t.Year(), month); day > max {
		day = max
	}
	h, min, sec := t.Clock()
	return time.Date(t.Year(), month, day, h, min, sec, t.Nanosecond(), t.Location())
}

// rollToWeekday 向后滚动到指定星期几（已是该星期几则不动）
func rollToWeekday(t time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, diff)
}

// daysInMonth 指定年月的天数
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
