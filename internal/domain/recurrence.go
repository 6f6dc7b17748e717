package domain

import "time"

// 重复模式
const (
	PatternDaily     = "daily"
	PatternWeekly    = "weekly"
	PatternBiweekly  = "biweekly"
	PatternMonthly   = "monthly"
	PatternQuarterly = "quarterly"
	PatternYearly    = "yearly"
)

type RecurrenceRule struct {
	Pattern          string     `json:"pattern"`                       // 重复模式，daily/weekly/biweekly/monthly/quarterly/yearly
	Interval         int        `json:"interval"`                      // 周期倍数，必须 >= 1
	AnchorDayOfWeek  *int       `json:"anchor_day_of_week,omitempty"`  // 锚定星期几（0-6，周日为 0）
	AnchorDayOfMonth *int       `json:"anchor_day_of_month,omitempty"` // 锚定每月第几天（1-31）
	AnchorMonth      *int       `json:"anchor_month_of_year,omitempty"` // 锚定月份（1-12）
	CronExpr         string     `json:"cron_expr,omitempty"`           // 可选 cron 表达式，设置后优先于 pattern
	EndAt            *time.Time `json:"end_at,omitempty"`              // 硬截止时间
	MaxOccurrences   *int       `json:"max_occurrences,omitempty"`     // 最大触发次数上限
}

// Indefinite 是否无限重复（没有任何终止条件）
func (r RecurrenceRule) Indefinite() bool {
	return r.EndAt == nil && r.MaxOccurrences == nil
}
