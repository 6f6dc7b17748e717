package recurrence

import (
	"time"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// Fire 模板触发一次实例后的调度推进（纯内存变更，持久化由调用方负责）
// 变更: last_occurrence_at = 本次计划时间，occurrences_created +1，
// 重新计算 next_occurrence_at（序列耗尽时置空）
// 返回本次计划触发的时间点，用于写入实例与历史记录
func Fire(tpl *domain.TaskTemplate, now time.Time) time.Time {
	scheduledFor := now
	if tpl.NextOccurrenceAt != nil {
		scheduledFor = *tpl.NextOccurrenceAt
	}
	tpl.LastOccurrenceAt = &scheduledFor
	tpl.OccurrencesCreated++
	tpl.NextOccurrenceAt = NextDue(tpl.Rule, now, &scheduledFor, tpl.OccurrencesCreated)
	return scheduledFor
}

// Skip 跳过下一次触发：与 Fire 完全相同地推进 next_occurrence_at，
// 但不生成实例、不增加 occurrences_created、不更新 last_occurrence_at
// 连续跳过两次会精确推进两个周期
func Skip(tpl *domain.TaskTemplate, now time.Time) time.Time {
	scheduledFor := now
	if tpl.NextOccurrenceAt != nil {
		scheduledFor = *tpl.NextOccurrenceAt
	}
	tpl.NextOccurrenceAt = NextDue(tpl.Rule, now, &scheduledFor, tpl.OccurrencesCreated)
	return scheduledFor
}

// AdvanceVerification 自动化测试执行一次之后的调度推进
// frequency 字符串经 FromFrequency 转换（无法识别回落为每周），
// 终止条件沿用测试上的 end_at / max_runs
func AdvanceVerification(v *domain.Verification, now time.Time) {
	rule := FromFrequency(v.Frequency)
	rule.EndAt = v.EndAt
	rule.MaxOccurrences = v.MaxRuns

	v.RunsCompleted++
	v.NextDueAt = NextDue(rule, now, &now, v.RunsCompleted)
}
