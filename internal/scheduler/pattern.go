package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

// ParsePattern 解析形如 "weekly:1,3,5" 或 "monthly:15" 的周期规则，
// 在入口处解析一次之后以结构化形式传递，不再重复解析原始字符串
func ParsePattern(raw string) (domain.Pattern, error) {
	kind, value, found := strings.Cut(raw, ":")
	if !found || value == "" {
		return domain.Pattern{}, fmt.Errorf("周期规则 %q 的格式错误", raw)
	}

	switch domain.PatternKind(kind) {
	case domain.PatternWeekly:
		parts := strings.Split(value, ",")
		weekdays := make([]int32, 0, len(parts))
		seen := make(map[int32]bool, len(parts))
		for _, part := range parts {
			day, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return domain.Pattern{}, fmt.Errorf("周期规则 %q 中的星期 %q 不是数字", raw, part)
			}
			if day < 0 || day > 6 {
				return domain.Pattern{}, fmt.Errorf("周期规则 %q 中的星期 %d 超出 0-6 的范围", raw, day)
			}
			if seen[int32(day)] {
				continue
			}
			seen[int32(day)] = true
			weekdays = append(weekdays, int32(day))
		}
		if len(weekdays) == 0 {
			return domain.Pattern{}, fmt.Errorf("周期规则 %q 中没有任何星期", raw)
		}
		return domain.Pattern{Kind: domain.PatternWeekly, Weekdays: weekdays}, nil
	case domain.PatternMonthly:
		day, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return domain.Pattern{}, fmt.Errorf("周期规则 %q 中的日期 %q 不是数字", raw, value)
		}
		if day < 1 || day > 31 {
			return domain.Pattern{}, fmt.Errorf("周期规则 %q 中的日期 %d 超出 1-31 的范围", raw, day)
		}
		return domain.Pattern{Kind: domain.PatternMonthly, MonthDay: int32(day)}, nil
	default:
		return domain.Pattern{}, fmt.Errorf("不支持的周期规则类型 %q", kind)
	}
}

// MatchesDate 判断某个日历日期是否命中周期规则
func MatchesDate(p domain.Pattern, date time.Time) bool {
	switch p.Kind {
	case domain.PatternWeekly:
		weekday := int32(date.Weekday())
		for _, day := range p.Weekdays {
			if day == weekday {
				return true
			}
		}
		return false
	case domain.PatternMonthly:
		return int32(date.Day()) == p.MonthDay
	default:
		return false
	}
}

// ParseStartTime 解析规则里的本地开始时间 "HH:MM"
func ParseStartTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("开始时间 %q 的格式错误，应为 HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
