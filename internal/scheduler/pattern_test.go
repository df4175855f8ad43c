package scheduler

import (
	"testing"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.Pattern
		wantErr bool
	}{
		{
			name: "每周多天",
			raw:  "weekly:1,3,5",
			want: domain.Pattern{Kind: domain.PatternWeekly, Weekdays: []int32{1, 3, 5}},
		},
		{
			name: "每周单天带空格",
			raw:  "weekly: 0",
			want: domain.Pattern{Kind: domain.PatternWeekly, Weekdays: []int32{0}},
		},
		{
			name: "每月固定日",
			raw:  "monthly:15",
			want: domain.Pattern{Kind: domain.PatternMonthly, MonthDay: 15},
		},
		{name: "缺少冒号", raw: "weekly", wantErr: true},
		{name: "空的天数", raw: "weekly:", wantErr: true},
		{name: "星期超出范围", raw: "weekly:1,7", wantErr: true},
		{name: "星期为负数", raw: "weekly:-1", wantErr: true},
		{name: "星期不是数字", raw: "weekly:mon", wantErr: true},
		{name: "月日为零", raw: "monthly:0", wantErr: true},
		{name: "月日超出范围", raw: "monthly:32", wantErr: true},
		{name: "未知类型", raw: "daily:1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePattern(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePattern(%q) 应返回错误", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePattern(%q) 返回错误: %v", tt.raw, err)
			}
			if got.Kind != tt.want.Kind || got.MonthDay != tt.want.MonthDay {
				t.Errorf("ParsePattern(%q) = %+v, 期望 %+v", tt.raw, got, tt.want)
			}
			if len(got.Weekdays) != len(tt.want.Weekdays) {
				t.Fatalf("ParsePattern(%q) 的星期 = %v, 期望 %v", tt.raw, got.Weekdays, tt.want.Weekdays)
			}
			for i := range got.Weekdays {
				if got.Weekdays[i] != tt.want.Weekdays[i] {
					t.Errorf("ParsePattern(%q) 的星期 = %v, 期望 %v", tt.raw, got.Weekdays, tt.want.Weekdays)
				}
			}
		})
	}
}

func TestMatchesDate(t *testing.T) {
	weekly := domain.Pattern{Kind: domain.PatternWeekly, Weekdays: []int32{1, 3, 5}}
	monthly := domain.Pattern{Kind: domain.PatternMonthly, MonthDay: 15}

	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	fifteenth := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	if !MatchesDate(weekly, monday) {
		t.Error("周一应命中 weekly:1,3,5")
	}
	if MatchesDate(weekly, tuesday) {
		t.Error("周二不应命中 weekly:1,3,5")
	}
	if !MatchesDate(monthly, fifteenth) {
		t.Error("15 号应命中 monthly:15")
	}
	if MatchesDate(monthly, monday) {
		t.Error("8 号不应命中 monthly:15")
	}
}

func TestParseStartTime(t *testing.T) {
	hour, minute, err := ParseStartTime("09:30")
	if err != nil {
		t.Fatalf("ParseStartTime 返回错误: %v", err)
	}
	if hour != 9 || minute != 30 {
		t.Errorf("ParseStartTime = %d:%d, 期望 9:30", hour, minute)
	}

	if _, _, err := ParseStartTime("25:00"); err == nil {
		t.Error("非法时间应返回错误")
	}
	if _, _, err := ParseStartTime("0930"); err == nil {
		t.Error("缺少冒号的时间应返回错误")
	}
}
