package scheduler

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 8, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"部分重叠", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"完全包含", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"首尾相接不算重叠", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"完全分开", at(10, 0), at(11, 0), at(13, 0), at(14, 0), false},
		{"完全相同", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps() = %v, 期望 %v", got, tt.want)
			}
			// 对称性：交换两个区间结果必须一致
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("交换区间后 Overlaps() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestOverlapsWithBuffer(t *testing.T) {
	buffer := 30 * time.Minute

	// 裸区间不重叠，但间隔只有 15 分钟，加上路途间隔后重叠
	if Overlaps(at(10, 0), at(11, 0), at(11, 15), at(12, 0)) {
		t.Fatal("裸区间不应重叠")
	}
	if !OverlapsWithBuffer(at(10, 0), at(11, 0), at(11, 15), at(12, 0), buffer) {
		t.Error("加上路途间隔后应判定为重叠")
	}

	// 间隔足够大时加上路途间隔也不重叠
	if OverlapsWithBuffer(at(10, 0), at(11, 0), at(13, 0), at(14, 0), buffer) {
		t.Error("间隔足够时不应判定为重叠")
	}
}

// 任何裸区间重叠在 buffer > 0 时也必须是带间隔重叠，反过来不成立
func TestBufferWidensDetection(t *testing.T) {
	cases := [][4]time.Time{
		{at(10, 0), at(11, 0), at(10, 30), at(11, 30)},
		{at(9, 0), at(12, 0), at(10, 0), at(11, 0)},
		{at(10, 0), at(11, 0), at(10, 59), at(12, 0)},
	}

	for _, c := range cases {
		if !Overlaps(c[0], c[1], c[2], c[3]) {
			t.Fatalf("用例 %v 裸区间应重叠", c)
		}
		for _, buffer := range []time.Duration{time.Minute, 15 * time.Minute, time.Hour} {
			if !OverlapsWithBuffer(c[0], c[1], c[2], c[3], buffer) {
				t.Errorf("用例 %v 在 buffer=%v 时应仍然重叠", c, buffer)
			}
		}
	}
}
