package scheduler

import "time"

// Overlaps 判断两个左闭右开区间是否相交，首尾相接（aEnd == bStart）不算重叠
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapsWithBuffer 先把两个区间的边界各向外扩张 buffer 再做普通的重叠判断，
// 用于要求同一工程师的相邻两单之间留出最小的路途间隔，而不只是互不重叠
func OverlapsWithBuffer(aStart, aEnd, bStart, bEnd time.Time, buffer time.Duration) bool {
	return Overlaps(
		aStart.Add(-buffer), aEnd.Add(buffer),
		bStart.Add(-buffer), bEnd.Add(buffer),
	)
}
