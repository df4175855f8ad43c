package utils

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/mozillazg/go-pinyin"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣", "悦",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateEmailLocalPartFromChineseName 把中文姓名转成拼音再拼上随机数字，
// 避免重名工程师的邮箱冲突
func GenerateEmailLocalPartFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	localPart := strings.Join(pinyinArray, "")

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		localPart += string(digits[rand.Intn(len(digits))])
	}

	return localPart
}

// GenerateRandomEngineer 随机生成一名工程师的容量配置
func GenerateRandomEngineer(companyID int64, emailDomainName string) *domain.Engineer {
	fullName := GenerateRandomChineseName()

	// 上班时间在 7:00~9:30 之间取半小时粒度，每天工作 8~10 小时
	workStart := 7.0 + float64(rand.Intn(6))*0.5
	workEnd := workStart + 8.0 + float64(rand.Intn(5))*0.5

	engineer := &domain.Engineer{
		CompanyID:           companyID,
		FullName:            fullName,
		Email:               GenerateEmailLocalPartFromChineseName(fullName) + "@" + emailDomainName,
		WorkStartHour:       workStart,
		WorkEndHour:         workEnd,
		BreakMinutes:        int32(30 + rand.Intn(4)*15),
		TravelBufferMinutes: int32(rand.Intn(4) * 15),
	}

	// 一部分工程师不设单量上限
	if rand.Intn(4) != 0 {
		maxJobs := int32(rand.Intn(6) + 3)
		engineer.MaxJobsPerDay = &maxJobs
	}

	return engineer
}

// 用 Fisher-Yates 洗牌算法来生成随机的工作日子集
func generateRandomWeekdays() []int {
	days := []int{1, 2, 3, 4, 5}

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n := rand.Intn(3) + 1
	picked := days[:n]

	return picked
}

// GenerateRandomRecurringRule 为指定工程师随机生成一条周维护类的周期规则
func GenerateRandomRecurringRule(engineer *domain.Engineer) *domain.RecurringSchedule {
	weekdays := generateRandomWeekdays()
	parts := make([]string, len(weekdays))
	for i, d := range weekdays {
		parts[i] = strconv.Itoa(d)
	}

	startHour := 9 + rand.Intn(6)

	return &domain.RecurringSchedule{
		CompanyID:       engineer.CompanyID,
		JobID:           fmt.Sprintf("MAINT-%04d", rand.Intn(10000)),
		EngineerID:      engineer.ID,
		RawPattern:      "weekly:" + strings.Join(parts, ","),
		StartTime:       fmt.Sprintf("%02d:00", startHour),
		DurationMinutes: int32((rand.Intn(4) + 1) * 30),
		ValidFrom:       time.Now().Truncate(24 * time.Hour),
		Notes:           "例行维护巡检",
	}
}
