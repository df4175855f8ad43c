package domain

// Role 是外部授权服务解析出的有效角色，这个子系统只做能力断言
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOffice   Role = "office"
	RoleEngineer Role = "engineer"
)
