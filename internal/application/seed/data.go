package seed

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agromarket-api/internal/domain/entity"
)

type seedUser struct {
	Phone    string
	Nickname string
}

var seedUsers = []seedUser{
	{"13800138001", "运营负责人"},
	{"13800138002", "张三果农"},
	{"13800138003", "李四果农"},
	{"13800138004", "普通用户1"},
	{"13800138005", "普通用户2"},
}

// Índices en seedUsers.
const (
	idxOperator = 0
	idxFarmer1  = 1
	idxFarmer2  = 2
	idxCustom1  = 3
	idxCustom2  = 4
)

var seedRoles = []struct {
	User     int
	RoleType string
}{
	{idxOperator, entity.RoleOperator},
	{idxFarmer1, entity.RoleFarmer},
	{idxFarmer2, entity.RoleFarmer},
}

var seedFarmers = []struct {
	User int
	Name string
}{
	{idxFarmer1, "张三"},
	{idxFarmer2, "李四"},
}

var seedCategories = []string{"苹果", "香蕉", "橙子", "葡萄", "草莓"}

var seedOrigins = []entity.Origin{
	{Name: "山东烟台", CategoryName: "国内"},
	{Name: "新疆阿克苏", CategoryName: "国内"},
	{Name: "海南", CategoryName: "国内"},
	{Name: "智利", CategoryName: "进口"},
	{Name: "新西兰", CategoryName: "进口"},
}

// batchCount lotes que usan los pasos siguientes; batchQueryLimit lotes leídos como existentes.
const (
	batchCount      = 5
	batchQueryLimit = 10
)

var seedMedia = []struct {
	Category string
	Label    string
}{
	{entity.MediaPicking, "采摘视频"},
	{entity.MediaPacking, "打包视频"},
	{entity.MediaLoading, "装车视频"},
	{entity.MediaDeparture, "发车视频"},
}

type seedProduct struct {
	Name  string
	Price decimal.Decimal
	Stock int
	Unit  string
	Sales int
}

var seedProducts = []seedProduct{
	{"烟台红富士苹果", decimal.RequireFromString("25.8"), 100, "斤", 50},
	{"海南香蕉", decimal.RequireFromString("12.5"), 80, "斤", 30},
	{"阿克苏冰糖心橙", decimal.RequireFromString("18.9"), 60, "斤", 20},
	{"智利进口葡萄", decimal.RequireFromString("35.0"), 50, "箱", 15},
	{"新西兰草莓", decimal.RequireFromString("42.8"), 40, "盒", 10},
}

var seedCarts = []struct {
	User     int
	Product  int
	Quantity int
	Selected bool
}{
	{idxCustom1, 0, 3, true},
	{idxCustom1, 1, 2, true},
	{idxCustom2, 2, 1, false},
}

func batchImageURL(n int) string {
	return "https://via.placeholder.com/400x300?text=批次" + strconv.Itoa(n)
}

func mediaURL(label string) string {
	return "https://via.placeholder.com/800x600?text=" + label
}

func productImageURL(category string) string {
	return "https://via.placeholder.com/400x400?text=" + category
}
