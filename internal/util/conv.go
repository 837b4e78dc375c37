package util

import (
	"strconv"

	"github.com/google/uuid"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// GenerateUUIDString 生成随机UUID字符串
func GenerateUUIDString() string {
	return uuid.New().String()
}
