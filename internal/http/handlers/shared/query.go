package shared

import (
	"strconv"
	"strings"

	"github.com/candy-store/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePagination 页码从 1 开始，每页最多 100 条
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ReadPagination 读取 page / page_size
func ReadPagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(QueryText(c, "page"))
	pageSize, _ := strconv.Atoi(QueryText(c, "page_size"))
	return NormalizePagination(page, pageSize)
}

// QueryText 去除首尾空白的查询参数
func QueryText(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}

// QueryUint 非法或缺失时为 0，即不过滤
func QueryUint(c *gin.Context, key string) uint {
	id, err := strconv.ParseUint(QueryText(c, key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// QueryBool 非法或缺失时为 nil
func QueryBool(c *gin.Context, key string) *bool {
	value, err := strconv.ParseBool(QueryText(c, key))
	if err != nil {
		return nil
	}
	return &value
}

// ProductFilterFromQuery 商品目录与后台库存列表共用的筛选参数
func ProductFilterFromQuery(c *gin.Context) repository.ProductListFilter {
	page, pageSize := ReadPagination(c)
	return repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: QueryText(c, "category"),
		Search:   QueryText(c, "search"),
		OrderBy:  QueryText(c, "sort"),
		InStock:  QueryBool(c, "in_stock"),
	}
}
