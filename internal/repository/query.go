package repository

import (
	"errors"

	"gorm.io/gorm"
)

// findOne 取第一条记录，未找到返回 nil, nil
func findOne[T any](query *gorm.DB, conds ...interface{}) (*T, error) {
	var row T
	err := query.First(&row, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// listPage 先统计总数再取当前页；order 为空时按主键倒序，scopes 只作用于取数
func listPage[T any](query *gorm.DB, page, pageSize int, order string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if order == "" {
		order = "id DESC"
	}
	query = applyPagination(query, page, pageSize)
	for _, scope := range scopes {
		query = scope(query)
	}
	rows := make([]T, 0)
	if err := query.Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// preload 供 listPage 使用的预加载
func preload(name string, args ...interface{}) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(name, args...)
	}
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// rowsAffected 条件更新的结果，调用方据此判断条件是否命中
func rowsAffected(result *gorm.DB) (int64, error) {
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// applyPagination pageSize 非正数时不分页
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// store 各仓库共用的连接，事务内通过 WithTx 换成 tx
type store struct {
	db *gorm.DB
}

// Transaction fn 为空时不开启事务
func (s store) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return s.db.Transaction(fn)
}
