package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereKeyword 对多列做 OR 模糊匹配，关键字为空时原样返回
func whereKeyword(db *gorm.DB, keyword string, columns ...string) *gorm.DB {
	condition, args := keywordCondition(dialectOf(db), keyword, columns)
	if condition == "" {
		return db
	}
	return db.Where(condition, args...)
}

func dialectOf(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	return strings.ToLower(db.Dialector.Name())
}

// keywordCondition postgres 使用 ILIKE，其余方言 LIKE 本身对 ASCII 不区分大小写
func keywordCondition(dialect, keyword string, columns []string) (string, []interface{}) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", nil
	}
	operator := "LIKE"
	if dialect == "postgres" {
		operator = "ILIKE"
	}
	pattern := "%" + likeEscaper.Replace(keyword) + "%"

	var (
		parts []string
		args  []interface{}
	)
	for _, column := range columns {
		if column = strings.TrimSpace(column); column == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s %s ? ESCAPE '\'`, column, operator))
		args = append(args, pattern)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
