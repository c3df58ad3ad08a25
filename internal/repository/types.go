package repository

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page     int
	PageSize int
	Category string
	Search   string
	InStock  *bool
	OrderBy  string // name / price / newest
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	OrderNo  string
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Status   string
}

// NotificationLogListFilter 查询通知记录的过滤条件
type NotificationLogListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	ProductID uint
	Kind      string
	Status    string
}
