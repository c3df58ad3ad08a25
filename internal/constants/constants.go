package constants

// 订单状态常量
const (
	OrderStatusCreated   = "created"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知类型常量
const (
	NotificationKindLowStock    = "low_stock"
	NotificationKindRestock     = "restock"
	NotificationKindOrderStatus = "order_status"
)

// 通知来源常量
const (
	NotificationOriginWatchlist  = "watchlist"
	NotificationOriginHistory    = "history"
	NotificationOriginStockAlert = "stock_alert"
	NotificationOriginBroadcast  = "broadcast"
	NotificationOriginSweep      = "sweep"
	NotificationOriginOrder      = "order"
)

// 通知发送结果常量
const (
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
	NotificationStatusSkipped = "skipped"
)

// 默认阈值常量
const (
	DefaultLowStockThreshold = 3
	MaxLowStockThreshold     = 1000
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 队列常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskOrderStatusEmail     = "order:status_email"
	TaskInventoryStockChange = "inventory:stock_changed"
	TaskInventoryAlertSweep  = "inventory:alert_sweep"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "candy"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
