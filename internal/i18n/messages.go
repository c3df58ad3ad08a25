package i18n

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":              "Invalid request",
		"error.unauthorized":             "Please log in first",
		"error.forbidden":                "You do not have permission to perform this action",
		"error.not_found":                "Resource not found",
		"error.internal":                 "Something went wrong, please try again later",
		"error.too_many_requests":        "Too many attempts, please try again later",
		"error.token_invalid":            "Invalid or expired token",
		"error.user_disabled":            "This account has been disabled",
		"error.admin_id_invalid":         "Invalid admin identity",
		"error.id_invalid":               "Invalid id",
		"error.product_not_found":        "Candy not found",
		"error.order_not_found":          "Order not found",
		"error.order_cancel_not_allowed": "This order can no longer be cancelled",
		"error.insufficient_stock":       "Some items do not have enough stock",
		"error.insufficient_stock_item":  "Not enough stock for %s (requested %d, only %d available)",
		"error.cart_empty":               "Your cart is empty",
		"error.quantity_invalid":         "Quantity must be a positive number",
		"error.watchlist_not_found":      "Watchlist entry not found",
		"error.stock_alert_not_found":    "Stock alert not found",
		"error.review_exists":            "You have already reviewed this candy",
		"error.review_not_found":         "Review not found",
		"error.rating_invalid":           "Rating must be between 1 and 5",
		"error.threshold_invalid":        "Threshold must be between 0 and 1000",
		"error.email_exists":             "Email is already registered",
		"error.email_invalid":            "Invalid email address",
		"error.username_exists":          "Username is already taken",
		"error.username_invalid":         "Username is required",
		"error.password_mismatch":        "Passwords do not match",
		"error.password_weak":            "Password does not meet the policy",
		"error.password_min_length":      "Password must be at least %d characters",
		"error.password_require_upper":   "Password must contain an uppercase letter",
		"error.password_require_lower":   "Password must contain a lowercase letter",
		"error.password_require_number":  "Password must contain a number",
		"error.password_require_special": "Password must contain a special character",
		"error.invalid_credentials":      "Invalid username or password",
		"error.shipping_required":        "Full name, address, city and zip code are required",
		"error.captcha_required":         "Please complete the captcha",
		"error.captcha_invalid":          "Captcha is incorrect",
		"error.captcha_config_invalid":   "Captcha is not configured correctly",
		"error.user_not_found":           "User not found",
		"error.role_invalid":             "Invalid role",
		"error.policy_invalid":           "Invalid policy",
		"error.price_invalid":            "Price must not be negative",
		"error.product_name_required":    "Candy name is required",
		"error.user_status_invalid":      "Invalid user status",
		"error.email_rejected":           "The mail server rejected this address",
		"success.order_cancelled":        "Order cancelled",
		"success.stock_alert_created":    "We will email you when this candy is back in stock",
	},
	LocaleZH: {
		"error.bad_request":              "请求参数错误",
		"error.unauthorized":             "请先登录",
		"error.forbidden":                "无权执行该操作",
		"error.not_found":                "资源不存在",
		"error.internal":                 "服务繁忙，请稍后重试",
		"error.too_many_requests":        "尝试次数过多，请稍后再试",
		"error.token_invalid":            "令牌无效或已过期",
		"error.user_disabled":            "账号已被禁用",
		"error.admin_id_invalid":         "管理员身份无效",
		"error.id_invalid":               "ID 无效",
		"error.product_not_found":        "糖果不存在",
		"error.order_not_found":          "订单不存在",
		"error.order_cancel_not_allowed": "该订单已无法取消",
		"error.insufficient_stock":       "部分商品库存不足",
		"error.insufficient_stock_item":  "%s 库存不足（需要 %d，仅剩 %d）",
		"error.cart_empty":               "购物车为空",
		"error.quantity_invalid":         "数量必须为正数",
		"error.watchlist_not_found":      "关注记录不存在",
		"error.stock_alert_not_found":    "到货提醒不存在",
		"error.review_exists":            "你已评价过该糖果",
		"error.review_not_found":         "评价不存在",
		"error.rating_invalid":           "评分必须在 1 到 5 之间",
		"error.threshold_invalid":        "阈值必须在 0 到 1000 之间",
		"error.email_exists":             "邮箱已被注册",
		"error.email_invalid":            "邮箱格式错误",
		"error.username_exists":          "用户名已被占用",
		"error.username_invalid":         "用户名不能为空",
		"error.password_mismatch":        "两次输入的密码不一致",
		"error.password_weak":            "密码不符合安全策略",
		"error.password_min_length":      "密码长度至少为 %d 位",
		"error.password_require_upper":   "密码需包含大写字母",
		"error.password_require_lower":   "密码需包含小写字母",
		"error.password_require_number":  "密码需包含数字",
		"error.password_require_special": "密码需包含特殊字符",
		"error.invalid_credentials":      "用户名或密码错误",
		"error.shipping_required":        "收件人、地址、城市和邮编均为必填",
		"error.captcha_required":         "请完成验证码",
		"error.captcha_invalid":          "验证码错误",
		"error.captcha_config_invalid":   "验证码配置错误",
		"error.user_not_found":           "用户不存在",
		"error.role_invalid":             "角色无效",
		"error.policy_invalid":           "策略无效",
		"error.price_invalid":            "价格不能为负数",
		"error.product_name_required":    "糖果名称不能为空",
		"error.user_status_invalid":      "用户状态无效",
		"error.email_rejected":           "邮件服务器拒绝了该地址",
		"success.order_cancelled":        "订单已取消",
		"success.stock_alert_created":    "到货后我们会邮件通知你",
	},
}
