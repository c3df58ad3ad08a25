package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 业务状态码，HTTP 状态恒为 200
const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooManyRequests = 429
	CodeInternal        = 500
)

// Response 统一响应信封，分页接口额外携带 pagination
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// BuildPagination 根据总数计算分页信息
func BuildPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

func write(c *gin.Context, body Response) {
	c.JSON(http.StatusOK, body)
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMsg(c, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, Response{StatusCode: CodeOK, Msg: msg, Data: data})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	write(c, Response{StatusCode: CodeOK, Msg: "success", Data: data, Pagination: &pagination})
}

// Text 以附件形式返回纯文本
func Text(c *gin.Context, filename, body string) {
	if filename != "" {
		c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// Error 错误响应，data 中带上 request_id
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithData(c, statusCode, msg, nil)
}

// ErrorWithData 错误响应（带数据）
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	write(c, Response{StatusCode: statusCode, Msg: msg, Data: withRequestID(c, data)})
}

// NotFound 404
func NotFound(c *gin.Context, msg string) { Error(c, CodeNotFound, msg) }

// Unauthorized 401
func Unauthorized(c *gin.Context, msg string) { Error(c, CodeUnauthorized, msg) }

// Forbidden 403
func Forbidden(c *gin.Context, msg string) { Error(c, CodeForbidden, msg) }

func withRequestID(c *gin.Context, data interface{}) interface{} {
	if c == nil {
		return data
	}
	requestID := c.GetString("request_id")
	if requestID == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": requestID}
	case gin.H:
		if _, exists := v["request_id"]; !exists {
			v["request_id"] = requestID
		}
		return v
	default:
		return gin.H{"request_id": requestID, "data": data}
	}
}
