package admin

import (
	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 管理端接口，路由挂在 /admin 下并经过 JWT 与 casbin 校验
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.CurrentID(c, "admin_id")
}

func currentAdminID(c *gin.Context) uint           { return c.GetUint("admin_id") }
func currentIsSuper(c *gin.Context) bool           { return c.GetBool("admin_is_super") }
func requestLog(c *gin.Context) *zap.SugaredLogger { return handlershared.RequestLog(c) }

func parseID(c *gin.Context, name, notFoundKey string) (uint, bool) {
	return handlershared.ParseParamID(c, name, notFoundKey)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
