package public

import (
	handlershared "github.com/candy-store/internal/http/handlers/shared"
	"github.com/candy-store/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 商品目录及登录用户侧接口
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.CurrentID(c, "user_id")
}

func parseID(c *gin.Context, name, notFoundKey string) (uint, bool) {
	return handlershared.ParseParamID(c, name, notFoundKey)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
