package service

import (
	"strings"
	"sync"
	"time"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"

	"github.com/mojocn/base64Captcha"
)

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaPublicSetting 可下发给前端的验证码配置
type CaptchaPublicSetting struct {
	Provider string          `json:"provider"`
	Scenes   map[string]bool `json:"scenes"`
}

// CaptchaService 验证码服务，按场景开关决定是否需要校验
type CaptchaService struct {
	mu     sync.Mutex
	cfg    config.CaptchaConfig
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	s := &CaptchaService{}
	s.SetConfig(cfg)
	return s
}

// SetConfig 更新配置并重建图片存储
func (s *CaptchaService) SetConfig(cfg config.CaptchaConfig) {
	cfg = normalizeCaptchaConfig(cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	ttl := time.Duration(cfg.Image.ExpireSeconds) * time.Second
	if shared := cache.NewCaptchaStore(ttl); shared != nil {
		s.store = shared
	} else {
		s.store = base64Captcha.NewMemoryStore(cfg.Image.MaxStore, ttl)
	}
	s.driver = base64Captcha.NewDriverString(
		cfg.Image.Height,
		cfg.Image.Width,
		cfg.Image.NoiseCount,
		cfg.Image.ShowLine,
		cfg.Image.Length,
		"23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ",
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
}

// PublicSetting 公开配置
func (s *CaptchaService) PublicSetting() CaptchaPublicSetting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CaptchaPublicSetting{
		Provider: s.cfg.Provider,
		Scenes: map[string]bool{
			constants.CaptchaSceneLogin:    s.sceneEnabled(constants.CaptchaSceneLogin),
			constants.CaptchaSceneRegister: s.sceneEnabled(constants.CaptchaSceneRegister),
		},
	}
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	s.mu.Lock()
	provider, driver, store := s.cfg.Provider, s.driver, s.store
	s.mu.Unlock()
	if provider != constants.CaptchaProviderImage {
		return nil, ErrCaptchaConfigInvalid
	}
	captcha := base64Captcha.NewCaptcha(driver, store)
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{
		CaptchaID:   strings.TrimSpace(id),
		ImageBase64: strings.TrimSpace(b64s),
	}, nil
}

// Verify 按场景校验验证码，场景未开启时直接通过
func (s *CaptchaService) Verify(scene string, payload CaptchaVerifyPayload) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	enabled := s.sceneEnabled(scene)
	provider, store := s.cfg.Provider, s.store
	s.mu.Unlock()
	if !enabled {
		return nil
	}
	if provider != constants.CaptchaProviderImage {
		return ErrCaptchaConfigInvalid
	}
	captchaID := strings.TrimSpace(payload.CaptchaID)
	captchaCode := strings.TrimSpace(payload.CaptchaCode)
	if captchaID == "" || captchaCode == "" {
		return ErrCaptchaRequired
	}
	if !store.Verify(captchaID, captchaCode, true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) sceneEnabled(scene string) bool {
	if s.cfg.Provider == constants.CaptchaProviderNone {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scene)) {
	case constants.CaptchaSceneLogin:
		return s.cfg.Scenes.Login
	case constants.CaptchaSceneRegister:
		return s.cfg.Scenes.Register
	default:
		return false
	}
}

func normalizeCaptchaConfig(cfg config.CaptchaConfig) config.CaptchaConfig {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case constants.CaptchaProviderImage, constants.CaptchaProviderNone:
		cfg.Provider = provider
	default:
		cfg.Provider = constants.CaptchaProviderNone
	}
	if cfg.Image.Length < 4 || cfg.Image.Length > 8 {
		cfg.Image.Length = 5
	}
	if cfg.Image.Width < 100 {
		cfg.Image.Width = 240
	}
	if cfg.Image.Height < 40 {
		cfg.Image.Height = 80
	}
	if cfg.Image.NoiseCount < 0 {
		cfg.Image.NoiseCount = 2
	}
	if cfg.Image.ShowLine < 0 {
		cfg.Image.ShowLine = 2
	}
	if cfg.Image.ExpireSeconds < 30 || cfg.Image.ExpireSeconds > 3600 {
		cfg.Image.ExpireSeconds = 300
	}
	if cfg.Image.MaxStore < 100 {
		cfg.Image.MaxStore = 10240
	}
	return cfg
}
