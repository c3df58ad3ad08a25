package service

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/candy-store/internal/config"

	"github.com/google/uuid"
)

const defaultSMTPTimeout = 10 * time.Second

// Mailer 邮件发送网关，通知引擎与订单状态邮件共用
type Mailer interface {
	Send(to, subject, body string) error
}

// EmailService SMTP 纯文本邮件发送
type EmailService struct {
	cfg *config.EmailConfig
	now func() time.Time
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg, now: time.Now}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg != nil {
		s.cfg = cfg
	}
}

type smtpTransport int

const (
	transportPlain smtpTransport = iota
	transportStartTLS
	transportImplicitTLS
)

func resolveTransport(cfg *config.EmailConfig) smtpTransport {
	switch {
	case cfg.UseSSL:
		return transportImplicitTLS
	case cfg.UseTLS:
		return transportStartTLS
	default:
		return transportPlain
	}
}

// Send 发送一封邮件，收件方拒收时错误包裹 ErrEmailRecipientRejected
func (s *EmailService) Send(toEmail, subject, body string) error {
	if s == nil || s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	cfg := s.cfg
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	rcpt, err := mail.ParseAddress(strings.TrimSpace(toEmail))
	if err != nil {
		return ErrInvalidEmail
	}

	msg := composeMessage(envelope{
		From:      formatSender(cfg.From, cfg.FromName),
		To:        rcpt.Address,
		Subject:   subject,
		MessageID: messageID(cfg.From),
		Date:      s.now(),
	}, body)

	client, err := dialSMTP(cfg, resolveTransport(cfg))
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, cfg); err != nil {
		return err
	}
	return classifySendError(transmit(client, cfg.From, rcpt.Address, msg))
}

func dialSMTP(cfg *config.EmailConfig, transport smtpTransport) (*smtp.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: defaultSMTPTimeout}
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	var (
		conn net.Conn
		err  error
	)
	if transport == transportImplicitTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(2 * defaultSMTPTimeout))

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if transport == transportStartTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return client, nil
}

// authenticate 服务端未声明 AUTH 时跳过
func authenticate(client *smtp.Client, cfg *config.EmailConfig) error {
	if cfg.Username == "" && cfg.Password == "" {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return nil
	}
	return client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host))
}

func transmit(client *smtp.Client, from, to string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

type envelope struct {
	From      string
	To        string
	Subject   string
	MessageID string
	Date      time.Time
}

func formatSender(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	return (&mail.Address{Name: mime.QEncoding.Encode("UTF-8", name), Address: from}).String()
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func composeMessage(env envelope, body string) []byte {
	var buf bytes.Buffer
	header := func(key, value string) {
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}
	header("From", env.From)
	header("To", env.To)
	header("Subject", mime.QEncoding.Encode("UTF-8", env.Subject))
	header("Date", env.Date.Format(time.RFC1123Z))
	header("Message-ID", env.MessageID)
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return buf.Bytes()
}

// 收件人相关的永久失败码：550 邮箱不可用，551 非本地用户，553 地址格式不被接受
var recipientRejectCodes = map[int]bool{550: true, 551: true, 553: true}

var recipientRejectHints = []string{
	"no such recipient",
	"no such user",
	"recipient not found",
	"recipient address rejected",
	"invalid recipient",
	"user unknown",
	"unknown user",
	"unknown mailbox",
	"mailbox unavailable",
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	if isRecipientRejected(err) {
		return fmt.Errorf("%w: %v", ErrEmailRecipientRejected, err)
	}
	return err
}

func isRecipientRejected(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && recipientRejectCodes[protoErr.Code] {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, hint := range recipientRejectHints {
		if strings.Contains(message, hint) {
			return true
		}
	}
	return false
}
