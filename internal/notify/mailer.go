// Package notify はタスク共有メールの送信を提供する。
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
)

// Config はSMTP送信の設定。
type Config struct {
	Sender   string // 送信元アドレス
	Username string
	Password string
	Host     string
	Port     int
	Timeout  time.Duration
}

// Enabled は送信に必要な設定が揃っているかどうかを返す。
func (c Config) Enabled() bool {
	return c.Sender != "" && c.Password != "" && c.Host != ""
}

// Sender は組み立て済みのメッセージを送信する。
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// smtpSender はgo-mailのクライアントでSMTP送信する。
// 送信ごとに接続し、STARTTLSを必須とする。
type smtpSender struct {
	cfg Config
}

func (s *smtpSender) Send(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Mailer はタスクの内容をメールで共有する。
// 送信はベストエフォートで、再試行や永続化は行わない。
type Mailer struct {
	from    string
	sender  Sender
	metrics metrics.MetricsCollector
}

// NewMailer はSMTP送信を行うMailerを生成する。
// 設定が不足している場合、送信は常に失敗扱いになる。
func NewMailer(cfg Config, mc metrics.MetricsCollector) *Mailer {
	var sender Sender
	if cfg.Enabled() {
		if cfg.Timeout <= 0 {
			cfg.Timeout = 10 * time.Second
		}
		sender = &smtpSender{cfg: cfg}
	}
	return NewMailerWithSender(cfg.Sender, sender, mc)
}

// NewMailerWithSender は任意のSenderを使うMailerを生成する。senderがnilの場合は送信しない。
func NewMailerWithSender(from string, sender Sender, mc metrics.MetricsCollector) *Mailer {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Mailer{from: from, sender: sender, metrics: mc}
}

// ShareTask はタスクの内容をtoへ送信する。
// 宛先やタスクが欠けている場合、宛先が解析できない場合はValidationErrorを返す。
// 送信自体の失敗はエラーではなく (false, nil) として返す。
func (m *Mailer) ShareTask(ctx context.Context, senderEmail, to string, snapshot *model.TaskSnapshot) (bool, error) {
	to = strings.TrimSpace(to)
	if to == "" || snapshot == nil {
		return false, model.NewValidationError("Recipient and task are required")
	}

	msg := mail.NewMsg()
	if err := msg.To(to); err != nil {
		return false, model.NewValidationError("Invalid recipient email address")
	}

	if m.sender == nil {
		slog.Warn("mail delivery skipped: smtp is not configured")
		m.metrics.RecordMailDelivery(false)
		return false, nil
	}

	if err := msg.From(m.from); err != nil {
		slog.Error("invalid mail sender address", slog.String("error", err.Error()))
		m.metrics.RecordMailDelivery(false)
		return false, nil
	}
	if senderEmail != "" {
		if err := msg.ReplyTo(senderEmail); err != nil {
			slog.Warn("ignoring invalid reply-to address", slog.String("error", err.Error()))
		}
	}
	msg.Subject(subject(snapshot))
	msg.SetBodyString(mail.TypeTextPlain, body(senderEmail, snapshot))

	if err := m.sender.Send(ctx, msg); err != nil {
		slog.Error("task share mail delivery failed",
			slog.String("error", err.Error()),
		)
		m.metrics.RecordMailDelivery(false)
		return false, nil
	}

	m.metrics.RecordMailDelivery(true)
	slog.Info("task shared by mail")
	return true, nil
}

func subject(snapshot *model.TaskSnapshot) string {
	title := strings.Join(strings.Fields(snapshot.Title), " ")
	if title == "" {
		return "A task has been shared with you"
	}
	return "Shared task: " + title
}

func body(senderEmail string, snapshot *model.TaskSnapshot) string {
	from := senderEmail
	if from == "" {
		from = "A user"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s shared a task with you.\n\n", from)
	fmt.Fprintf(&b, "Title:       %s\n", snapshot.Title)
	fmt.Fprintf(&b, "Description: %s\n", snapshot.Description)
	fmt.Fprintf(&b, "Frequency:   %s\n", snapshot.Frequency)
	fmt.Fprintf(&b, "Due date:    %s\n", snapshot.DueDate)
	fmt.Fprintf(&b, "Due time:    %s\n", snapshot.DueTime)
	return b.String()
}
