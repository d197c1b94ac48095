package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"henbot/models"
)

type AlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

// ErrorAlertMiddleware keeps handler failures away from the dispatcher: a
// panicking or erroring command degrades to a generic user-visible message
// while the operator gets a deduplicated webhook alert.
type ErrorAlertMiddleware struct {
	config        AlertConfig
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration // prevent spam
}

func NewErrorAlertMiddleware(config AlertConfig) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute,
	}
}

// WrapCommandHandler shields the dispatcher from a handler's panics and
// errors. The returned error, if any, means "tell the user something went
// wrong"; the alert has already been sent.
func (m *ErrorAlertMiddleware) WrapCommandHandler(name string, handler models.HandlerFunc) models.HandlerFunc {
	return func(ctx context.Context, execCtx models.ExecutionContext, args string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				errorMsg := fmt.Sprintf("command %s: PANIC - %v", name, r)
				log.Printf("❌ %s", errorMsg)
				go m.sendAlert(errorMsg, fmt.Sprintf("command %s (PANIC)", name))
				err = fmt.Errorf("command %s panicked", name)
			}
		}()

		if err := handler(ctx, execCtx, args); err != nil {
			m.alertOnError(err, fmt.Sprintf("command %s (user: %s)", name, execCtx.UserID))
			return err
		}
		return nil
	}
}

// WrapBackgroundTask wraps cron jobs and other background work.
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task func() error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				errorMsg := fmt.Sprintf("background task %s: PANIC - %v", taskName, r)
				log.Printf("❌ %s", errorMsg)
				go m.sendAlert(errorMsg, fmt.Sprintf("background task %s (PANIC)", taskName))
			}
		}()

		if err := task(); err != nil {
			m.alertOnError(err, fmt.Sprintf("background task: %s", taskName))
		}
	}
}

func (m *ErrorAlertMiddleware) alertOnError(err error, errContext string) {
	errorMsg := fmt.Sprintf("%s: %v", errContext, err)
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lastAlert, exists := m.alertedErrors[hash]; exists {
		if time.Since(lastAlert) < m.alertCooldown {
			return // Skip alert - too recent
		}
	}

	go m.sendAlert(errorMsg, errContext)
	m.alertedErrors[hash] = time.Now()
}

func (m *ErrorAlertMiddleware) sendAlert(errorMsg, errContext string) {
	if m.config.WebhookURL == "" {
		return // alerts disabled
	}

	envTag := ""
	if m.config.Environment == "dev" {
		envTag = "[dev] "
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			slack.PlainTextType,
			fmt.Sprintf("🚨 %s%s Error Alert", envTag, m.config.AppName),
			true, false,
		)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", m.config.AppName), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", m.config.Environment), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Context:* %s", errContext), false, false),
		}, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("*Error:*\n```%s```", errorMsg),
			false, false,
		), nil, nil),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL),
			false, false,
		), nil, nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := slack.PostWebhookContext(ctx, m.config.WebhookURL, &slack.WebhookMessage{
		Blocks: &slack.Blocks{BlockSet: blocks},
	})
	if err != nil {
		log.Printf("❌ Failed to send error alert: %v", err)
	}
}
