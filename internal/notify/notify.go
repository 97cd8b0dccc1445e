package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/Tiliavir/hrms-time-calc/internal/config"
	"github.com/Tiliavir/hrms-time-calc/internal/model"
	"github.com/Tiliavir/hrms-time-calc/internal/timecalc"
)

const userAgent = "htc/0.1.0"

// Notifier receives the one-shot "target completed" event.
type Notifier interface {
	NotifyTargetCompleted(ctx context.Context, summary model.WorkSummary, result model.StatusResult) error
}

// New builds the notifier described by cfg. With nothing enabled a no-op
// notifier is returned.
func New(cfg config.Notifications) Notifier {
	var targets Multi
	if cfg.Desktop {
		targets = append(targets, NewDesktop())
	}
	if topic := strings.TrimSpace(cfg.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		targets = append(targets, NewNtfy(topic, &http.Client{Timeout: timeout}))
	}
	if len(targets) == 0 {
		return Noop{}
	}
	return targets
}

// Message renders the celebration text shared by every notifier.
func Message(summary model.WorkSummary, result model.StatusResult) (title, body string) {
	title = "Congratulations!"
	body = fmt.Sprintf("You've completed your 8-hour target (%s worked).", timecalc.FormatMinutes(summary.TotalWorkedMinutes))
	if result.OvertimeMinutes > 0 {
		body += fmt.Sprintf(" Overtime: %s.", timecalc.FormatMinutes(result.OvertimeMinutes))
	}
	return title, body + " You're ready to go home!"
}

// Desktop sends notifications through notify-send.
type Desktop struct {
	command string
	run     func(ctx context.Context, name string, args ...string) error
}

// NewDesktop creates a notify-send backed notifier.
func NewDesktop() *Desktop {
	return &Desktop{
		command: "notify-send",
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (d *Desktop) NotifyTargetCompleted(ctx context.Context, summary model.WorkSummary, result model.StatusResult) error {
	title, body := Message(summary, result)
	args := []string{
		"-u", "normal",
		"-t", "10000",
		"-i", "emblem-default-symbolic",
		"-a", "htc",
		title, body,
	}
	if err := d.run(ctx, d.command, args...); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Ntfy posts notifications to an ntfy topic URL.
type Ntfy struct {
	endpoint string
	client   *http.Client
}

// NewNtfy creates an ntfy notifier for the full topic URL.
func NewNtfy(endpoint string, client *http.Client) *Ntfy {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Ntfy{endpoint: endpoint, client: client}
}

func (n *Ntfy) NotifyTargetCompleted(ctx context.Context, summary model.WorkSummary, result model.StatusResult) error {
	title, body := Message(summary, result)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)
	req.Header.Set("Tags", "tada,htc")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) NotifyTargetCompleted(ctx context.Context, summary model.WorkSummary, result model.StatusResult) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyTargetCompleted(ctx, summary, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards notifications.
type Noop struct{}

func (Noop) NotifyTargetCompleted(context.Context, model.WorkSummary, model.StatusResult) error {
	return nil
}
