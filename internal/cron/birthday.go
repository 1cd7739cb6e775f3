package cron

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/duapasal/remindersvc/pkg/audit"
	"github.com/duapasal/remindersvc/pkg/email"
	"github.com/duapasal/remindersvc/pkg/reminder"
)

// birthdayAuditCategory tags birthday greetings in the audit log.
const birthdayAuditCategory = "birthday"

// BirthdayRepository reads profiles celebrating on a given month and day.
type BirthdayRepository interface {
	// ListBirthdays returns profiles with an email address whose date of
	// birth falls on monthDay ("MM-DD").
	ListBirthdays(ctx context.Context, monthDay string) ([]reminder.Profile, error)
}

// BirthdayGreeter sends birthday greeting emails. Unlike reading reminders
// these are fire-and-forget: no queue, no retries, one pass per day.
type BirthdayGreeter struct {
	repo    BirthdayRepository
	sender  email.EmailSender
	auditor *audit.Logger
	log     *slog.Logger
}

// NewBirthdayGreeter creates a greeter over the profile repository and the
// delivery channel. The audit logger is optional.
func NewBirthdayGreeter(repo BirthdayRepository, sender email.EmailSender, auditor *audit.Logger, log *slog.Logger) (*BirthdayGreeter, error) {
	if repo == nil {
		return nil, reminder.ErrRepositoryNil
	}
	if sender == nil {
		return nil, reminder.ErrSenderNil
	}
	if log == nil {
		log = slog.Default()
	}
	return &BirthdayGreeter{repo: repo, sender: sender, auditor: auditor, log: log}, nil
}

// Send greets everyone celebrating on monthDay. Per-recipient failures are
// audited and skipped; the returned counts cover successful sends and the
// total celebrant set.
func (g *BirthdayGreeter) Send(ctx context.Context, monthDay string) (sent, total int, err error) {
	profiles, err := g.repo.ListBirthdays(ctx, monthDay)
	if err != nil {
		return 0, 0, fmt.Errorf("list birthdays: %w", err)
	}
	if len(profiles) == 0 {
		return 0, 0, nil
	}

	for _, p := range profiles {
		sendErr := g.sender.SendEmail(ctx, email.SendEmailParams{
			SendTo:   p.Email,
			Subject:  fmt.Sprintf("Selamat Ulang Tahun, %s! 🎂", p.FullName),
			BodyHTML: RenderBirthdayHTML(p.FullName),
			Tag:      birthdayAuditCategory,
		})
		if sendErr != nil {
			g.recordAudit(ctx, p, audit.OutcomeError, sendErr.Error())
			g.log.WarnContext(ctx, "birthday greeting failed",
				slog.String("email", p.Email),
				slog.String("error", sendErr.Error()))
			continue
		}

		sent++
		g.recordAudit(ctx, p, audit.OutcomeSent, "")
		g.log.InfoContext(ctx, "birthday greeting sent", slog.String("email", p.Email))
	}

	return sent, len(profiles), nil
}

func (g *BirthdayGreeter) recordAudit(ctx context.Context, p reminder.Profile, outcome audit.Outcome, errMsg string) {
	if g.auditor == nil {
		return
	}
	g.auditor.Record(ctx, audit.Record{
		Email:    p.Email,
		Category: birthdayAuditCategory,
		Outcome:  outcome,
		Error:    errMsg,
		Metadata: map[string]any{
			"full_name": p.FullName,
			"dob":       p.DOB,
		},
	})
}

// RenderBirthdayHTML renders the birthday greeting email body.
func RenderBirthdayHTML(fullName string) string {
	safeName := html.EscapeString(fullName)

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Selamat Ulang Tahun</title>
  <style>
    body { font-family: Arial, sans-serif; background: #f9fafb; margin: 0; padding: 20px; }
    .container { max-width: 600px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 12px rgba(0,0,0,0.08); }
    .header { background: linear-gradient(135deg, #fbbf24, #f59e0b); padding: 40px 30px; text-align: center; color: white; }
    .header h1 { margin: 0; font-size: 32px; }
    .body { padding: 30px; }
    .body p { font-size: 16px; line-height: 1.6; color: #374151; }
    .footer { background: #f3f4f6; padding: 20px 30px; text-align: center; font-size: 14px; color: #6b7280; }
    .footer a { color: #2563eb; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>🎂 Selamat Ulang Tahun!</h1>
    </div>
    <div class="body">
      <p>Shalom <b>%s</b>,</p>
      <p>Pada hari spesial ini, kami dari GBI AVIA ingin mengucapkan selamat ulang tahun. Semoga di usiamu yang baru ini, kasih karunia Tuhan semakin melimpah, sukacita-Nya selalu menyertai, dan rencana-Nya yang indah terwujud dalam hidupmu.</p>
      <p>"Sebab Aku ini mengetahui rancangan-rancangan apa yang ada pada-Ku mengenai kamu, demikianlah firman TUHAN, yaitu rancangan damai sejahtera dan bukan rancangan kecelakaan untuk memberikan kamu hari depan yang penuh harapan." <i>(Yeremia 29:11)</i></p>
      <p>Tuhan Yesus memberkati kamu!</p>
    </div>
    <div class="footer">
      <p>&copy; %d GBI AVIA &mdash; <a href="https://duapasal.id">duapasal.id</a></p>
    </div>
  </div>
</body>
</html>`, safeName, time.Now().Year())
}
