package reminder

import (
	"fmt"
	"html"
	"strings"
)

// Subject is the fixed subject line for reading reminder emails.
const Subject = "Reminder Bacaan Harian - Duapasal"

// defaultGreetingName is used when the profile has no usable full name.
const defaultGreetingName = "Jemaat Tuhan"

// RenderReminderHTML renders the reminder email body. The result is stored
// on the queue row at enqueue time, so template edits only affect reminders
// enqueued afterwards.
func RenderReminderHTML(fullName, appURL string) string {
	safeName := strings.TrimSpace(fullName)
	if safeName == "" {
		safeName = defaultGreetingName
	}
	safeName = html.EscapeString(safeName)

	var cta string
	if appURL != "" {
		link := strings.TrimRight(appURL, "/") + "/dashboard"
		cta = fmt.Sprintf(`<p style="margin:16px 0 0 0;"><a href="%s" style="display:inline-block;padding:10px 14px;background:#4f46e5;color:#fff;border-radius:10px;text-decoration:none;font-weight:600;">Buka Bacaan Hari Ini</a></p>`, link)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
  <html>
    <head>
      <meta charset="utf-8" />
      <title>Reminder Bacaan Harian</title>
    </head>
    <body style="font-family: Arial, sans-serif; background:#f9fafb; margin:0; padding:20px;">
      <div style="max-width:640px; margin:0 auto; background:#ffffff; border:1px solid #e5e7eb; border-radius:12px; overflow:hidden;">
        <div style="background:linear-gradient(135deg,#4f46e5,#3b82f6); padding:18px 22px; color:#fff;">
          <div style="font-size:16px; font-weight:700;">Reminder Bacaan Harian</div>
          <div style="font-size:13px; opacity:.9; margin-top:4px;">Duapasal</div>
        </div>
        <div style="padding:18px 22px; color:#111827;">
          <p style="margin:0 0 10px 0;">Shalom <b>%s</b>,</p>
          <p style="margin:0 0 10px 0;">Ini pengingat untuk menyelesaikan bacaan harian hari ini.</p>
          <p style="margin:0 0 10px 0;">Tuhan Yesus memberkati!</p>
          %s
          <p style="margin:16px 0 0 0; font-size:12px; color:#6b7280;">Jika Anda tidak ingin menerima email ini, nonaktifkan "Reminder Email" di halaman Profil.</p>
        </div>
      </div>
    </body>
  </html>`, safeName, cta)
}
