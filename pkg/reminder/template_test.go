package reminder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duapasal/remindersvc/pkg/reminder"
)

func TestRenderReminderHTML(t *testing.T) {
	t.Parallel()

	t.Run("greets by name", func(t *testing.T) {
		t.Parallel()

		body := reminder.RenderReminderHTML("Budi Santoso", "https://duapasal.app")
		assert.Contains(t, body, "Shalom <b>Budi Santoso</b>")
		assert.Contains(t, body, "https://duapasal.app/dashboard")
	})

	t.Run("falls back when name is blank", func(t *testing.T) {
		t.Parallel()

		body := reminder.RenderReminderHTML("   ", "https://duapasal.app")
		assert.Contains(t, body, "Shalom <b>Jemaat Tuhan</b>")
	})

	t.Run("escapes html in name", func(t *testing.T) {
		t.Parallel()

		body := reminder.RenderReminderHTML("<script>x</script>", "")
		assert.NotContains(t, body, "<script>")
		assert.Contains(t, body, "&lt;script&gt;")
	})

	t.Run("omits cta without app url", func(t *testing.T) {
		t.Parallel()

		body := reminder.RenderReminderHTML("Budi", "")
		assert.NotContains(t, body, "/dashboard")
	})

	t.Run("normalizes trailing slash in app url", func(t *testing.T) {
		t.Parallel()

		body := reminder.RenderReminderHTML("Budi", "https://duapasal.app/")
		assert.Contains(t, body, `href="https://duapasal.app/dashboard"`)
	})
}
