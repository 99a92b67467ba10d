package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_ForgotPassword(t *testing.T) {
	exp := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	data := NewForgotPasswordData(Branding{AppName: "travel", CompanyName: "Travel Co", ResetPasswordURL: "http://app.test/reset/"}, "Alice", "a@x.com", "deadbeef", exp)

	subject, text, html, err := Render(ForgotPassword, data)
	require.NoError(t, err)

	assert.Equal(t, "Password Reset", subject)
	assert.Contains(t, text, "Your password reset token is: deadbeef.")
	assert.Contains(t, text, "http://app.test/reset/deadbeef")
	assert.Contains(t, text, "01 May 2026, 10:30 UTC")
	assert.Contains(t, html, "<strong>deadbeef</strong>")
	assert.Contains(t, html, "Travel Co")
}

func TestRender_DefaultsAndEscaping(t *testing.T) {
	data := NewForgotPasswordData(Branding{AppName: "travel"}, "<b>x</b>", "a@x.com", "tok", time.Now())

	_, text, html, err := Render(ForgotPassword, data)
	require.NoError(t, err)
	assert.NotContains(t, text, "You can also open this link")
	assert.Contains(t, text, "travel")
	assert.Contains(t, html, "&lt;b&gt;x&lt;/b&gt;")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", EmailData{})
	assert.Error(t, err)
}

func TestToMap(t *testing.T) {
	m := ToMap(EmailData{Name: "Alice", Token: "t"})
	assert.Equal(t, "Alice", m["Name"])
	assert.Equal(t, "t", m["Token"])
}
