package core_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/trezcool/matibabu/core"
)

// recordingLogger captures Error calls so template parse failures fail the test.
type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Enable(bool)                        {}
func (l *recordingLogger) Debug(string, ...interface{})       {}
func (l *recordingLogger) Info(string, ...interface{})        {}
func (l *recordingLogger) Warn(string, ...interface{})        {}
func (l *recordingLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }
func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf("%s %v", msg, args))
}

func Test_ParseEmailTemplates_rendersAll(t *testing.T) {
	conf := core.NewTestConfig()
	logger := &recordingLogger{}
	core.ParseEmailTemplates(conf, logger)
	if len(logger.errors) > 0 {
		t.Fatalf("ParseEmailTemplates() logged errors: %v", logger.errors)
	}

	tests := []struct {
		name string
		data interface{}
		want string
	}{
		{name: "welcome", data: struct{ Name string }{"Jalil"}, want: "Welcome to Matibabu"},
		{name: "password-reset", data: struct{ Name, UID, Token string }{"Jalil", "uid", "tok"}, want: "Jalil"},
		{
			name: "cert-expiry",
			data: struct {
				Name, CertLevel, Expiry string
				Days                    int
			}{"Jalil", "EMT", "Jan 2, 2027", 30},
			want: "30 days",
		},
		{
			name: "milestone",
			data: struct {
				Name  string
				Hours int
			}{"Jalil", 50},
			want: "clinical hours",
		},
		{name: "trade-decision", data: struct{ Name, Status string }{"Jalil", "approved"}, want: "approved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &core.EmailMessage{TemplateName: tt.name, TemplateData: tt.data}
			if err := msg.Render(); err != nil {
				t.Fatalf("Render() failed: %v", err)
			}
			if msg.TextContent == "" || msg.HTMLContent == "" {
				t.Fatalf("Render() produced empty content; text %q, HTML %q", msg.TextContent, msg.HTMLContent)
			}
			if !strings.Contains(msg.TextContent, tt.want) {
				t.Errorf("text content %q does not contain %q", msg.TextContent, tt.want)
			}
			if !strings.Contains(msg.HTMLContent, tt.want) {
				t.Errorf("HTML content %q does not contain %q", msg.HTMLContent, tt.want)
			}
		})
	}
}
