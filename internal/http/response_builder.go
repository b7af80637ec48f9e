// Package http serves the fuel dashboard, its htmx fragments and the JSON API.

package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
)

// htmx events emitted in the HX-Trigger header. The page listens for them.
const (
	EventEntryCreated = "entry:created"
	EventEntryDeleted = "entry:deleted"
	EventFormReset    = "form:reset"
	EventStatsRefresh = "stats:refresh"
	EventNotification = "show-notification"
)

// NotificationType selects the toast style on the page.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// HTMXResponseBuilder assembles status, headers, HX-Trigger events and body,
// then writes them in one go.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	header     http.Header
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		header:     make(http.Header),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds an event; data becomes event.detail on the page.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerEntryCreated lets the page highlight the new row.
func (b *HTMXResponseBuilder) TriggerEntryCreated(id int64) *HTMXResponseBuilder {
	return b.Trigger(EventEntryCreated, map[string]int64{"id": id})
}

func (b *HTMXResponseBuilder) TriggerEntryDeleted(id int64) *HTMXResponseBuilder {
	return b.Trigger(EventEntryDeleted, map[string]int64{"id": id})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// TriggerStatsRefresh makes the dashboard section reload cards, budget, charts and history.
func (b *HTMXResponseBuilder) TriggerStatsRefresh() *HTMXResponseBuilder {
	return b.Trigger(EventStatsRefresh, struct{}{})
}

func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets an HTML fragment. The caller escapes any user text.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

// JSON sets the body to the encoding of v. An encoding failure turns the
// response into a plain 500.
func (b *HTMXResponseBuilder) JSON(v any) *HTMXResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		b.header.Set("Content-Type", "text/plain; charset=utf-8")
		b.body = []byte("encoding error")
		return b
	}
	b.header.Set("Content-Type", "application/json")
	b.body = data
	return b
}

// Attachment makes the body a file download named filename.
func (b *HTMXResponseBuilder) Attachment(contentType, filename string, data []byte) *HTMXResponseBuilder {
	b.header.Set("Content-Type", contentType)
	b.header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	b.header.Set("Content-Length", fmt.Sprint(len(data)))
	b.body = data
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	if len(b.triggers) > 0 {
		if events, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(events))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse is an escaped error fragment for htmx targets.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// JSONError is the API error shape, {"error": message}.
func JSONError(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().Status(statusCode).JSON(map[string]string{"error": message})
}
