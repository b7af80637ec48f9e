package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"gasolina/internal/core"
	"gasolina/internal/export"
	"gasolina/internal/format"
	"gasolina/internal/icon"
	"gasolina/internal/log"
	"gasolina/internal/ports"
)

// isHTMX reports whether the request came from an htmx element.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var fe *FieldError
	switch {
	case errors.As(err, &fe), core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNothingToExport):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes an HTML fragment for htmx and JSON for everything else.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		ErrorResponse(status, message).TriggerErrorNotification(message).Write(w)
		return
	}
	JSONError(status, message).Write(w)
}

// fail logs err and answers with a message fit for its status. Internal
// details are only logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())

	var msg string
	switch status {
	case http.StatusUnprocessableEntity:
		msg = "Datos no válidos: " + err.Error()
		logger.WarnContext(r.Context(), "Rejected invalid input",
			log.FieldOperation, op, log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeValidation)
	case http.StatusNotFound:
		msg = "Registro no encontrado"
		if errors.Is(err, export.ErrNothingToExport) {
			msg = "No hay registros para exportar"
		}
		logger.InfoContext(r.Context(), "Resource not found",
			log.FieldOperation, op, log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeNotFound)
	default:
		msg = "Error interno. Inténtalo de nuevo."
		errType := log.ErrorTypeInternal
		if errors.Is(err, context.DeadlineExceeded) {
			errType = log.ErrorTypeTimeout
		}
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
			log.NewFields().WithErrorType(errType))
	}
	s.respondError(w, r, status, msg)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.store == nil:
		checks["storage"] = "not_checked"
	default:
		if err := s.store.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Storage ping failed",
				log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeDatabase)
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	cs := s.stats.CacheStats()
	checks["cache"] = map[string]any{"entries": cs.Size, "hit_ratio": cs.HitRatio()}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	NewHTMXResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	tm := s.tracer.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	cs := s.stats.CacheStats()

	metrics := []struct {
		name, help, kind string
		value            any
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", tm.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", "counter", tm.ServerErrors},
		{"http_response_time_avg_microseconds", "Average response time", "gauge", tm.AverageResponseTime},
		{"entries_created_total", "Fill-ups recorded", "counter", s.metrics.entriesCreated.Load()},
		{"entries_deleted_total", "Fill-ups deleted", "counter", s.metrics.entriesDeleted.Load()},
		{"icons_generated_total", "Icons generated", "counter", s.metrics.iconsGenerated.Load()},
		{"stats_cache_hits_total", "Statistics cache hits", "counter", cs.Hits},
		{"stats_cache_misses_total", "Statistics cache misses", "counter", cs.Misses},
		{"stats_cache_entries", "Statistics cache entries", "gauge", cs.Size},
		{"rate_limit_rejected_total", "Requests rejected by the rate limiter", "counter", rl.Rejected},
		{"active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rl.ClientCount},
		{"suspicious_requests_total", "Total suspicious requests detected", "counter", s.detector.SuspiciousCount()},
		{"uptime_seconds", "Application uptime in seconds", "gauge", int64(time.Since(s.metrics.uptime).Seconds())},
	}
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(), "template", name, log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) dashboard(ctx context.Context) (dashboardView, error) {
	snap, err := s.stats.Snapshot(ctx)
	if err != nil {
		return dashboardView{}, err
	}
	return newDashboardView(snap, s.clock.Now(), s.icons != nil), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "index.html", view)
}

// handleDashboardPartial re-renders cards, budget, charts and history after a change.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	view, err := s.dashboard(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "dashboard.html", view)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewHTMXResponse().JSON(snap.Statistics).Write(w)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewHTMXResponse().JSON(snap.Charts).Write(w)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries.ListEntries(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	NewHTMXResponse().JSON(entries).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Formato de solicitud no válido")
		return
	}

	in, err := ParseEntryInput(p)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	e, err := s.entries.CreateEntry(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.metrics.entriesCreated.Add(1)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogEntryCreated(r.Context(), e)

	resp := NewHTMXResponse().Status(http.StatusCreated).TriggerEntryCreated(e.ID).TriggerStatsRefresh()
	if isHTMX(r) {
		resp.TriggerFormReset().
			TriggerSuccessNotification("Registro guardado").
			BodyHTML(`<div class="success">Registro guardado: ` +
				template.HTMLEscapeString(format.Date(e.Date)) + ` · ` +
				template.HTMLEscapeString(format.Euros(e.TotalCost)) + `</div>`).
			Write(w)
		return
	}
	resp.JSON(e).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	if raw == "" {
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			s.respondError(w, r, http.StatusBadRequest, "Formato de solicitud no válido")
			return
		}
		raw = p.Get("id")
	}

	id, err := ParseEntryID(raw)
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.entries.DeleteEntry(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.metrics.entriesDeleted.Add(1)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogEntryDeleted(r.Context(), id)

	resp := NewHTMXResponse().TriggerEntryDeleted(id).TriggerStatsRefresh()
	if isHTMX(r) {
		// htmx swaps the row out with the empty body.
		resp.Write(w)
		return
	}
	resp.Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.entries.Budget(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewHTMXResponse().JSON(map[string]float64{"budget": b}).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Formato de solicitud no válido")
		return
	}
	amount, err := ParseBudget(p)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	if err := s.entries.SetBudget(r.Context(), amount); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}

	resp := NewHTMXResponse().TriggerStatsRefresh()
	if isHTMX(r) {
		msg := "Presupuesto eliminado"
		if amount > 0 {
			msg = "Presupuesto actualizado"
		}
		resp.TriggerSuccessNotification(msg).Write(w)
		return
	}
	resp.JSON(map[string]float64{"budget": amount}).Write(w)
}

func (s *Server) report(ctx context.Context) (export.Report, error) {
	entries, err := s.entries.ListEntries(ctx)
	if err != nil {
		return export.Report{}, err
	}
	return export.NewReport(entries, s.clock.Now())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rep, err := s.report(r.Context())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rep); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewHTMXResponse().Attachment("text/csv; charset=utf-8", export.CSVFilename, buf.Bytes()).Write(w)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := s.report(r.Context())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rep); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewHTMXResponse().
		Attachment("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFilename, buf.Bytes()).
		Write(w)
}

func (s *Server) handleGenerateIcon(w http.ResponseWriter, r *http.Request) {
	if s.icons == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "La generación de iconos no está configurada")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	img, err := s.icons.Generate(ctx)
	if err != nil {
		msg := "Ocurrió un error al generar el icono."
		if errors.Is(err, icon.ErrNoImage) {
			msg = "No se pudo generar el icono. Inténtalo de nuevo."
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Icon generation failed",
			log.FieldError, err.Error(), log.FieldComponent, log.ComponentIcon)
		s.respondError(w, r, http.StatusBadGateway, msg)
		return
	}
	s.metrics.iconsGenerated.Add(1)

	if isHTMX(r) {
		s.render(w, r, "icon.html", struct{ Src template.URL }{Src: template.URL(img.DataURI())})
		return
	}
	NewHTMXResponse().Attachment(img.MIMEType, "icono-generado.png", img.Data).Write(w)
}
