package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
)

// demoDay is a morning of the clinic's agenda, used to populate a fresh process.
var demoDay = []lifecycle.Form{
	{PatientName: "André Ferreira", ProviderID: "1", StartTime: "07:00", EndTime: "07:30", Type: "consultation"},
	{PatientName: "Marcelo Carvalho", ProviderID: "1", StartTime: "07:00", EndTime: "08:00", Type: "consultation"},
	{PatientName: "Paulo Matos", ProviderID: "1", StartTime: "07:30", EndTime: "08:00", Type: "follow-up"},
	{PatientName: "Delia", ProviderID: "2", StartTime: "08:00", EndTime: "08:30", Type: "consultation"},
	{PatientName: "João Retorno", ProviderID: "1", StartTime: "08:30", EndTime: "09:00", Type: "follow-up"},
	{PatientName: "Pedro Souza", ProviderID: "1", StartTime: "09:00", EndTime: "09:30", Type: "consultation"},
	{PatientName: "Renata Nascimento", ProviderID: "1", StartTime: "09:00", EndTime: "09:30", Type: "follow-up"},
}

func seedDemoDay(ctx context.Context, c *lifecycle.Controller, loc *time.Location, logger *slog.Logger) int {
	today := time.Now().In(loc).Format("2006-01-02")
	seeded := 0
	for _, f := range demoDay {
		f.Date = today
		f.Status = "confirmed"
		if _, err := c.Submit(ctx, f, ""); err != nil {
			logger.Warn("demo appointment rejected", "patient", f.PatientName, "err", err)
			continue
		}
		seeded++
	}
	logger.Info("demo agenda seeded", "date", today, "appointments", seeded)
	return seeded
}
