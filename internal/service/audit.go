package service

import (
	"hallpass-service/internal/models"

	"go.uber.org/zap"
)

// auditor writes audit rows best-effort. A failed write is logged and never
// fails the mutation that triggered it.
type auditor struct {
	writer AuditWriter
	logger *zap.Logger
}

func (a auditor) record(actor, studentID, action, details string) {
	if a.writer == nil {
		return
	}
	entry := &models.AuditLog{
		Actor:     actor,
		StudentID: studentID,
		Action:    action,
		Details:   details,
	}
	if err := a.writer.CreateAuditLog(entry); err != nil {
		a.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("actor", actor),
			zap.Error(err),
		)
	}
}
