package service

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/enerlind-render/odoo-agent/internal/clients"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/config"
	"github.com/enerlind-render/odoo-agent/internal/infrastructure/storage"
	"github.com/enerlind-render/odoo-agent/internal/odoo"
)

// MailSender delivers one file per email.
type MailSender interface {
	Send(to, filename string, data []byte, subjectMode string) error
}

// SendTraceStore records vendor-bill send attempts.
type SendTraceStore interface {
	SaveSend(record *storage.SendRecord) error
	RecentSends(limit int) ([]*storage.SendRecord, error)
	FindBySHA1(sha1 string) ([]*storage.SendRecord, error)
	GetStats() (*storage.Stats, error)
}

// ErrAttachmentTooLarge is returned when an upload exceeds the configured
// size limit.
type ErrAttachmentTooLarge struct {
	LimitMB float64
}

func (e ErrAttachmentTooLarge) Error() string {
	return fmt.Sprintf("attachment larger than %.0f MB", e.LimitMB)
}

// SendResult is the orchestrator contract for one vendor-bill send: the
// SHA-1 lets the caller poll Odoo for the draft created from the email.
type SendResult struct {
	FileSHA1     string
	Filename     string
	Recipient    string
	DelaySeconds int
}

// VendorBillService emails vendor-bill files to the Odoo ingestion alias
// and keeps a local audit trail of every attempt.
type VendorBillService struct {
	sender MailSender
	store  SendTraceStore
	files  clients.FileDownloader
	cfg    config.SMTPConfig
	maxMB  float64
	logger *slog.Logger
}

// NewVendorBillService wires the sender, trace store and upload resolver.
func NewVendorBillService(sender MailSender, store SendTraceStore, files clients.FileDownloader, smtpCfg config.SMTPConfig, maxAttachmentMB float64, logger *slog.Logger) *VendorBillService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VendorBillService{
		sender: sender,
		store:  store,
		files:  files,
		cfg:    smtpCfg,
		maxMB:  maxAttachmentMB,
		logger: logger,
	}
}

// ResolveUpload normalizes an upload (raw bytes, base64 text or OpenAI
// file id) to real bytes and enforces the size limit.
func (s *VendorBillService) ResolveUpload(raw []byte, filename string) ([]byte, string, error) {
	data, name, err := clients.ResolveUpload(raw, filename, s.files)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("attachment is empty")
	}
	if float64(len(data)) > s.maxMB*1024*1024 {
		return nil, "", ErrAttachmentTooLarge{LimitMB: s.maxMB}
	}
	return data, odoo.SanitizeFilename(name), nil
}

// Send emails the file to the vendor-bills alias and records the attempt.
// aliasTo, subjectMode and delaySeconds override config defaults when set.
func (s *VendorBillService) Send(data []byte, filename, aliasTo, subjectMode string, delaySeconds int) (SendResult, error) {
	sum := sha1.Sum(data)
	fileSHA1 := hex.EncodeToString(sum[:])

	to := aliasTo
	if to == "" {
		to = s.cfg.VendorBillsEmail
	}
	delay := delaySeconds
	if delay <= 0 {
		delay = s.cfg.DefaultDelaySec
	}

	record := &storage.SendRecord{
		FileSHA1:    fileSHA1,
		Filename:    filename,
		Recipient:   to,
		SizeBytes:   int64(len(data)),
		Status:      "sent",
		DelaySecond: delay,
	}

	if err := s.sender.Send(to, filename, data, subjectMode); err != nil {
		record.Status = "failed"
		record.ErrorMsg = err.Error()
		if saveErr := s.store.SaveSend(record); saveErr != nil {
			s.logger.Error("saving failed-send trace", "error", saveErr)
		}
		return SendResult{}, fmt.Errorf("SMTP send failed: %w", err)
	}

	if err := s.store.SaveSend(record); err != nil {
		// The mail is already out; a missing trace row is log-worthy but
		// must not fail the request.
		s.logger.Error("saving send trace", "sha1", fileSHA1, "error", err)
	}

	s.logger.Info("vendor bill sent", "sha1", fileSHA1, "filename", filename, "to", to)
	return SendResult{
		FileSHA1:     fileSHA1,
		Filename:     filename,
		Recipient:    to,
		DelaySeconds: delay,
	}, nil
}

// RecentSends exposes the local audit trail.
func (s *VendorBillService) RecentSends(limit int) ([]*storage.SendRecord, error) {
	return s.store.RecentSends(limit)
}

// SendsFor returns every recorded attempt for one file checksum.
func (s *VendorBillService) SendsFor(fileSHA1 string) ([]*storage.SendRecord, error) {
	return s.store.FindBySHA1(fileSHA1)
}

// Stats summarizes the audit trail.
func (s *VendorBillService) Stats() (*storage.Stats, error) {
	return s.store.GetStats()
}
