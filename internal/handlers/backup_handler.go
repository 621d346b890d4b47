package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "meloch/internal/errors"
	"meloch/internal/report"
	"meloch/internal/services"
)

const maxBackupSize = 10 << 20

// BackupHandler serves backup files and spreadsheet reports.
type BackupHandler struct {
	backupService services.BackupServicer
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
	now           func() time.Time
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(backupService services.BackupServicer, ledgerService services.LedgerServicer, auditService services.AuditServicer) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		ledgerService: ledgerService,
		auditService:  auditService,
		now:           time.Now,
	}
}

// ExportBackup downloads the backup file
// @Summary     Export backup
// @Description Download the ledger, cards and pocket money as a JSON backup file
// @Tags        backup
// @Produce     json
// @Security    BearerAuth
// @Success     200 {file} file "Backup file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /backup [get]
func (h *BackupHandler) ExportBackup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.backupService.Export(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXPORT_BACKUP", "backup", "", c.ClientIP(), nil)

	name := fmt.Sprintf("meloch_backup_%s.json", h.now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// ImportBackup restores a backup file
// @Summary     Import backup
// @Description Replace the ledger, cards and pocket money with the contents of a backup file. Accepts a raw JSON body or a multipart form field named "file".
// @Tags        backup
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file false "Backup file"
// @Success     200 {object} services.ImportResult "Import result with warnings"
// @Failure     400 {object} ErrorResponse "Malformed or foreign file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /backup/import [post]
func (h *BackupHandler) ImportBackup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := readUpload(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.backupService.Import(c.Request.Context(), userID, data)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IMPORT_BACKUP", "backup", "", c.ClientIP(), map[string]any{
		"transactions": result.Transactions,
		"cards":        result.Cards,
		"warnings":     len(result.Warnings),
	})
	c.JSON(http.StatusOK, result)
}

// readUpload returns the multipart "file" field when present, else the raw body.
func readUpload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupSize)

	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "multipart upload requires a file field")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "backup file is too large or unreadable")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "backup file is empty")
	}
	return data, nil
}

// ExportReport downloads the spreadsheet report
// @Summary     Export spreadsheet
// @Description Download a workbook with a Summary sheet and a Transactions sheet
// @Tags        backup
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200 {file} file "XLSX workbook"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Ledger storage unavailable"
// @Router      /reports/xlsx [get]
func (h *BackupHandler) ExportReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	st, err := h.ledgerService.GetState(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, st, now); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.FileName(now)+`"`)
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}
