package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"studiodesk/internal/invoice"
)

func (s *HTTPServer) handleGetLogo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.deps.Logos.GetLogoURL(r.Context())})
}

func (s *HTTPServer) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.HTTP.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.HTTP.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"file": "is required"},
		})
		return
	}
	defer file.Close()

	logo, err := s.deps.Logos.UploadLogo(r.Context(), header.Filename, file)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, logo)
}

func (s *HTTPServer) handleInvoice(w http.ResponseWriter, r *http.Request) {
	booking, err := s.deps.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}

	var logoPath string
	if s.deps.LogoFiles != nil {
		logoPath, _ = s.deps.LogoFiles.LocalPath(s.deps.Logos.GetLogoURL(r.Context()))
	}

	pdf, err := s.deps.Invoices.Render(booking.Booking, booking.Financials, logoPath)
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.FileName(booking.Booking)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.deps.Bookings.All(r.Context())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}

	path, err := s.deps.Exporter.Bookings(r.Context(), bookings, s.deps.Bookings.Today())
	if err != nil {
		writeServiceError(w, s.log, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeServiceError(w, s.log, fmt.Errorf("open export: %w", err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeServiceError(w, s.log, fmt.Errorf("stat export: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
