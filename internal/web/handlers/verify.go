package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/verify"
)

// Verifier runs the verification pipeline.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) (verify.Outcome, error)
}

// VerifyHandler handles identity verification uploads.
type VerifyHandler struct {
	verifier  Verifier
	maxUpload int64
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(v Verifier) *VerifyHandler {
	return &VerifyHandler{verifier: v, maxUpload: constants.MaxUploadSize}
}

// Verify accepts a profile image and a live video and returns the verification outcome.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(min(h.maxUpload, constants.MultipartMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondStatusError(w, http.StatusRequestEntityTooLarge, "Upload too large", constants.ErrorCodeTooLarge, "")
			return
		}
		slog.Warn("verify handler: invalid multipart form", "error", err)
		respondStatusError(w, http.StatusBadRequest, verify.ErrMissingFiles.Message, verify.ErrMissingFiles.Code, "")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("verify handler: removing multipart temp files failed", "error", err)
		}
	}()

	profile, profileName := formFile(r, constants.ProfileImageField)
	if profile != nil {
		defer profile.Close()
	}
	video, videoName := formFile(r, constants.LiveVideoField)
	if video != nil {
		defer video.Close()
	}

	req := verify.Request{
		ProfileName: profileName,
		Profile:     profile,
		VideoName:   videoName,
		Video:       video,
	}

	slog.Info("verify handler: request received",
		"profile", sanitizeForLog(profileName), "video", sanitizeForLog(videoName))

	out, err := h.verifier.Verify(r.Context(), req)
	if ctxErr := r.Context().Err(); ctxErr != nil {
		// The timeout middleware answers expired requests itself.
		slog.Warn("verify handler: request ended before response", "error", ctxErr, "verify_error", err)
		return
	}
	if err != nil {
		var clientErr *verify.ClientError
		var internalErr *verify.InternalError
		switch {
		case errors.As(err, &clientErr):
			respondStatusError(w, http.StatusBadRequest, clientErr.Message, clientErr.Code, "")
		case errors.As(err, &internalErr):
			respondStatusError(w, http.StatusInternalServerError, "Internal server error", constants.ErrorCodeVerification, internalErr.IncidentID)
		default:
			slog.Error("verify handler: unclassified error", "error", err)
			respondStatusError(w, http.StatusInternalServerError, "Internal server error", constants.ErrorCodeVerification, "")
		}
		return
	}

	respondJSON(w, http.StatusOK, out)
}

// formFile returns the named upload and its client filename, or nil when absent.
func formFile(r *http.Request, field string) (multipart.File, string) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, ""
	}
	return file, header.Filename
}
