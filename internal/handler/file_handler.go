package handler

import (
	"net/http"

	"parley/internal/app/storage"
	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/randx"
	"parley/internal/pkg/req"
	"parley/internal/pkg/resp"
)

// HandleAttachmentUpload accepts a multipart file, runs it through the
// attachment resolver, and returns the url/metadata triple a client then
// sends inside a chatMessage event.
func HandleAttachmentUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")

		if customErr := storage.ValidateAttachment(header.Filename, mimeType, header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		attachment, err := deps.Storage.UploadAttachment(r.Context(), header.Filename, mimeType, header.Size, file)
		if err != nil {
			logx.Error(err, "Attachment upload failed", "file_name", header.Filename)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, attachment)
	}
}

// HandleAvatarUpload accepts a multipart image plus a username, runs it
// through the avatar resolver, and records the resulting URL on the active
// store backend.
func HandleAvatarUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		username := r.FormValue("username")
		if !randx.IsValidUsername(username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUsernameInvalid))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")

		if customErr := storage.ValidateAvatar(header.Filename, mimeType, header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		url, err := deps.Storage.UploadAvatar(r.Context(), username, header.Filename, mimeType, header.Size, file)
		if err != nil {
			logx.Error(err, "Avatar upload failed", "username", username)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		if err := deps.Service.SetAvatar(r.Context(), username, url); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"username": username,
			"avatar":   url,
		})
	}
}
