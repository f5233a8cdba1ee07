// Package upload validates policy documents locally and sends them to the
// backend for analysis, reporting staged progress.
package upload

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"policymitr-client/internal/api"
	"policymitr-client/internal/models"
)

const (
	SuccessNotice = "Policy processed successfully!"
	FailureNotice = "Upload failed. Make sure the backend is running."
)

// Backend is the upload endpoint of the backend API.
type Backend interface {
	UploadDocument(ctx context.Context, in models.UploadRequest) (*models.DocumentDetail, error)
}

type Notifier interface {
	Error(message string)
	Success(message string)
}

type Uploader struct {
	backend   Backend
	notifier  Notifier
	interval  time.Duration
	inspected func(FileInfo)
}

func NewUploader(backend Backend, notifier Notifier) *Uploader {
	return &Uploader{backend: backend, notifier: notifier, interval: DefaultStepInterval}
}

// OnInspected registers fn to receive the file's details once it passes the
// local checks, before anything is sent.
func (u *Uploader) OnInspected(fn func(FileInfo)) {
	u.inspected = fn
}

// Upload checks the file, then uploads it while reporting progress. The
// title defaults to the file name.
func (u *Uploader) Upload(ctx context.Context, in models.UploadRequest, report func(Step)) (*models.DocumentDetail, error) {
	info, err := Inspect(in.FilePath)
	if err != nil {
		u.notifyError(err.Error())
		return nil, err
	}
	if u.inspected != nil {
		u.inspected(*info)
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = info.Name
	}

	var doc *models.DocumentDetail
	err = trackProgress(ctx, u.interval, report, func() error {
		var err error
		doc, err = u.backend.UploadDocument(ctx, in)
		return err
	})
	if err != nil {
		log.Printf("upload: %s failed: %v", info.Name, err)
		u.notifyError(failureDetail(err))
		return nil, err
	}

	log.Printf("✓ Uploaded %s as policy %s", info.Name, doc.ID)
	if u.notifier != nil {
		u.notifier.Success(SuccessNotice)
	}
	return doc, nil
}

func (u *Uploader) notifyError(msg string) {
	if u.notifier != nil {
		u.notifier.Error(msg)
	}
}

// failureDetail prefers the backend's own message over the generic notice.
func failureDetail(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FailureNotice
}
