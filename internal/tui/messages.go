package tui

import (
	"errors"
	"fmt"
	"strings"

	"chemviz/internal/api"
	"chemviz/internal/dataset"
	"chemviz/internal/export"
	"chemviz/internal/upload"
)

type authResultMsg struct {
	username string
	register bool
	err      error
}

type refreshResultMsg struct{ err error }

type uploadResultMsg struct{ err error }

type exportResultMsg struct {
	paths []string
	err   error
}

type spinMsg struct{}

// UserMessage maps every typed failure to its own user-facing line.
// Swallowing an error, or collapsing kinds into one generic message, is a
// defect; each branch here is deliberately distinct. The scripted
// subcommands print the same lines the TUI status bar shows.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *api.ValidationError
	if errors.As(err, &ve) {
		if ve.Field != "" && len(ve.Messages) > 0 {
			return fmt.Sprintf("%s error: %s", capitalize(ve.Field), strings.Join(ve.Messages, ", "))
		}
		return "Registration failed. Please try again."
	}

	switch {
	case errors.Is(err, upload.ErrNoFile):
		return "Select a CSV file first."
	case errors.Is(err, upload.ErrNotCSV):
		return "Only .csv files can be uploaded."
	case errors.Is(err, upload.ErrNoCredential):
		return "Log in before uploading."
	case errors.Is(err, upload.ErrBusy):
		return "An upload is already in progress."
	case errors.Is(err, dataset.ErrNotFound):
		return "That dataset is no longer in the list."
	case errors.Is(err, export.ErrExportFailed):
		return "Failed to export the PDF report."
	}

	var ae *api.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case api.KindUnauthorized:
			return "Invalid username or password."
		case api.KindServerError:
			return "Server error occurred. Please try again later."
		case api.KindMalformedResponse:
			return "Unexpected server response. Please try again."
		case api.KindNetworkFailure:
			return "Network error: cannot reach the server. Is the backend running?"
		case api.KindRejected:
			if ae.Detail != "" {
				return fmt.Sprintf("Upload rejected: %s", ae.Detail)
			}
			return "The server rejected the request."
		}
	}

	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
