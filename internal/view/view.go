// Package view renders the HTML pages and the fragments patched in over
// datastar server-sent events. Components are written in templ; run
// `templ generate` after editing a .templ file.
package view

//go:generate templ generate

import (
	"encoding/base64"
	"strings"

	"github.com/msomdec/fraudshield/internal/domain"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Fragment target ids.
const (
	ResultID   = "result"
	ReportID   = "report-status"
	FeedbackID = "feedback-panel"
)

// Nav describes the signed-in user for the page header. A zero Nav renders
// the anonymous header.
type Nav struct {
	DisplayName string
	Active      string
}

type navItem struct {
	Path, Label string
}

var navItems = []navItem{
	{"/welcome", "Home"},
	{"/analyze", "Analyze Call"},
	{"/transcribe", "Transcribe"},
	{"/feedback", "Feedback"},
}

// LoginForm holds the values echoed back after a failed login.
type LoginForm struct {
	Email string
	Error string
	Info  string
}

// RegisterForm holds the values echoed back after a failed registration.
type RegisterForm struct {
	DisplayName string
	Email       string
	Error       string
}

func badgeClass(c domain.Classification) string {
	if c == domain.ClassificationUnclear {
		return "badge-unclear"
	}
	return "badge-" + strings.ToLower(string(c))
}

func audioSrc(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// postForm is a datastar action that submits the enclosing form to path.
func postForm(path string) string {
	return "@post('" + path + "', {contentType: 'form'})"
}
