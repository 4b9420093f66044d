package domain

// Screen is one node of the navigation state machine.
type Screen string

const (
	ScreenLoginOrRegister Screen = "login"
	ScreenWelcome         Screen = "welcome"
	ScreenAnalyze         Screen = "analyze"
	ScreenTranscribe      Screen = "transcribe"
	ScreenFeedback        Screen = "feedback"
)

// RequiresAuth reports whether the screen is only reachable after login.
func (s Screen) RequiresAuth() bool {
	switch s {
	case ScreenWelcome, ScreenAnalyze, ScreenTranscribe, ScreenFeedback:
		return true
	}
	return false
}

// Valid reports whether s names a known screen.
func (s Screen) Valid() bool {
	return s == ScreenLoginOrRegister || s.RequiresAuth()
}

// AnalysisResult is the outcome of one analyse request, cached in the
// session by file name.
type AnalysisResult struct {
	FileName       string
	Classification Classification
	Reason         string
	Audio          []byte // Normalized audio for playback
	MIMEType       string
	Cropped        bool
	Saved          bool
}

// TranscriptionResult is the outcome of one transcribe request.
type TranscriptionResult struct {
	FileName string
	Text     string
	NoSpeech bool
	Failed   bool
	Audio    []byte
	MIMEType string
	Cropped  bool
}
