package ui

// SceneStyle hints how a narrative scene should be rendered.
type SceneStyle int

const (
	StyleNeutral SceneStyle = iota
	StyleInfo
	StyleSuccess
	StyleWarning
)

// Port is the presentation surface the progression core talks to.
// PromptChoice returns the selected index and true, or false when the
// host is non-interactive or the user abandoned the prompt; callbacks
// must handle both without losing state-machine integrity.
type Port interface {
	PresentScene(title string, paragraphs []string, style SceneStyle)
	PromptChoice(title, description string, choices []string) (int, bool)
}

// Null is a Port for headless runs: scenes are dropped and every prompt
// reports non-interactive, so callbacks defer outcomes to explicit
// engine calls.
type Null struct{}

func (Null) PresentScene(title string, paragraphs []string, style SceneStyle) {}

func (Null) PromptChoice(title, description string, choices []string) (int, bool) {
	return 0, false
}

// Scripted is a test Port that records scenes and replays queued choices.
type Scripted struct {
	Scenes  []ScenePresentation
	Choices []int
}

type ScenePresentation struct {
	Title      string
	Paragraphs []string
	Style      SceneStyle
}

func (s *Scripted) PresentScene(title string, paragraphs []string, style SceneStyle) {
	s.Scenes = append(s.Scenes, ScenePresentation{Title: title, Paragraphs: paragraphs, Style: style})
}

func (s *Scripted) PromptChoice(title, description string, choices []string) (int, bool) {
	if len(s.Choices) == 0 {
		return 0, false
	}
	choice := s.Choices[0]
	s.Choices = s.Choices[1:]
	return choice, true
}
