package ask

import (
	"context"
)

// Silent answers yes to every question and never prompts.
type Silent struct {
	opts Options
}

var _ Port = (*Silent)(nil)

func NewSilent(opts Options) *Silent {
	return &Silent{opts: opts}
}

func (s *Silent) AskYesNo(ctx context.Context, question, label string, def Answer) (bool, error) {
	s.opts.logger().Debug("question answered yes", "question", question)
	return true, nil
}

func (s *Silent) PromptText(ctx context.Context, label string, show bool, initial string) (string, error) {
	return "", ErrNoInteraction
}

func (s *Silent) SelectFile(ctx context.Context, title string) (string, error) {
	return "", ErrNoInteraction
}

func (s *Silent) Inform(ctx context.Context, text string) {
	s.opts.logger().Debug("info", "text", text)
}

func (s *Silent) Warn(ctx context.Context, text string) {
	s.opts.logger().Warn(text)
}
