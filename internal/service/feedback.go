package service

import (
	"context"
	"fmt"
)

// FeedbackService forwards user feedback to the operator mailbox.
type FeedbackService struct {
	reporter Reporter
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(reporter Reporter) *FeedbackService {
	return &FeedbackService{reporter: reporter}
}

// Submit sends text on behalf of the logged-in user.
func (s *FeedbackService) Submit(ctx context.Context, sess *Session, text string) error {
	if err := requireLogin(sess); err != nil {
		return err
	}
	if err := s.reporter.SendFeedback(ctx, sess.Email(), text); err != nil {
		return fmt.Errorf("send feedback: %w", err)
	}
	return nil
}
