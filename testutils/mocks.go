package testutils

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockMailService struct {
	mock.Mock
}

func (m *MockMailService) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error {
	args := m.Called(templateName, to, subject, data)
	return args.Error(0)
}

// SentMail is one message captured by RecordingMailer.
type SentMail struct {
	Template string
	To       []string
	Subject  string
	Data     map[string]any
}

// RecordingMailer captures every message so tests can read back the code
// that was dispatched. Setting Err makes every send fail.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (r *RecordingMailer) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, SentMail{Template: templateName, To: to, Subject: subject, Data: data})
	return nil
}

// LastCode returns the OTP carried by the most recent message to email.
func (r *RecordingMailer) LastCode(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.Sent) - 1; i >= 0; i-- {
		for _, to := range r.Sent[i].To {
			if to == email {
				code, _ := r.Sent[i].Data["Code"].(string)
				return code
			}
		}
	}
	return ""
}

func (r *RecordingMailer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Sent)
}
