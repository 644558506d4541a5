package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
)

// asyncMailer records sends from queue workers.
type asyncMailer struct {
	mu    sync.Mutex
	sent  []string
	fails int
	done  chan struct{}
}

func (m *asyncMailer) Send(_ context.Context, _, toEmail, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return assert.AnError
	}
	m.sent = append(m.sent, toEmail)
	m.done <- struct{}{}
	return nil
}

func (m *asyncMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

func notifierFixture(t *testing.T, mail *asyncMailer) *GuideNotifier {
	t.Helper()
	g1 := approvedGuide("guide-1")
	g1.Email = "one@example.com"
	g2 := approvedGuide("guide-2")
	g2.Email = "two@example.com"
	guides := newMockGuideStore(g1, g2)
	n := NewGuideNotifier(guides, mail, config.JobsConfig{
		Workers:    2,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	}, nil)
	n.Start(context.Background())
	t.Cleanup(n.Stop)
	return n
}

func waitFor(t *testing.T, done chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for mail delivery")
		}
	}
}

func TestGuideNotifierFansOutMail(t *testing.T) {
	mail := &asyncMailer{done: make(chan struct{}, 4)}
	n := notifierFixture(t, mail)

	n.NotifyGuides(&models.GuideAnnouncement{
		ID:       "ann-1",
		Title:    "Review meeting",
		Message:  "Friday 10am",
		GuideIDs: []string{"guide-1", "guide-2"},
	})
	waitFor(t, mail.done, 2)

	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, mail.recipients())
}

func TestGuideNotifierSkipsUnknownGuides(t *testing.T) {
	mail := &asyncMailer{done: make(chan struct{}, 4)}
	n := notifierFixture(t, mail)

	n.NotifyGuides(&models.GuideAnnouncement{
		ID:       "ann-2",
		Title:    "Hello",
		Message:  "World",
		GuideIDs: []string{"guide-missing", "guide-1"},
	})
	waitFor(t, mail.done, 1)

	require.Equal(t, []string{"one@example.com"}, mail.recipients())
}

func TestGuideNotifierRetriesFailedDelivery(t *testing.T) {
	mail := &asyncMailer{done: make(chan struct{}, 4), fails: 1}
	n := notifierFixture(t, mail)

	n.NotifyGuides(&models.GuideAnnouncement{
		ID:       "ann-3",
		Title:    "Retry me",
		Message:  "Please",
		GuideIDs: []string{"guide-2"},
	})
	waitFor(t, mail.done, 1)

	assert.Equal(t, []string{"two@example.com"}, mail.recipients())
}
