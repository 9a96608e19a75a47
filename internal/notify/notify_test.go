package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	netmail "net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/mail"
	"eventhub/internal/queue"
)

type staticRecipients struct {
	addrs []netmail.Address
	err   error
}

func (s staticRecipients) ActiveRecipients(context.Context) ([]netmail.Address, error) {
	return s.addrs, s.err
}

type failingMailer struct {
	failFor string
	sent    []mail.Message
}

func (f *failingMailer) Send(_ context.Context, msg mail.Message) error {
	if msg.To[0].Address == f.failFor {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nextMessage(t *testing.T, q *queue.InMemory) queue.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message published")
		return queue.Message{}
	}
}

func TestUserApprovedEndToEnd(t *testing.T) {
	q := queue.NewInMemory(4)
	pub := NewPublisher(q)
	require.NoError(t, pub.UserApproved(context.Background(), UserApproved{
		UserID: "u1", Email: "ana@campus.edu", FullName: "Ana Cruz", Role: "student",
	}))

	msg := nextMessage(t, q)
	assert.Equal(t, KindUserApproved, msg.Type)

	console := mail.NewConsole(quietLogger())
	w := NewWorker(console, staticRecipients{}, quietLogger())
	require.NoError(t, w.Handle(context.Background(), msg))

	sent := console.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Account Approved", sent[0].Subject)
	assert.Equal(t, "ana@campus.edu", sent[0].To[0].Address)
	assert.Contains(t, sent[0].Text, "approved as a student")
	assert.Contains(t, sent[0].HTML, "Dear Ana Cruz")
}

func TestEventApprovedContinuesPastFailures(t *testing.T) {
	q := queue.NewInMemory(4)
	pub := NewPublisher(q)
	require.NoError(t, pub.EventApproved(context.Background(), EventApproved{
		EventID: "e1", Title: "Hackathon <2026>", Description: "Build things", Location: "Gym",
		Date: time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC),
	}))
	msg := nextMessage(t, q)

	mailer := &failingMailer{failFor: "bad@campus.edu"}
	w := NewWorker(mailer, staticRecipients{addrs: []netmail.Address{
		{Address: "a@campus.edu"}, {Address: "bad@campus.edu"}, {Address: "b@campus.edu"},
	}}, quietLogger())

	require.NoError(t, w.Handle(context.Background(), msg))
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "New Event Approved: Hackathon <2026>", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTML, "Hackathon &lt;2026&gt;")
	assert.Contains(t, mailer.sent[0].Text, "Tuesday, November 3, 2026 09:00 AM")
}

func TestHandleErrors(t *testing.T) {
	w := NewWorker(mail.NewConsole(quietLogger()), staticRecipients{err: errors.New("db down")}, quietLogger())

	assert.Error(t, w.Handle(context.Background(), queue.Message{Type: KindUserApproved, Body: []byte("{")}))
	assert.Error(t, w.Handle(context.Background(), queue.Message{Type: KindEventApproved, Body: []byte(`{"title":"x"}`)}))
	assert.NoError(t, w.Handle(context.Background(), queue.Message{Type: "something.else"}))
}

func TestWorkerRunStopsWithContext(t *testing.T) {
	q := queue.NewInMemory(1)
	w := NewWorker(mail.NewConsole(quietLogger()), staticRecipients{}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, q) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
