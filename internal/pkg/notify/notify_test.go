package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/pkg/email"
)

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func TestDispatcher_GradeUpdated(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, nil, 0, zerolog.Nop())

	ev := GradeEvent{StudentID: 4, StudentEmail: "sam@uni.test", StudentName: "Sam Lee", CourseCode: "CS201", ClassNumber: 2, Grade: "85.50"}
	require.NoError(t, d.GradeUpdated(context.Background(), ev))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "sam@uni.test", msg.To)
	assert.Equal(t, "Grade Updated Notification", msg.Subject)
	assert.Contains(t, msg.Text, "CS201")
	assert.Contains(t, msg.Text, "class 2")
	assert.Contains(t, msg.Text, "85.50")
}

func TestDispatcher_MailerFailure(t *testing.T) {
	d := NewDispatcher(&fakeMailer{err: errors.New("relay down")}, nil, 0, zerolog.Nop())
	err := d.GradeUpdated(context.Background(), GradeEvent{StudentEmail: "sam@uni.test"})
	assert.ErrorContains(t, err, "relay down")
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "student_notifications:12", Channel(12))

	id, err := StudentIDFromChannel(Channel(12))
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = StudentIDFromChannel("user_notifications:12")
	assert.Error(t, err)
	_, err = StudentIDFromChannel("student_notifications:abc")
	assert.Error(t, err)
}

type fakeFeed struct {
	studentID int64
	payload   []byte
}

func (f *fakeFeed) Publish(_ context.Context, studentID int64, payload []byte) error {
	f.studentID, f.payload = studentID, payload
	return nil
}

func TestDispatcher_LiveFeedWithoutRedis(t *testing.T) {
	feed := &fakeFeed{}
	d := NewDispatcher(&fakeMailer{}, nil, 0, zerolog.Nop()).WithLiveFeed(feed)

	require.NoError(t, d.GradeUpdated(context.Background(), GradeEvent{StudentID: 7, Grade: "90.00"}))
	assert.Equal(t, int64(7), feed.studentID)
	assert.Contains(t, string(feed.payload), `"grade":"90.00"`)
}
