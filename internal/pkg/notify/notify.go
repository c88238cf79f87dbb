// Package notify tells students that a grade was posted.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/pkg/email"
)

// GradeSubject is the subject line of grade emails
const GradeSubject = "Grade Updated Notification"

// GradeEvent describes a posted grade
type GradeEvent struct {
	EnrolmentID  int64     `json:"enrolment_id"`
	StudentID    int64     `json:"student_id"`
	StudentEmail string    `json:"student_email"`
	StudentName  string    `json:"student_name"`
	CourseCode   string    `json:"course_code"`
	ClassNumber  int       `json:"class_number"`
	Grade        string    `json:"grade"`
	GradedAt     time.Time `json:"graded_at"`
}

const channelPrefix = "student_notifications:"

// ChannelPattern matches every student's channel
const ChannelPattern = channelPrefix + "*"

// Channel returns the Redis channel a student's events are published on
func Channel(studentID int64) string {
	return channelPrefix + strconv.FormatInt(studentID, 10)
}

// StudentIDFromChannel is the inverse of Channel
func StudentIDFromChannel(channel string) (int64, error) {
	raw, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return 0, fmt.Errorf("not a student notification channel: %q", channel)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad student id in channel %q", channel)
	}
	return id, nil
}

// LiveFeed delivers events to students connected right now
type LiveFeed interface {
	Publish(ctx context.Context, studentID int64, payload []byte) error
}

// GradeBody renders the plain-text email body
func GradeBody(ev GradeEvent) string {
	return fmt.Sprintf("Dear %s,\n\nYour grade for %s class %d has been updated to %s.\n",
		ev.StudentName, ev.CourseCode, ev.ClassNumber, ev.Grade)
}

// Dispatcher emails the student and, when a Redis client is set, publishes
// the event for live listeners.
type Dispatcher struct {
	mailer  email.Mailer
	redis   *redis.Client
	live    LiveFeed
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDispatcher creates a Dispatcher. redisClient may be nil.
func NewDispatcher(mailer email.Mailer, redisClient *redis.Client, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, redis: redisClient, timeout: timeout, logger: logger}
}

// WithLiveFeed makes the dispatcher hand events straight to feed when no Redis
// client is configured. With Redis the feed is fed by a subscriber instead.
func (d *Dispatcher) WithLiveFeed(feed LiveFeed) *Dispatcher {
	d.live = feed
	return d
}

// GradeUpdated delivers ev on every configured channel. Both deliveries are
// attempted; their failures are joined.
func (d *Dispatcher) GradeUpdated(ctx context.Context, ev GradeEvent) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var errs []error
	if ev.StudentEmail != "" {
		err := d.mailer.Send(ctx, email.Message{
			To:      ev.StudentEmail,
			ToName:  ev.StudentName,
			Subject: GradeSubject,
			Text:    GradeBody(ev),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("send grade email: %w", err))
		}
	}

	if d.redis != nil || d.live != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			if d.redis != nil {
				err = d.redis.Publish(ctx, Channel(ev.StudentID), payload).Err()
			} else {
				err = d.live.Publish(ctx, ev.StudentID, payload)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("publish grade event: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	d.logger.Debug().Int64("enrolmentID", ev.EnrolmentID).Int64("studentID", ev.StudentID).Msg("Grade notification sent")
	return nil
}
