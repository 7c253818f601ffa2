package services

import (
	"testing"
	"time"

	"github.com/hokaccha/workhub-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Now()
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	agoPtr := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name     string
		read     bool
		viewedAt *time.Time
		created  time.Time
		want     Bucket
	}{
		{"unread never viewed, fresh", false, nil, ago(time.Hour), BucketNew},
		{"unread never viewed, 29 days", false, nil, ago(29 * 24 * time.Hour), BucketNew},
		{"unread never viewed, over 30 days", false, nil, ago(31 * 24 * time.Hour), BucketNone},
		{"read but never viewed", true, nil, ago(time.Hour), BucketNone},

		{"unread viewed recently", false, agoPtr(time.Hour), ago(2 * time.Hour), BucketNew},
		{"unread viewed 6 days ago", false, agoPtr(6 * 24 * time.Hour), ago(10 * 24 * time.Hour), BucketNew},
		{"unread viewed 10 days ago", false, agoPtr(10 * 24 * time.Hour), ago(12 * 24 * time.Hour), BucketEarlier},
		{"unread viewed 40 days ago", false, agoPtr(40 * 24 * time.Hour), ago(41 * 24 * time.Hour), BucketNone},

		{"read viewed an hour ago", true, agoPtr(time.Hour), ago(2 * time.Hour), BucketNew},
		{"read viewed 2 days ago", true, agoPtr(2 * 24 * time.Hour), ago(3 * 24 * time.Hour), BucketEarlier},
		{"read viewed 10 days ago", true, agoPtr(10 * 24 * time.Hour), ago(12 * 24 * time.Hour), BucketNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := &models.Notification{
				Read:      tc.read,
				ViewedAt:  tc.viewedAt,
				CreatedAt: tc.created,
			}
			assert.Equal(t, tc.want, Classify(n, now))
		})
	}
}
