package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
)

func TestNormalizeEmailJob(t *testing.T) {
	job := &mailer.EmailJob{To: "ada@uni.ac.uk", Template: "  Welcome "}
	NormalizeEmailJob(job, "Campus Events", "https://events.example")

	assert.Equal(t, "welcome", job.Template)
	assert.Equal(t, "ada@uni.ac.uk", job.Data["RecipientEmail"])
	assert.Equal(t, "Campus Events", job.Data["AppName"])
	assert.Equal(t, "https://events.example", job.Data["AppURL"])
}

func TestNormalizeEmailJob_KeepsProducerValues(t *testing.T) {
	job := &mailer.EmailJob{To: "a@b.c", Data: map[string]any{"AppName": "Other", "AppURL": ""}}
	NormalizeEmailJob(job, "Campus Events", "https://events.example")

	assert.Equal(t, "Other", job.Data["AppName"])
	assert.Equal(t, "https://events.example", job.Data["AppURL"])
}
