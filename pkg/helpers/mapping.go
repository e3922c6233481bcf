package helpers

import (
	"fmt"
	"strings"

	"github.com/Malcolm-Mukorera/campus-events-api/pkg/mailer"
)

// NormalizeEmailJob fills the template data every email needs and lower-cases
// the template name so producers and the worker agree on keys.
func NormalizeEmailJob(job *mailer.EmailJob, appName, appURL string) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	job.Template = strings.ToLower(strings.TrimSpace(job.Template))
	setDefault(job.Data, "RecipientEmail", job.To)
	setDefault(job.Data, "AppName", appName)
	setDefault(job.Data, "AppURL", appURL)
}

func setDefault(data map[string]any, key, value string) {
	if v, ok := data[key]; !ok || fmt.Sprintf("%v", v) == "" {
		data[key] = value
	}
}
