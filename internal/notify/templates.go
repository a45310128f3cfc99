// Package notify renders the admissions notifications and share links.
package notify

import (
	"fmt"
	"regexp"
	"strings"

	"admissions-workers/internal/models"
	"admissions-workers/internal/prompt"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Render substitutes {{name}} placeholders. Unknown names render empty.
func Render(template string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		return vars[name]
	})
}

// DefaultInsights stand in for a result without key insights.
const DefaultInsights = "Small Classes • STEAM Excellence • Athletic Champions"

var Templates = map[string]models.NotificationTemplate{
	models.NotificationAdmissionsLead: {
		Type:    models.NotificationAdmissionsLead,
		Subject: "New tour match: {{familyName}} ({{gradeLevel}})",
		Body: "A family just completed the personalized quiz.\n\n" +
			"Family: {{familyName}}\n" +
			"Email: {{recipientEmail}}\n" +
			"Grade level: {{gradeLevel}}\n" +
			"Interests: {{interests}}\n" +
			"Family values: {{familyValues}}\n" +
			"Timeline: {{timeline}}\n" +
			"Match score: {{matchScore}} ({{provider}})\n\n" +
			"Key insights:\n{{keyInsights}}\n\n" +
			"Session: {{sessionId}}",
	},
	models.NotificationPartnerShare: {
		Type:    models.NotificationPartnerShare,
		Subject: "Check out this school match for our child",
		Body: "I just took the SSES personalized quiz and found some amazing matches for our child!\n\n" +
			"Key strengths identified:\n{{keyInsights}}\n\n" +
			"Take the quiz yourself: {{quizLink}}",
	},
	models.NotificationTourConfirmation: {
		Type:    models.NotificationTourConfirmation,
		Subject: "Your personalized tour at {{schoolName}}",
		Body: "Hi {{familyName}},\n\n" +
			"Thank you for telling us about your {{gradeLabel}} student. " +
			"We matched you with {{storyCount}} student stories and {{facultyCount}} faculty members you can meet on your visit.\n\n" +
			"Book your tour: {{bookingLink}}\n\n" +
			"We look forward to meeting you.",
	},
}

// SMSTemplate alerts the admissions phone about families starting this year.
const SMSTemplate = "{{schoolName}}: {{familyName}} ({{gradeLevel}}) wants to start this year. Match {{matchScore}}. Session {{sessionId}}"

// Context carries everything a template can reference.
type Context struct {
	SchoolName     string
	SiteURL        string
	FamilyName     string
	RecipientEmail string
	SessionID      string
	Quiz           *models.QuizResponse
	Analysis       *models.AnalysisResult
}

// Vars flattens c into template variables.
func (c Context) Vars() map[string]string {
	site := strings.TrimRight(c.SiteURL, "/")
	vars := map[string]string{
		"schoolName":     c.SchoolName,
		"familyName":     orDefault(c.FamilyName, "A prospective family"),
		"recipientEmail": orDefault(c.RecipientEmail, "not provided"),
		"sessionId":      orDefault(c.SessionID, "n/a"),
		"quizLink":       site + "/quiz",
		"bookingLink":    site + "/booking",
		"keyInsights":    DefaultInsights,
		"storyCount":     "0",
		"facultyCount":   "0",
		"matchScore":     "n/a",
		"provider":       "n/a",
	}

	if c.Quiz != nil {
		vars["gradeLevel"] = c.Quiz.GradeLevel
		vars["gradeLabel"] = prompt.GradeLabel(c.Quiz.GradeLevel)
		vars["interests"] = orDefault(strings.Join(c.Quiz.Interests, ", "), "none selected")
		vars["familyValues"] = orDefault(strings.Join(c.Quiz.FamilyValues, ", "), "none selected")
		vars["timeline"] = orDefault(c.Quiz.Timeline, "not specified")
	}

	if c.Analysis != nil {
		if len(c.Analysis.KeyInsights) > 0 {
			vars["keyInsights"] = strings.Join(c.Analysis.KeyInsights, "\n")
		}
		vars["matchScore"] = fmt.Sprintf("%d%%", c.Analysis.MatchScore)
		vars["provider"] = c.Analysis.Provider
		vars["storyCount"] = fmt.Sprintf("%d", len(c.Analysis.MatchedStories))
		vars["facultyCount"] = fmt.Sprintf("%d", len(c.Analysis.MatchedFaculty))
	}
	return vars
}

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// RenderNotification renders the template for notificationType.
func RenderNotification(notificationType string, c Context) (Message, error) {
	tpl, ok := Templates[notificationType]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification type %q", notificationType)
	}
	vars := c.Vars()
	return Message{Subject: Render(tpl.Subject, vars), Body: Render(tpl.Body, vars)}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
