package renderer

import (
	"fmt"
	"html"
	"strings"
	"time"

	"honors/models"
)

// Display names for event types on rendered output
var eventTypeNames = map[string]string{
	models.EventTypeCourse:        "Course Completion",
	models.EventTypeExam:          "Exam Achievement",
	models.EventTypeParticipation: "Participation",
	models.EventTypeCustom:        "Special Achievement",
}

// EventTypeName maps an event type to its display name
func EventTypeName(eventType string) string {
	if name, ok := eventTypeNames[eventType]; ok {
		return name
	}
	return "Achievement"
}

// FormatDate renders a long-form date, falling back to now
func FormatDate(t *time.Time) string {
	if t == nil {
		return time.Now().Format("January 2, 2006")
	}
	return t.Format("January 2, 2006")
}

// PreviewFieldValue resolves one template field for preview rendering.
// Static fields render their literal label; dynamic fields render the bound
// value, or a bracketed placeholder when none is supplied.
func PreviewFieldValue(field models.TemplateField, values map[string]string) string {
	if v, ok := values[field.Key]; ok && v != "" {
		return v
	}
	if field.Type == models.FieldTypeDynamic {
		name := field.Placeholder
		if name == "" {
			name = field.Key
		}
		return "[" + name + "]"
	}
	return field.Label
}

// achievement composes the title and detail lines for whichever detail
// block the honor carries. A missing block simply omits its section.
func achievement(h *models.Honor) (string, string) {
	switch {
	case h.Course != nil:
		course := h.Course.Data()
		title := course.Title
		if title == "" {
			title = "Course Completion"
		}
		duration := course.Duration
		if duration == "" {
			duration = "N/A"
		}
		details := fmt.Sprintf(`
      <p class="detail">Completed on: %s</p>
      <p class="detail">Duration: %s</p>`, FormatDate(course.CompletionDate), html.EscapeString(duration))
		return title, details
	case h.Exam != nil:
		exam := h.Exam.Data()
		title := exam.ExamTitle
		if title == "" {
			title = "Exam Achievement"
		}
		details := fmt.Sprintf(`
      <p class="detail">Score: %g/%g (%g%%)</p>
      <p class="detail">Rank: #%d</p>
      <p class="detail">Date: %s</p>`,
			exam.SecuredScore, exam.TotalScore, exam.Percentage, exam.Rank, FormatDate(exam.AttemptDate))
		return title, details
	case h.Participation != nil:
		part := h.Participation.Data()
		title := part.EventTitle
		if title == "" {
			title = "Event Participation"
		}
		location := part.Location
		if location == "" {
			location = "N/A"
		}
		details := fmt.Sprintf(`
      <p class="detail">Event Date: %s</p>
      <p class="detail">Location: %s</p>`, FormatDate(part.EventDate), html.EscapeString(location))
		return title, details
	case h.Badge != nil:
		badge := h.Badge.Data()
		title := badge.BadgeName
		if title == "" {
			title = "Achievement Badge"
		}
		criteria := badge.Criteria
		if criteria == "" {
			criteria = "N/A"
		}
		details := fmt.Sprintf(`
      <p class="detail">Level: %d</p>
      <p class="detail">Criteria: %s</p>`, badge.Level, html.EscapeString(criteria))
		return title, details
	}
	return "", ""
}

// BuildHTML maps (honor, pinned template snapshot) to a self-contained
// markup document. The layout family follows the honor type.
func BuildHTML(h *models.Honor, snap models.TemplateSnapshot) string {
	if h.HonorType == models.HonorTypeBadge {
		return buildBadgeHTML(h)
	}
	return buildCertificateHTML(h, snap)
}

func buildBadgeHTML(h *models.Honor) string {
	title, _ := achievement(h)
	recipient := h.Recipient.Data().Name
	if recipient == "" {
		recipient = "Recipient"
	}

	badgeName := title
	level := 1
	if h.Badge != nil {
		badge := h.Badge.Data()
		if badge.BadgeName != "" {
			badgeName = badge.BadgeName
		}
		if badge.Level > 0 {
			level = badge.Level
		}
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: 'Arial', sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      min-height: 400px;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      padding: 20px;
    }
    .badge-container {
      width: 300px;
      height: 300px;
      background: linear-gradient(145deg, #1a1a2e 0%, #16213e 100%);
      border-radius: 50%;
      display: flex;
      flex-direction: column;
      justify-content: center;
      align-items: center;
      text-align: center;
      padding: 30px;
      box-shadow: 0 20px 60px rgba(0,0,0,0.3), inset 0 2px 10px rgba(255,255,255,0.1);
      border: 4px solid #ffd700;
    }
    .badge-icon { font-size: 48px; margin-bottom: 10px; }
    .badge-name {
      color: #ffd700;
      font-size: 18px;
      font-weight: bold;
      margin-bottom: 8px;
      text-transform: uppercase;
      letter-spacing: 1px;
    }
    .recipient-name { color: #ffffff; font-size: 16px; margin-bottom: 5px; }
    .level { color: #00ff88; font-size: 14px; font-weight: bold; }
    .event-type { color: #aaa; font-size: 11px; margin-top: 10px; text-transform: uppercase; }
  </style>
</head>
<body>
  <div class="badge-container">
    <div class="badge-icon">&#127942;</div>
`)
	fmt.Fprintf(&b, "    <div class=\"badge-name\">%s</div>\n", html.EscapeString(badgeName))
	fmt.Fprintf(&b, "    <div class=\"recipient-name\">%s</div>\n", html.EscapeString(recipient))
	fmt.Fprintf(&b, "    <div class=\"level\">Level %d</div>\n", level)
	fmt.Fprintf(&b, "    <div class=\"event-type\">%s</div>\n", EventTypeName(h.EventType))
	b.WriteString(`  </div>
</body>
</html>
`)
	return b.String()
}

func buildCertificateHTML(h *models.Honor, snap models.TemplateSnapshot) string {
	eventType := EventTypeName(h.EventType)
	title, details := achievement(h)

	recipient := h.Recipient.Data().Name
	if recipient == "" {
		recipient = "Recipient Name"
	}

	signatureName := snap.Meta.SignatureBlock.Name
	if signatureName == "" {
		signatureName = "Director"
	}
	signatureTitle := snap.Meta.SignatureBlock.Designation
	if signatureTitle == "" {
		signatureTitle = "NexSAA Academy"
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: 'Georgia', serif;
      min-height: 100vh;
      display: flex;
      justify-content: center;
      align-items: center;
      background: #f5f5f5;
      padding: 20px;
    }
    .certificate {
      width: 800px;
      min-height: 600px;
      background: linear-gradient(135deg, #ffffff 0%, #f8f9fa 100%);
      border: 3px solid #1a365d;
      padding: 50px;
      position: relative;
      box-shadow: 0 10px 40px rgba(0,0,0,0.1);
    }
    .certificate::before {
      content: '';
      position: absolute;
      top: 10px; left: 10px; right: 10px; bottom: 10px;
      border: 2px solid #c9a227;
      pointer-events: none;
    }
    .header { text-align: center; margin-bottom: 30px; }
    .logo { font-size: 28px; color: #1a365d; font-weight: bold; letter-spacing: 3px; margin-bottom: 10px; }
    .title { font-size: 42px; color: #1a365d; text-transform: uppercase; letter-spacing: 5px; margin-bottom: 10px; }
    .subtitle { font-size: 16px; color: #666; font-style: italic; }
    .content { text-align: center; margin: 40px 0; }
    .presented-to { font-size: 14px; color: #888; text-transform: uppercase; letter-spacing: 2px; margin-bottom: 15px; }
    .recipient-name {
      font-size: 36px;
      color: #c9a227;
      font-weight: bold;
      margin-bottom: 20px;
      border-bottom: 2px solid #c9a227;
      display: inline-block;
      padding-bottom: 10px;
    }
    .achievement-title { font-size: 20px; color: #333; margin-bottom: 15px; }
    .detail { font-size: 14px; color: #666; margin: 5px 0; }
    .footer { display: flex; justify-content: space-between; margin-top: 50px; padding-top: 30px; }
    .signature-block { text-align: center; width: 200px; }
    .signature-line { border-top: 1px solid #333; padding-top: 10px; margin-top: 40px; }
    .signature-name { font-size: 14px; font-weight: bold; color: #333; }
    .signature-title { font-size: 12px; color: #666; }
    .date-block { text-align: center; }
    .issue-date { font-size: 14px; color: #666; }
    .seal {
      position: absolute;
      bottom: 60px; right: 60px;
      width: 80px; height: 80px;
      border: 3px solid #c9a227;
      border-radius: 50%;
      display: flex;
      justify-content: center;
      align-items: center;
      font-size: 12px;
      color: #c9a227;
      text-transform: uppercase;
      font-weight: bold;
    }
    .event-badge {
      background: #1a365d;
      color: white;
      padding: 5px 15px;
      font-size: 12px;
      text-transform: uppercase;
      letter-spacing: 1px;
      display: inline-block;
      margin-bottom: 20px;
    }
  </style>
</head>
<body>
  <div class="certificate">
    <div class="header">
      <div class="logo">NEXSAA</div>
      <div class="title">Certificate</div>
`)
	fmt.Fprintf(&b, "      <div class=\"subtitle\">of %s</div>\n", eventType)
	b.WriteString(`    </div>

    <div class="content">
`)
	fmt.Fprintf(&b, "      <div class=\"event-badge\">%s</div>\n", eventType)
	b.WriteString("      <div class=\"presented-to\">This is to certify that</div>\n")
	fmt.Fprintf(&b, "      <div class=\"recipient-name\">%s</div>\n", html.EscapeString(recipient))
	fmt.Fprintf(&b, "      <div class=\"achievement-title\">%s</div>\n", html.EscapeString(title))
	b.WriteString(details)
	b.WriteString(`
    </div>

    <div class="footer">
      <div class="signature-block">
        <div class="signature-line">
`)
	fmt.Fprintf(&b, "          <div class=\"signature-name\">%s</div>\n", html.EscapeString(signatureName))
	fmt.Fprintf(&b, "          <div class=\"signature-title\">%s</div>\n", html.EscapeString(signatureTitle))
	b.WriteString(`        </div>
      </div>
      <div class="date-block">
`)
	fmt.Fprintf(&b, "        <div class=\"issue-date\">Issued on: %s</div>\n", FormatDate(&h.CreatedAt))
	fmt.Fprintf(&b, "        <div class=\"issue-date\">Certificate ID: %s</div>\n", h.PublicSlug)
	b.WriteString(`      </div>
    </div>

    <div class="seal">VERIFIED</div>
  </div>
</body>
</html>
`)
	return b.String()
}
