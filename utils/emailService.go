package utils

import (
	"fmt"
	"honors/config"
	"net/smtp"
	"strings"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: NexSAA Honors <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// SendHonorReadyEmail notifies a recipient that their certificate or badge
// is rendered and viewable. Skipped when no sender is configured.
func SendHonorReadyEmail(email, name, honorType, slug string) error {
	if config.AppConfig == nil || config.AppConfig.EmailSender == "" {
		return nil
	}

	subject := fmt.Sprintf("Your %s is ready - NexSAA", honorType)

	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);">
					<h2 style="color: #1a365d; text-align: center;">Congratulations, %s!</h2>
					<p style="font-size: 16px; color: #555555; text-align: center;">Your %s has been issued and is ready to view.</p>
					<h1 style="text-align: center; color: #c9a227; font-size: 28px; margin: 20px 0;">%s</h1>
					<p style="font-size: 14px; color: #999999; text-align: center;">Use this ID to verify your %s at any time.</p>
					<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 30px;">NexSAA Honors</p>
				</div>
			</body>
		</html>
	`, name, honorType, slug, honorType)

	return SendEmail([]string{email}, subject, body)
}
