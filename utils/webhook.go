package utils

import (
	"fmt"
	"log"

	"honors/config"
	"honors/models"

	"github.com/go-resty/resty/v2"
)

// NotifyAssetsReady POSTs a completion event to the configured webhook.
// No-op when WEBHOOK_URL is unset.
func NotifyAssetsReady(honor *models.Honor) error {
	if config.AppConfig == nil || config.AppConfig.WebhookURL == "" {
		return nil
	}
	url := config.AppConfig.WebhookURL

	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"event":       "honor.assets_ready",
			"honor_id":    honor.ID,
			"public_slug": honor.PublicSlug,
			"client_id":   honor.ClientID,
			"honor_type":  honor.HonorType,
		}).
		Post(url)
	if err != nil {
		log.Printf("Error sending assets-ready webhook for honor %d: %v", honor.ID, err)
		return err
	}
	if resp.StatusCode() >= 300 {
		log.Printf("Assets-ready webhook for honor %d returned %d", honor.ID, resp.StatusCode())
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
