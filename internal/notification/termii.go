package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/utils"

	"go.uber.org/zap"
)

const termiiBaseURL = "https://api.ng.termii.com"

type termiiNotifier struct {
	apiKey        string
	senderID      string
	merchantPhone string
	httpClient    *http.Client
}

func NewTermiiNotifier(apiKey, senderID, merchantPhone string) Notifier {
	if apiKey == "" {
		logger.L().Warn("Termii API key is empty")
	}

	return &termiiNotifier{
		apiKey:        apiKey,
		senderID:      senderID,
		merchantPhone: merchantPhone,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *termiiNotifier) SendOrderConfirmation(ctx context.Context, phone, orderNumber string, amount float64, firstName string) error {
	msg := fmt.Sprintf(
		"Hi %s, your order %s (NGN %.2f) has been received and is being processed. Thank you for shopping with us!",
		firstName, orderNumber, amount,
	)
	return n.send(ctx, phone, msg)
}

func (n *termiiNotifier) SendMerchantAlert(ctx context.Context, orderNumber string, amount float64, fullName, phone string) error {
	msg := fmt.Sprintf(
		"New order %s for NGN %.2f placed by %s (%s).",
		orderNumber, amount, fullName, phone,
	)
	return n.send(ctx, n.merchantPhone, msg)
}

func (n *termiiNotifier) send(ctx context.Context, to, message string) error {
	log := logger.FromCtx(ctx).With(zap.String("to", to))

	body := map[string]interface{}{
		"to":      utils.NormalizePhoneNG(to),
		"from":    n.senderID,
		"sms":     message,
		"type":    "plain",
		"channel": "generic",
		"api_key": n.apiKey,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", termiiBaseURL+"/api/sms/send", bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Error("SMS request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read termii response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Termii returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBytes),
		)
		return fmt.Errorf("termii error: %s", string(respBytes))
	}

	log.Info("SMS dispatched")
	return nil
}
