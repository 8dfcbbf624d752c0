package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"
	"gidimart-be/internal/logger"

	"go.uber.org/zap"
)

const paystackBaseURL = "https://api.paystack.co"

type paystackGateway struct {
	secretKey  string
	publicKey  string
	httpClient *http.Client
}

// ----------------- Constructor -----------------

func NewPaystackGateway(secretKey, publicKey string) Gateway {
	if secretKey == "" {
		logger.L().Warn("Paystack secret key is empty")
	}

	return &paystackGateway{
		secretKey: secretKey,
		publicKey: publicKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *paystackGateway) PublicKey() string {
	return p.publicKey
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ----------------- InitializeTransaction -----------------

func (p *paystackGateway) InitializeTransaction(
	ctx context.Context,
	reference, email string,
	amountMinor int64,
	channels []Channel,
) (*InitResponse, error) {

	log := logger.L().With(
		zap.String("reference", reference),
		zap.Int64("amount", amountMinor),
	)

	body := map[string]interface{}{
		"reference": reference,
		"email":     email,
		"amount":    amountMinor,
		"currency":  "NGN",
	}
	if len(channels) > 0 {
		body["channels"] = channels
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", paystackBaseURL+"/transaction/initialize", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+p.secretKey)
	req.Header.Add("Content-Type", "application/json")

	log.Info("Initializing Paystack transaction")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Error("Paystack request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Paystack returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("paystack error: %s", string(bodyBytes))
	}

	var env paystackEnvelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		log.Error("Failed decoding Paystack response", zap.Error(err))
		return nil, err
	}
	if !env.Status {
		return nil, fmt.Errorf("paystack error: %s", env.Message)
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}

	log.Info("Paystack transaction initialized",
		zap.String("access_code", data.AccessCode),
	)

	return &InitResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// ----------------- VerifyTransaction -----------------

func (p *paystackGateway) VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error) {
	log := logger.L().With(zap.String("reference", reference))

	url := fmt.Sprintf("%s/transaction/verify/%s", paystackBaseURL, reference)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		return nil, err
	}

	req.Header.Add("Authorization", "Bearer "+p.secretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Error("Request to Paystack failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Paystack verification returned error",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("paystack error: %s", string(bodyBytes))
	}

	var env paystackEnvelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		log.Error("Failed decoding verification response", zap.Error(err))
		return nil, err
	}
	if !env.Status {
		return nil, fmt.Errorf("paystack error: %s", env.Message)
	}

	var data struct {
		Status   string     `json:"status"`
		Amount   int64      `json:"amount"`
		Currency string     `json:"currency"`
		Channel  string     `json:"channel"`
		PaidAt   *time.Time `json:"paid_at"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}

	log.Info("Paystack verification result",
		zap.String("status", data.Status),
		zap.Int64("amount", data.Amount),
	)

	return &VerifyResult{
		Success:     data.Status == "success",
		Status:      data.Status,
		AmountMinor: data.Amount,
		Currency:    data.Currency,
		Channel:     data.Channel,
		PaidAt:      data.PaidAt,
		Raw:         env.Data,
	}, nil
}

// ----------------- Webhook signature -----------------

// VerifyWebhookSignature checks the HMAC-SHA512 signature Paystack sends in
// the x-paystack-signature header against the raw request body.
func (p *paystackGateway) VerifyWebhookSignature(body []byte, signature string) error {
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
