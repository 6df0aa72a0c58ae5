package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/utils/httpclients"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// Client talks to the WhatsApp gateway. It implements delivery.Transport;
// the credential travels per request because each agent sends through its
// own channel binding.
type Client struct {
	baseURL string
	client  *resty.Client
	logger  zerolog.Logger
}

var _ delivery.Transport = (*Client)(nil)

type sendPayload struct {
	Number    string `json:"number"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// NewClient constructs a gateway client. A non-positive timeout falls back
// to 15s.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := httpclients.NewClient("whatsapp-gateway")
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With().Str("component", "whatsapp-gateway").Logger(),
	}
}

// Send implements delivery.Transport. It returns the gateway-issued message
// id acknowledging acceptance.
func (c *Client) Send(ctx context.Context, req delivery.SendRequest) (string, error) {
	var result sendResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+req.Token).
		SetBody(sendPayload{
			Number:    req.Number,
			Recipient: req.Recipient,
			Body:      req.Content,
		}).
		SetResult(&result).
		Post(c.baseURL + "/v1/messages")
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeTransportFailure, "gateway request failed", err, "f85abc36-7e91-4dc4-a0a2-5b6c7d8e9f00")
	}
	if resp.StatusCode() >= 400 {
		c.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("recipient", req.Recipient).
			Msg("gateway rejected send")
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeTransportFailure,
			fmt.Sprintf("gateway returned status %d", resp.StatusCode()), nil, "0a96bd47-8fa2-4ed5-b1b3-6c7d8e9f0a11")
	}
	if strings.TrimSpace(result.MessageID) == "" {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeTransportFailure, "gateway returned no message id", nil, "1ba7ce58-90b3-4fe6-c2c4-7d8e9f0a1b22")
	}
	return result.MessageID, nil
}
