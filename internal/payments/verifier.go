package payments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

const (
	verifiedBody   = "VERIFIED"
	defaultTimeout = 10 * time.Second
)

// PostbackVerifier echoes an IPN back to PayPal and expects VERIFIED.
type PostbackVerifier struct {
	client   *http.Client
	endpoint string
}

func NewPostbackVerifier(endpoint string, client *http.Client) *PostbackVerifier {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &PostbackVerifier{client: client, endpoint: endpoint}
}

func (v *PostbackVerifier) Verify(ctx context.Context, raw string) error {
	body := "cmd=_notify-validate"
	if raw != "" {
		body += "&" + raw
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ipn postback")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ipn postback")
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read ipn postback")
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d", resp.StatusCode), "ipn postback")
	}
	if strings.TrimSpace(string(reply)) != verifiedBody {
		return pkgerrors.New(pkgerrors.CodeValidation, "ipn message was not verified by paypal")
	}
	return nil
}
