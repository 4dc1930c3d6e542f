package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

const Provider = "midtrans"

func NewSnapClient(serverKey string, production bool) *snap.Client {
	var client snap.Client

	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	client.New(serverKey, env)

	return &client
}

// SnapGateway starts hosted Snap checkouts and checks notification
// signatures with the same server key.
type SnapGateway struct {
	client    *snap.Client
	serverKey string
}

func NewSnapGateway(serverKey string, production bool) *SnapGateway {
	return &SnapGateway{client: NewSnapClient(serverKey, production), serverKey: serverKey}
}

func (g *SnapGateway) Provider() string { return Provider }

// CreateRedirect opens a Snap transaction for ref and returns the hosted
// payment page URL together with the raw gateway response.
func (g *SnapGateway) CreateRedirect(_ context.Context, ref string, grossAmount int64, email, name string) (string, []byte, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  ref,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: name,
			Email: email,
		},
	}

	resp, snapErr := g.client.CreateTransaction(req)
	if snapErr != nil {
		return "", nil, snapErr
	}
	if resp == nil || resp.RedirectURL == "" {
		return "", nil, errors.New("midtrans returned no redirect url")
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return "", nil, err
	}
	return resp.RedirectURL, payload, nil
}

func (g *SnapGateway) VerifySignature(orderRef, statusCode, grossAmount, signature string) bool {
	return VerifySignature(orderRef, statusCode, grossAmount, signature, g.serverKey)
}

// VerifySignature checks sha512(order_id + status_code + gross_amount + server_key).
func VerifySignature(
	orderID string,
	statusCode string,
	grossAmount string,
	signature string,
	serverKey string,
) bool {
	if serverKey == "" || signature == "" {
		return false
	}
	expected := Sign(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func Sign(orderID, statusCode, grossAmount, serverKey string) string {
	hash := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(hash[:])
}
