package orderlifecycle

import (
	"context"
)

//go:generate mockgen -source=signer.go -package orderlifecycle -destination signer_mock.go Signer
type Signer interface {
	// SignAndSubmit signs the serialized transaction and submits it to the chain, returning its signature.
	SignAndSubmit(c context.Context, serializedTransaction []byte, connectionEndpoint string) (string, error)
}
