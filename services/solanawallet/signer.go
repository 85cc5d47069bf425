package solanawallet

import (
	"context"
	"fmt"
	"sync"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/MarcGrol/cryptocheckout/lib/mylog"
)

// Signer signs provider-prepared transactions with a server side wallet and submits them.
// It implements orderlifecycle.Signer.
type Signer struct {
	sync.Mutex
	privateKey      solana.PrivateKey
	defaultEndpoint string
	clients         map[string]*rpc.Client
	logger          mylog.Logger
}

func NewSigner(privateKeyBase58 string, rpcEndpoint string) (*Signer, error) {
	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return newSigner(privateKey, rpcEndpoint), nil
}

func newSigner(privateKey solana.PrivateKey, rpcEndpoint string) *Signer {
	return &Signer{
		privateKey:      privateKey,
		defaultEndpoint: rpcEndpoint,
		clients:         map[string]*rpc.Client{},
		logger:          mylog.New("solanawallet"),
	}
}

// Address returns the public key of the wallet.
func (s *Signer) Address() solana.PublicKey {
	return s.privateKey.PublicKey()
}

func (s *Signer) SignAndSubmit(c context.Context, serializedTransaction []byte, connectionEndpoint string) (string, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(serializedTransaction))
	if err != nil {
		return "", fmt.Errorf("error decoding transaction: %w", err)
	}

	payer := s.privateKey.PublicKey()
	if !tx.IsSigner(payer) {
		return "", fmt.Errorf("transaction does not require a signature of wallet %s", payer)
	}

	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &s.privateKey
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error signing transaction: %w", err)
	}

	endpoint := connectionEndpoint
	if endpoint == "" {
		endpoint = s.defaultEndpoint
	}
	signature, err := s.client(endpoint).SendTransactionWithOpts(c, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("error submitting transaction to %s: %w", endpoint, err)
	}

	s.logger.Log(c, "", mylog.SeverityInfo, "Submitted transaction %s signed by %s", signature, payer)

	return signature.String(), nil
}

func (s *Signer) client(endpoint string) *rpc.Client {
	s.Lock()
	defer s.Unlock()

	client, found := s.clients[endpoint]
	if !found {
		client = rpc.New(endpoint)
		s.clients[endpoint] = client
	}
	return client
}
